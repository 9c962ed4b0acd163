package catalog

// Action type keys used by the dispatcher's built-in executors.
const (
	ActionMarkCommute    = "mark_commute"
	ActionMarkTrainer    = "mark_trainer"
	ActionHideFromHome   = "hide_from_home"
	ActionMute           = "mute"
	ActionSetName        = "set_name"
	ActionSetDescription = "set_description"
	ActionSetGear        = "set_gear"
	ActionSetSportType   = "set_sport_type"
	ActionSetWorkoutType = "set_workout_type"
	ActionSetMapStyle    = "set_map_style"
	ActionWebhook        = "webhook"
)

// Property keys with dedicated checkers in the engine.
const (
	PropertySportType   = "sport_type"
	PropertyGear        = "gear_id"
	PropertyWeekday     = "weekday"
	PropertyNewRecords  = "new_records"
	PropertyFirstOfDay  = "first_of_day"
	PropertyStartDate   = "start_date"
	PropertyTimeOfDay   = "time_of_day"
	PropertyStartLoc    = "location_start"
	PropertyEndLoc      = "location_end"
	PropertyCity        = "location_city"
	PropertyPolyline    = "polyline"
	PropertyDistance    = "distance"
	PropertyDescription = "description"
)

// Default returns the built-in catalog shipped with the service. Deployments
// that need extra properties construct their own via New.
func Default() *Catalog {
	properties := []Property{
		{Value: PropertyDistance, Text: "Distance (km)", Type: TypeNumber},
		{Value: "moving_time", Text: "Moving time (seconds)", Type: TypeNumber},
		{Value: "elapsed_time", Text: "Elapsed time (seconds)", Type: TypeNumber},
		{Value: "total_elevation_gain", Text: "Elevation gain (m)", Type: TypeNumber},
		{Value: "average_speed", Text: "Average speed (km/h)", Type: TypeNumber},
		{Value: "max_speed", Text: "Max speed (km/h)", Type: TypeNumber},
		{Value: "average_heartrate", Text: "Average heart rate (bpm)", Type: TypeNumber},
		{Value: "max_heartrate", Text: "Max heart rate (bpm)", Type: TypeNumber},
		{Value: "average_watts", Text: "Average power (W)", Type: TypeNumber},
		{Value: "calories", Text: "Calories", Type: TypeNumber},

		{Value: "trainer", Text: "Is trainer session", Type: TypeBoolean},
		{Value: "commute", Text: "Is commute", Type: TypeBoolean},
		{Value: "manual", Text: "Was created manually", Type: TypeBoolean},
		{Value: PropertyNewRecords, Text: "Has new records", Type: TypeBoolean},
		{Value: PropertyFirstOfDay, Text: "First activity of the day", Type: TypeBoolean},

		{Value: "name", Text: "Name", Type: TypeText},
		{Value: PropertyDescription, Text: "Description", Type: TypeText},
		{Value: PropertySportType, Text: "Sport type", Type: TypeText, Operators: []string{OpEquals, OpNotEquals}},
		{Value: PropertyGear, Text: "Gear", Type: TypeText, Operators: []string{OpEquals, OpNotEquals}},
		{Value: PropertyWeekday, Text: "Day of the week", Type: TypeCustom, Operators: []string{OpEquals, OpNotEquals}},
		{Value: PropertyCity, Text: "Start city", Type: TypeText},

		{Value: PropertyStartDate, Text: "Start date", Type: TypeTime},
		{Value: PropertyTimeOfDay, Text: "Time of day", Type: TypeTime},

		{Value: PropertyStartLoc, Text: "Start location", Type: TypeLocation},
		{Value: PropertyEndLoc, Text: "End location", Type: TypeLocation},

		{Value: "weather.temperature", Text: "Temperature (C)", Type: TypeNumber},
		{Value: "weather.humidity", Text: "Humidity (%)", Type: TypeNumber},
		{Value: "weather.wind_speed", Text: "Wind speed (km/h)", Type: TypeNumber},
		{Value: "weather.condition", Text: "Weather condition", Type: TypeText},
		{Value: "garmin.vo2max", Text: "Garmin VO2 max", Type: TypeNumber},
		{Value: "garmin.training_load", Text: "Garmin training load", Type: TypeNumber},
		{Value: "garmin.sleep_score", Text: "Garmin sleep score", Type: TypeNumber},
		{Value: "music.artist", Text: "Music artist played", Type: TypeText},
		{Value: "music.track", Text: "Music track played", Type: TypeText},
	}

	actions := []ActionType{
		{Value: ActionMarkCommute, Text: "Mark as commute", Flag: true},
		{Value: ActionMarkTrainer, Text: "Mark as trainer session", Flag: true},
		{Value: ActionHideFromHome, Text: "Hide from home feed", Flag: true},
		{Value: ActionMute, Text: "Mute activity", Flag: true},
		{Value: ActionSetName, Text: "Set name"},
		{Value: ActionSetDescription, Text: "Set description"},
		{Value: ActionSetGear, Text: "Set gear"},
		{Value: ActionSetSportType, Text: "Change sport type"},
		{Value: ActionSetWorkoutType, Text: "Change workout type"},
		{Value: ActionSetMapStyle, Text: "Change map style"},
		{Value: ActionWebhook, Text: "Call webhook"},
	}

	return New(properties, actions)
}
