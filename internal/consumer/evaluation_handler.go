package consumer

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"example.com/recipes/internal/activity"
	"example.com/recipes/internal/engine"
	"example.com/recipes/internal/events"
	"example.com/recipes/internal/recipe"
)

// ResultPublisher emits the outcome of an evaluation run.
type ResultPublisher interface {
	PublishActivityUpdated(ctx context.Context, evt events.ActivityUpdated) error
}

// EvaluationHandler runs every recipe of the activity owner against each
// incoming activity.created event.
type EvaluationHandler struct {
	engine    *engine.Engine
	recipes   recipe.Repository
	publisher ResultPublisher
	logger    *log.Logger
}

// NewEvaluationHandler constructs the handler.
func NewEvaluationHandler(eng *engine.Engine, recipes recipe.Repository, publisher ResultPublisher) *EvaluationHandler {
	return &EvaluationHandler{
		engine:    eng,
		recipes:   recipes,
		publisher: publisher,
		logger:    log.New(log.Writer(), "[evaluation] ", log.LstdFlags),
	}
}

// Handle evaluates recipes in position order against the activity. A recipe
// flagged as kill switch stops the run once it matched. When any recipe
// changed the activity, an activity.updated event is published carrying the
// accumulated updated fields.
func (h *EvaluationHandler) Handle(ctx context.Context, msg Message) error {
	if msg.EventType != "activity.created" {
		return nil
	}

	var evt events.ActivityCreated
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		return err
	}

	act := buildActivity(evt)
	user := engine.User{ID: evt.UserID, TenantID: evt.TenantID}

	recs, err := h.recipes.List(ctx, evt.TenantID, evt.UserID)
	if err != nil {
		return err
	}

	var matched []string
	for _, rec := range recs {
		ok, err := h.engine.EvaluateRecipe(ctx, user, rec, act)
		if err != nil {
			h.logger.Printf("evaluation failed (recipe=%s, activity=%s): %v", rec.ID, evt.ActivityID, err)
			continue
		}
		if !ok {
			continue
		}
		matched = append(matched, rec.ID)
		if rec.KillSwitch {
			h.logger.Printf("recipe %s (%s) matched with kill switch, stopping run", rec.ID, rec.Title)
			break
		}
	}

	if len(matched) == 0 || len(act.UpdatedFields()) == 0 {
		return nil
	}

	return h.publisher.PublishActivityUpdated(ctx, events.ActivityUpdated{
		ActivityID:     evt.ActivityID,
		TenantID:       evt.TenantID,
		UserID:         evt.UserID,
		UpdatedFields:  act.UpdatedFields(),
		Fields:         act.Fields,
		MatchedRecipes: matched,
		OccurredAt:     time.Now().UTC(),
	})
}

// buildActivity projects the event into the engine's property bag, keeping
// the canonical identity fields addressable as conditions.
func buildActivity(evt events.ActivityCreated) *activity.Activity {
	fields := make(map[string]any, len(evt.Fields)+3)
	for k, v := range evt.Fields {
		fields[k] = v
	}
	if evt.SportType != "" {
		fields[activity.FieldSportType] = evt.SportType
	}
	if !evt.StartedAt.IsZero() {
		fields["start_date"] = evt.StartedAt.UTC().Format(time.RFC3339)
	}
	fields["user_id"] = evt.UserID
	return activity.New(evt.ActivityID, fields)
}
