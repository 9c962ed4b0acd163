// Package catalog holds the registry of condition properties and action types
// that recipes are allowed to reference. The engine and validator consult it;
// neither owns it.
package catalog

import "sort"

// PropertyType classifies how a property's values are compared.
type PropertyType string

const (
	TypeNumber   PropertyType = "number"
	TypeBoolean  PropertyType = "boolean"
	TypeText     PropertyType = "text"
	TypeTime     PropertyType = "time"
	TypeLocation PropertyType = "location"
	TypeCustom   PropertyType = "custom"
)

// Comparison operators understood by the engine, grouped by property type.
const (
	OpEquals      = "="
	OpNotEquals   = "!="
	OpGreater     = ">"
	OpGreaterEq   = ">="
	OpLess        = "<"
	OpLessEq      = "<="
	OpContains    = "contains"
	OpNotContains = "notcontains"
	OpLike        = "like"
	OpBefore      = "before"
	OpAfter       = "after"
	OpNear        = "near"
)

var operatorsByType = map[PropertyType][]string{
	TypeNumber:   {OpEquals, OpNotEquals, OpGreater, OpGreaterEq, OpLess, OpLessEq},
	TypeBoolean:  {OpEquals, OpNotEquals},
	TypeText:     {OpEquals, OpNotEquals, OpContains, OpNotContains, OpLike},
	TypeTime:     {OpBefore, OpAfter, OpEquals},
	TypeLocation: {OpNear},
}

// Property describes a condition property recognized by the engine.
type Property struct {
	Value     string       `json:"value"`
	Text      string       `json:"text"`
	Type      PropertyType `json:"type"`
	Operators []string     `json:"operators"`
}

// ActionType describes an action recognized by the dispatcher.
type ActionType struct {
	Value string `json:"value"`
	Text  string `json:"text"`
	// Flag marks boolean-toggle actions whose value may be omitted.
	Flag bool `json:"flag,omitempty"`
}

// Catalog indexes properties and action types by their value key.
type Catalog struct {
	properties map[string]Property
	actions    map[string]ActionType
}

// New builds a catalog from explicit property and action lists. Entries with
// an empty operator list inherit the defaults for their declared type.
func New(properties []Property, actions []ActionType) *Catalog {
	c := &Catalog{
		properties: make(map[string]Property, len(properties)),
		actions:    make(map[string]ActionType, len(actions)),
	}
	for _, p := range properties {
		if len(p.Operators) == 0 {
			p.Operators = operatorsByType[p.Type]
		}
		c.properties[p.Value] = p
	}
	for _, a := range actions {
		c.actions[a.Value] = a
	}
	return c
}

// Property looks up a property definition by name.
func (c *Catalog) Property(name string) (Property, bool) {
	p, ok := c.properties[name]
	return p, ok
}

// Action looks up an action type by name.
func (c *Catalog) Action(name string) (ActionType, bool) {
	a, ok := c.actions[name]
	return a, ok
}

// ValidOperator reports whether op is allowed for the named property.
func (c *Catalog) ValidOperator(property, op string) bool {
	p, ok := c.properties[property]
	if !ok {
		return false
	}
	for _, candidate := range p.Operators {
		if candidate == op {
			return true
		}
	}
	return false
}

// Properties returns all registered properties sorted by value key.
func (c *Catalog) Properties() []Property {
	out := make([]Property, 0, len(c.properties))
	for _, p := range c.properties {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}

// Actions returns all registered action types sorted by value key.
func (c *Catalog) Actions() []ActionType {
	out := make([]ActionType, 0, len(c.actions))
	for _, a := range c.actions {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}
