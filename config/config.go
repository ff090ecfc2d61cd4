package config

import (
	"github.com/dshills/emitter"
	"github.com/dshills/emitter/topic"
)

// Template declares one predeclared event: a name, an optional string
// target label, and initial parameters.
type Template struct {
	Name   string         `toml:"name" yaml:"name"`
	Target string         `toml:"target" yaml:"target"`
	Params map[string]any `toml:"params" yaml:"params"`
}

// Config is the declarative dispatcher configuration.
type Config struct {
	// Events are templates registered into the manager's template table.
	Events []Template `toml:"events" yaml:"events"`

	// Priorities maps event names to the default priority callers should
	// use when attaching listeners for them.
	Priorities map[string]int `toml:"priorities" yaml:"priorities"`
}

// Validate checks template names and priority keys.
func (c *Config) Validate() error {
	for _, t := range c.Events {
		if !topic.IsValid(topic.Trim(t.Name)) {
			return &InvalidError{Field: "events.name", Message: "event name " + t.Name + " is not usable"}
		}
	}
	for name := range c.Priorities {
		if !topic.IsValid(topic.Trim(name)) {
			return &InvalidError{Field: "priorities", Message: "event name " + name + " is not usable"}
		}
	}
	return nil
}

// Apply validates the configuration and registers every declared template
// with the manager. Existing templates with the same name are replaced.
func (c *Config) Apply(m *emitter.Manager) error {
	if err := c.Validate(); err != nil {
		return err
	}
	for _, t := range c.Events {
		e := emitter.NewEvent(topic.Trim(t.Name))
		if t.Target != "" {
			e.SetTarget(t.Target)
		}
		if len(t.Params) > 0 {
			e.SetParams(emitter.ParamsFromMap(t.Params))
		}
		m.SetEvent(e)
	}
	return nil
}

// PriorityFor returns the declared default priority for an event name,
// falling back to PriorityNormal.
func (c *Config) PriorityFor(name string) emitter.Priority {
	if p, ok := c.Priorities[topic.Trim(name)]; ok {
		return emitter.Priority(p)
	}
	return emitter.PriorityNormal
}
