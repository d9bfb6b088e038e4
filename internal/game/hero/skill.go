package hero

import "fmt"

// Args is the named argument bag delivered with a game event. Values
// are accessed by name; callbacks must not rely on positional order.
type Args map[string]any

// Callback is a skill effect handler. It receives the skill instance
// it fires for and the event's argument bag.
type Callback func(s *Skill, args Args)

// CallbackTable maps event names to callbacks for one skill variant.
// It is built once when the variant is registered and shared read-only
// by every instance of the variant thereafter.
type CallbackTable struct {
	handlers map[string]Callback
}

// NewCallbackTable returns an empty CallbackTable ready for Bind calls.
func NewCallbackTable() *CallbackTable {
	return &CallbackTable{handlers: make(map[string]Callback)}
}

// Bind registers cb under each of the given event names. One callback
// may serve several names, but a name already claimed by an earlier
// Bind is a conflict: silent shadowing is rejected with a
// *ConfigurationError and the table is left as before the call.
//
// Precondition: cb must be non-nil; at least one event name is given.
func (t *CallbackTable) Bind(cb Callback, eventNames ...string) error {
	if cb == nil {
		return &ConfigurationError{Subject: "callback table", Reason: "nil callback"}
	}
	if len(eventNames) == 0 {
		return &ConfigurationError{Subject: "callback table", Reason: "callback bound to no event names"}
	}
	for _, name := range eventNames {
		if _, taken := t.handlers[name]; taken {
			return &ConfigurationError{
				Subject: "callback table",
				Reason:  fmt.Sprintf("event %q already has a callback", name),
			}
		}
	}
	for _, name := range eventNames {
		t.handlers[name] = cb
	}
	return nil
}

// Handles reports whether the table has a callback for eventName.
func (t *CallbackTable) Handles(eventName string) bool {
	_, ok := t.handlers[eventName]
	return ok
}

// Skill is a leveled ability owned by exactly one hero. The owning
// hero is fixed at construction and never reassigned. A skill reacts
// to events through its variant's callback table, but only while its
// level is above zero; level 0 is how a skill is disabled without
// being removed.
type Skill struct {
	Entity
	owner     *Hero
	callbacks *CallbackTable
}

func newSkill(def EntityDef, callbacks *CallbackTable, owner *Hero, level int) (*Skill, error) {
	e, err := newEntity(def, level)
	if err != nil {
		return nil, err
	}
	if callbacks == nil {
		callbacks = NewCallbackTable()
	}
	return &Skill{Entity: e, owner: owner, callbacks: callbacks}, nil
}

// Hero returns the hero that owns this skill.
func (s *Skill) Hero() *Hero { return s.owner }

// Execute invokes the callback registered for eventName, if any,
// passing the skill instance and the event's argument bag. Unregistered
// names are a no-op. Execute does not check the skill's level; the
// owning hero's ExecuteSkills skips inert skills.
func (s *Skill) Execute(eventName string, args Args) {
	if cb, ok := s.callbacks.handlers[eventName]; ok {
		cb(s, args)
	}
}
