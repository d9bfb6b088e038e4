package hero

import "fmt"

// RangeError reports an attempt to move an entity's level outside
// its [0, MaxLevel] bounds. The mutation is not committed.
type RangeError struct {
	// ClassID identifies the entity whose bounds were violated.
	ClassID string
	// Value is the rejected level.
	Value int
	// Max is the entity's level cap at the time of the attempt.
	Max int
}

func (e *RangeError) Error() string {
	if e.Value < 0 {
		return fmt.Sprintf("entity %q: level %d is negative", e.ClassID, e.Value)
	}
	return fmt.Sprintf("entity %q: level %d exceeds max level %d", e.ClassID, e.Value, e.Max)
}

// PreconditionError reports an operation attempted while its guard
// condition was false, such as upgrading a skill with no points left
// or passing a negative amount to GiveXP.
type PreconditionError struct {
	// Op names the rejected operation.
	Op string
	// Reason describes the violated guard.
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// OwnershipError reports an operation on a skill or hero that does not
// belong to the acting hero or player.
type OwnershipError struct {
	// Owner identifies the acting hero or player.
	Owner string
	// Subject identifies the foreign skill or hero.
	Subject string
}

func (e *OwnershipError) Error() string {
	return fmt.Sprintf("%q does not own %q", e.Owner, e.Subject)
}

// ConfigurationError reports an invalid variant or routing declaration,
// such as two callbacks claiming the same event name within one skill
// variant. These surface at catalog or dispatcher construction, never
// at runtime.
type ConfigurationError struct {
	// Subject identifies the misconfigured variant or route.
	Subject string
	// Reason describes the conflict.
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Subject, e.Reason)
}
