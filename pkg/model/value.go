// pkg/model/value.go
package model

// State describes the outcome of coercing a single raw field
type State uint8

const (
	// Absent means the raw value was null or empty
	Absent State = iota
	// Malformed means a value was present but could not be parsed
	Malformed
	// Present means the value parsed successfully
	Present
)

// String returns a string representation of the state
func (s State) String() string {
	switch s {
	case Absent:
		return "absent"
	case Malformed:
		return "malformed"
	case Present:
		return "present"
	default:
		return "unknown"
	}
}

// Value is a coerced field together with the raw text it came from
type Value[T any] struct {
	V     T
	State State
	Raw   string
}

// Of returns a present value
func Of[T any](v T, raw string) Value[T] {
	return Value[T]{V: v, State: Present, Raw: raw}
}

// Missing returns an absent value
func Missing[T any](raw string) Value[T] {
	return Value[T]{State: Absent, Raw: raw}
}

// Invalid returns a malformed value
func Invalid[T any](raw string) Value[T] {
	return Value[T]{State: Malformed, Raw: raw}
}

// Valid reports whether the value parsed
func (v Value[T]) Valid() bool {
	return v.State == Present
}

// Get returns the parsed value and whether it is usable
func (v Value[T]) Get() (T, bool) {
	return v.V, v.State == Present
}
