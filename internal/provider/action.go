package provider

import "context"

// Action is the behavior attached to a candidate: what happens when the user
// picks it. Actions are concrete, inspectable types rather than captured
// closures so they can be examined in tests and logs.
type Action interface {
	Execute(ctx context.Context) error
}

// Revealer is implemented by actions that can additionally reveal their
// target (for example, show a file in the file manager) without executing it.
// Callers upgrade via a type assertion.
type Revealer interface {
	Reveal(ctx context.Context) error
}

// NoopAction is an Action that does nothing. Used for candidates that are
// purely informational, such as a computed conversion the user only reads.
type NoopAction struct{}

func (NoopAction) Execute(ctx context.Context) error { return nil }

// Reveal returns the action's Revealer when it has one.
func Reveal(a Action) (Revealer, bool) {
	r, ok := a.(Revealer)
	return r, ok
}
