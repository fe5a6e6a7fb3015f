package state

import "context"

// Step handles input received while a user is in one state.
type Step[In, Out any] func(ctx context.Context, in In) (Out, error)

// Steps maps each state to its step. Each machine owns its table.
type Steps[In, Out any] struct {
	steps map[State]Step[In, Out]
}

// NewSteps returns an empty table.
func NewSteps[In, Out any]() *Steps[In, Out] {
	return &Steps[In, Out]{steps: make(map[State]Step[In, Out])}
}

// Register associates a state with its step; nil steps and StateIdle are ignored.
func (s *Steps[In, Out]) Register(st State, step Step[In, Out]) {
	if step == nil || st == StateIdle {
		return
	}
	s.steps[st] = step
}

// Lookup returns the step for st.
func (s *Steps[In, Out]) Lookup(st State) (Step[In, Out], bool) {
	step, ok := s.steps[st]
	return step, ok
}
