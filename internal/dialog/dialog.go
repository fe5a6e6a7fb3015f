// Package dialog is the per-user conversation state machine: it records what
// free text a user is expected to send next and consumes that text.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/m3rciful/likebot/core/logger"
	"github.com/m3rciful/likebot/core/telegram/state"
	"github.com/m3rciful/likebot/internal/likes"
)

const (
	AwaitingLikeName    state.State = "awaiting_like_name"
	AwaitingChannelName state.State = "awaiting_channel_name"
)

// MinChannelLength is the shortest accepted handle, without the leading '@'.
const MinChannelLength = 3

// ErrInvalidChannel rejects handles shorter than MinChannelLength.
var ErrInvalidChannel = errors.New("dialog: channel handle too short")

const component = "service.dialog"

var linkPrefixes = []string{"https://t.me/", "http://t.me/", "t.me/"}

// NormalizeChannel turns "mychan", "@mychan" or "t.me/mychan" into "@mychan".
func NormalizeChannel(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	for _, p := range linkPrefixes {
		if rest, ok := strings.CutPrefix(name, p); ok {
			name = strings.TrimRight(rest, "/")
			break
		}
	}
	name = strings.TrimPrefix(name, "@")
	if utf8.RuneCountInString(name) < MinChannelLength {
		return "", fmt.Errorf("%w: %q", ErrInvalidChannel, raw)
	}
	return "@" + name, nil
}

// Kind classifies what Submit did with the input.
type Kind int

const (
	// Ignored: no expectation was pending.
	Ignored Kind = iota
	LikeCreated
	ChannelBound
	// Invalid: the input failed validation and the state was kept.
	Invalid
)

// Input is one free-text message.
type Input struct {
	Owner likes.Owner
	Text  string
}

// Result reports the transition Submit performed.
type Result struct {
	Kind Kind
	// State is the expectation the input was matched against.
	State   state.State
	Like    *likes.Like
	Channel string
	Err     error
}

// Machine drives the conversation. It is stateless; every step reads and
// writes the user's slot through the state manager.
type Machine struct {
	states *state.Manager
	likes  *likes.Store
	steps  *state.Steps[Input, Result]
}

// New wires the machine and registers one step per awaiting state.
func New(states *state.Manager, store *likes.Store) *Machine {
	m := &Machine{
		states: states,
		likes:  store,
		steps:  state.NewSteps[Input, Result](),
	}
	m.steps.Register(AwaitingLikeName, m.consumeLikeName)
	m.steps.Register(AwaitingChannelName, m.consumeChannelName)
	return m
}

// BeginLikeCreation expects a Like name next, replacing any pending expectation.
func (m *Machine) BeginLikeCreation(ctx context.Context, userID int64) error {
	return m.transition(ctx, userID, AwaitingLikeName)
}

// BeginChannelSettings expects a channel handle next.
func (m *Machine) BeginChannelSettings(ctx context.Context, userID int64) error {
	return m.transition(ctx, userID, AwaitingChannelName)
}

// Reset returns the user to Idle.
func (m *Machine) Reset(ctx context.Context, userID int64) error {
	return m.transition(ctx, userID, state.StateIdle)
}

// Current returns the pending expectation, StateIdle when none.
func (m *Machine) Current(ctx context.Context, userID int64) (state.State, error) {
	return m.states.Get(ctx, userID)
}

// InProgress reports whether free text from the user should be submitted.
func (m *Machine) InProgress(ctx context.Context, userID int64) (bool, error) {
	return m.states.InProgress(ctx, userID)
}

// Submit consumes text according to the pending expectation.
func (m *Machine) Submit(ctx context.Context, in Input) (Result, error) {
	current, err := m.states.Get(ctx, in.Owner.ID)
	if err != nil {
		return Result{}, err
	}
	if current == state.StateIdle {
		return Result{Kind: Ignored}, nil
	}
	step, ok := m.steps.Lookup(current)
	if !ok {
		// Unknown tag left by an older deployment.
		logger.Warn(ctx, component, "state.unknown", slog.String("state", string(current)))
		return Result{Kind: Ignored, State: current}, m.Reset(ctx, in.Owner.ID)
	}
	res, err := step(ctx, in)
	res.State = current
	return res, err
}

func (m *Machine) consumeLikeName(ctx context.Context, in Input) (Result, error) {
	like, err := m.likes.CreateLike(ctx, in.Owner, in.Text)
	if errors.Is(err, likes.ErrInvalidName) {
		return Result{Kind: Invalid, Err: err}, nil
	}
	if err != nil {
		return Result{}, err
	}
	if err := m.states.Clear(ctx, in.Owner.ID); err != nil {
		return Result{}, err
	}
	return Result{Kind: LikeCreated, Like: like}, nil
}

func (m *Machine) consumeChannelName(ctx context.Context, in Input) (Result, error) {
	handle, err := NormalizeChannel(in.Text)
	if err != nil {
		return Result{Kind: Invalid, Err: err}, nil
	}
	if err := m.likes.SetChannel(ctx, in.Owner.ID, handle); err != nil {
		return Result{}, err
	}
	if err := m.states.Clear(ctx, in.Owner.ID); err != nil {
		return Result{}, err
	}
	return Result{Kind: ChannelBound, Channel: handle}, nil
}

func (m *Machine) transition(ctx context.Context, userID int64, next state.State) error {
	if err := m.states.Set(ctx, userID, next); err != nil {
		return err
	}
	logger.Debug(ctx, component, "state.set",
		slog.String("status", "ok"),
		slog.String("state", stateName(next)),
	)
	return nil
}

func stateName(st state.State) string {
	if st == state.StateIdle {
		return "idle"
	}
	return string(st)
}
