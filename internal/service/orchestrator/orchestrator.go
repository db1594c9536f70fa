package orchestrator

import (
	"context"
	"errors"
	"log"

	"github.com/zhouzirui/rizzmate/backend/internal/apperr"
	"github.com/zhouzirui/rizzmate/backend/internal/model/credit"
	"github.com/zhouzirui/rizzmate/backend/internal/model/tone"
	"github.com/zhouzirui/rizzmate/backend/internal/service/credits"
	"github.com/zhouzirui/rizzmate/backend/internal/service/reply"
)

// State is a step of one submission.
type State string

const (
	StateIdle        State = "idle"
	StateValidating  State = "validating"
	StateCreditCheck State = "credit_check"
	StateGenerating  State = "generating"
	StateDone        State = "done"
	StateExhausted   State = "exhausted"
	StateFailed      State = "failed"
)

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateExhausted || s == StateFailed
}

// Signal tells the caller which exhaustion prompt to show.
type Signal string

const (
	SignalNone             Signal = ""
	SignalGuestExhausted   Signal = "guest_exhausted"
	SignalAccountExhausted Signal = "account_exhausted"
)

// Submission is one reply request.
type Submission struct {
	Text  string
	Image []byte
	Tone  string
}

// Result is the outcome of Submit.
type Result struct {
	State     State  `json:"state"`
	Reply     string `json:"reply,omitempty"`
	Remaining int    `json:"credits"`
	Signal    Signal `json:"signal,omitempty"`
	// PromptSignUpNext is set when a guest just used their last free credit.
	PromptSignUpNext bool `json:"promptSignUp"`
}

// Observer receives every state transition in order.
type Observer func(State)

// Gate charges credits.
type Gate interface {
	Consume(ctx context.Context, actor credit.Actor) (credits.Consumption, error)
}

// Generator validates input and produces replies.
type Generator interface {
	Validate(input reply.Input, toneID string) (tone.Tone, error)
	Generate(ctx context.Context, input reply.Input, toneID string) (string, error)
}

// Orchestrator sequences validation, the credit gate, and generation.
type Orchestrator struct {
	gate      Gate
	generator Generator
}

// New creates an orchestrator.
func New(gate Gate, generator Generator) *Orchestrator {
	return &Orchestrator{gate: gate, generator: generator}
}

// Submit runs one request for actor. Invalid input never spends a credit;
// a spent credit is not refunded when generation fails.
func (o *Orchestrator) Submit(ctx context.Context, actor credit.Actor, sub Submission, observe Observer) (Result, error) {
	emit := func(s State) {
		if observe != nil {
			observe(s)
		}
	}

	emit(StateIdle)
	emit(StateValidating)
	input := reply.Input{Text: sub.Text, Image: sub.Image}
	if _, err := o.generator.Validate(input, sub.Tone); err != nil {
		emit(StateFailed)
		return Result{State: StateFailed}, err
	}

	emit(StateCreditCheck)
	consumption, err := o.gate.Consume(ctx, actor)
	if err != nil {
		log.Printf("[orchestrator] credit check failed actor=%s: %v", actor.Kind(), err)
		emit(StateFailed)
		if !errors.Is(err, apperr.ErrPersistence) {
			err = apperr.Persistence("credit check", err)
		}
		return Result{State: StateFailed}, err
	}

	switch consumption.Outcome {
	case credits.OutcomeGuestExhausted:
		emit(StateExhausted)
		return Result{State: StateExhausted, Signal: SignalGuestExhausted}, nil
	case credits.OutcomeAccountExhausted:
		emit(StateExhausted)
		return Result{State: StateExhausted, Signal: SignalAccountExhausted}, nil
	}

	result := Result{Remaining: consumption.Remaining, PromptSignUpNext: consumption.PromptSignUp}

	emit(StateGenerating)
	text, err := o.generator.Generate(ctx, input, sub.Tone)
	if err != nil {
		log.Printf("[orchestrator] generation failed after charging actor=%s: %v", actor.Kind(), err)
		emit(StateFailed)
		result.State = StateFailed
		return result, err
	}

	emit(StateDone)
	result.State = StateDone
	result.Reply = text
	return result, nil
}
