package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/rizzmate/backend/internal/apperr"
	"github.com/zhouzirui/rizzmate/backend/internal/model/credit"
	"github.com/zhouzirui/rizzmate/backend/internal/model/tone"
	"github.com/zhouzirui/rizzmate/backend/internal/service/credits"
	"github.com/zhouzirui/rizzmate/backend/internal/service/gateway"
	"github.com/zhouzirui/rizzmate/backend/internal/service/reply"
)

type mockGate struct {
	mock.Mock
}

func (m *mockGate) Consume(ctx context.Context, actor credit.Actor) (credits.Consumption, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).(credits.Consumption), args.Error(1)
}

type stubGateway struct {
	reply string
	err   error
	calls int
}

func (s *stubGateway) Complete(context.Context, gateway.Request) (string, error) {
	s.calls++
	return s.reply, s.err
}

type recorder struct {
	states []State
}

func (r *recorder) observe(s State) { r.states = append(r.states, s) }

func newGenerator(gw gateway.Gateway) *reply.Generator {
	return reply.NewGenerator(gw, tone.NewMemoryStore(tone.Seed()))
}

func TestSubmitHappyPathGuest(t *testing.T) {
	gw := &stubGateway{reply: "Nice!"}
	store := credits.NewMemoryGuestStore(5)
	o := New(credits.NewGate(nil), newGenerator(gw))
	rec := &recorder{}

	res, err := o.Submit(context.Background(), credit.GuestActor(store), Submission{Text: "hey", Tone: "funny"}, rec.observe)
	require.NoError(t, err)
	assert.Equal(t, Result{State: StateDone, Reply: "Nice!", Remaining: 4}, res)
	assert.Equal(t, []State{StateIdle, StateValidating, StateCreditCheck, StateGenerating, StateDone}, rec.states)
	assert.Equal(t, 4, store.Get())
}

func TestSubmitInvalidInputSpendsNothing(t *testing.T) {
	gw := &stubGateway{reply: "x"}
	gate := new(mockGate)
	o := New(gate, newGenerator(gw))
	rec := &recorder{}

	for _, sub := range []Submission{
		{Text: "", Tone: "funny"},
		{Text: "hey", Tone: ""},
		{Text: "hey", Tone: "snarky"},
	} {
		res, err := o.Submit(context.Background(), credit.GuestActor(credits.NewMemoryGuestStore(5)), sub, rec.observe)
		assert.ErrorIs(t, err, apperr.ErrValidation)
		assert.Equal(t, StateFailed, res.State)
	}
	gate.AssertNotCalled(t, "Consume", mock.Anything, mock.Anything)
	assert.Zero(t, gw.calls)
	assert.Equal(t, []State{StateIdle, StateValidating, StateFailed}, rec.states[:3])
}

func TestSubmitGuestLastCreditPromptsSignUp(t *testing.T) {
	store := credits.NewMemoryGuestStore(5)
	store.Set(1)
	o := New(credits.NewGate(nil), newGenerator(&stubGateway{reply: "ok"}))

	res, err := o.Submit(context.Background(), credit.GuestActor(store), Submission{Text: "hey", Tone: "casual"}, nil)
	require.NoError(t, err)
	assert.True(t, res.PromptSignUpNext)
	assert.Equal(t, 0, res.Remaining)
}

func TestSubmitGuestExhaustedSkipsGeneration(t *testing.T) {
	store := credits.NewMemoryGuestStore(5)
	store.Set(0)
	gw := &stubGateway{reply: "never"}
	o := New(credits.NewGate(nil), newGenerator(gw))
	rec := &recorder{}

	res, err := o.Submit(context.Background(), credit.GuestActor(store), Submission{Text: "hey", Tone: "casual"}, rec.observe)
	require.NoError(t, err)
	assert.Equal(t, StateExhausted, res.State)
	assert.Equal(t, SignalGuestExhausted, res.Signal)
	assert.Zero(t, gw.calls)
	assert.Equal(t, StateExhausted, rec.states[len(rec.states)-1])
	assert.NotContains(t, rec.states, StateGenerating)
}

func TestSubmitAccountExhausted(t *testing.T) {
	ctx := context.Background()
	actor := credit.AccountActor(credit.Identity{UserID: "user_1"})
	gate := new(mockGate)
	gate.On("Consume", ctx, actor).Return(credits.Consumption{Outcome: credits.OutcomeAccountExhausted}, nil).Once()
	gw := &stubGateway{reply: "never"}

	res, err := New(gate, newGenerator(gw)).Submit(ctx, actor, Submission{Text: "hey", Tone: "flirty"}, nil)
	require.NoError(t, err)
	assert.Equal(t, SignalAccountExhausted, res.Signal)
	assert.Zero(t, gw.calls)
}

func TestSubmitGenerationFailureKeepsCharge(t *testing.T) {
	store := credits.NewMemoryGuestStore(5)
	gw := &stubGateway{err: apperr.Generation(503, "OpenRouter API error", errors.New("overloaded"))}
	o := New(credits.NewGate(nil), newGenerator(gw))
	rec := &recorder{}

	res, err := o.Submit(context.Background(), credit.GuestActor(store), Submission{Text: "hey", Tone: "funny"}, rec.observe)
	assert.ErrorIs(t, err, apperr.ErrGeneration)
	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, 4, res.Remaining)
	assert.Equal(t, 4, store.Get())
	assert.Equal(t, []State{StateIdle, StateValidating, StateCreditCheck, StateGenerating, StateFailed}, rec.states)
}

func TestSubmitCreditCheckFailure(t *testing.T) {
	ctx := context.Background()
	actor := credit.AccountActor(credit.Identity{UserID: "user_1"})
	gate := new(mockGate)
	gate.On("Consume", ctx, actor).Return(credits.Consumption{}, errors.New("connection reset")).Once()
	gw := &stubGateway{reply: "never"}

	res, err := New(gate, newGenerator(gw)).Submit(ctx, actor, Submission{Text: "hey", Tone: "flirty"}, nil)
	assert.ErrorIs(t, err, apperr.ErrPersistence)
	assert.Equal(t, StateFailed, res.State)
	assert.Zero(t, gw.calls)
}

func TestStateTerminal(t *testing.T) {
	assert.True(t, StateDone.Terminal())
	assert.True(t, StateExhausted.Terminal())
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StateGenerating.Terminal())
}
