package selector

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmorrell/daycoach/internal/core/catalog"
	"github.com/jmorrell/daycoach/internal/core/plan"
)

// fakeCapability replays canned responses and counts calls.
type fakeCapability struct {
	responses []string
	errs      []error
	calls     int
	requests  []Request
}

func (f *fakeCapability) Complete(_ context.Context, req Request) (string, error) {
	i := f.calls
	f.calls++
	f.requests = append(f.requests, req)

	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	var resp string
	if i < len(f.responses) {
		resp = f.responses[i]
	} else if len(f.responses) > 0 {
		resp = f.responses[len(f.responses)-1]
	}
	return resp, err
}

func testGroups() []catalog.Group {
	return []catalog.Group{{
		Name: "Habits",
		Items: []catalog.Item{
			{Name: "Walk", Importance: 2},
			{Name: "Read", Importance: 1},
		},
	}}
}

func testInput() Input {
	return Input{Groups: testGroups(), AsOf: time.Date(2026, 8, 29, 8, 0, 0, 0, time.UTC)}
}

func newSelector(cap Capability, useGenerative bool) *Selector {
	policy := plan.DefaultPolicy()
	policy.UseGenerative = useGenerative
	fb := plan.NewFallback(rand.New(rand.NewSource(1)))
	return New(cap, fb, policy, "", Config{})
}

const validReply = `{
	"tasks": [
		{"name": "Walk", "group": "Habits", "task_type": "todo", "reason": "streak building"}
	],
	"summary_notes": "Light day."
}`

func TestGenerate_DisabledUsesFallback(t *testing.T) {
	cap := &fakeCapability{responses: []string{validReply}}
	s := newSelector(cap, false)

	out := s.Generate(context.Background(), testInput())

	assert.Equal(t, SourceFallback, out.Source)
	assert.Equal(t, SummaryDisabled, out.SummaryText)
	assert.Equal(t, "{}", out.Raw)
	assert.NoError(t, out.Cause)
	assert.Zero(t, cap.calls, "capability must not be called when disabled")
	require.Len(t, out.Tasks, 1)
	assert.Equal(t, "Walk", out.Tasks[0].Name)
	assert.Equal(t, plan.ReasonFallback, out.Tasks[0].Reason)
}

func TestGenerate_NilCapabilityUsesFallback(t *testing.T) {
	s := newSelector(nil, true)

	out := s.Generate(context.Background(), testInput())

	assert.Equal(t, SourceFallback, out.Source)
	assert.Equal(t, SummaryDisabled, out.SummaryText)
}

func TestGenerate_Success(t *testing.T) {
	cap := &fakeCapability{responses: []string{validReply}}
	s := newSelector(cap, true)

	out := s.Generate(context.Background(), testInput())

	assert.Equal(t, SourceGenerative, out.Source)
	assert.Equal(t, "Light day.", out.SummaryText)
	assert.Equal(t, 1, cap.calls)
	require.Len(t, out.Tasks, 1)
	assert.Equal(t, "Walk", out.Tasks[0].Name)
	assert.Equal(t, "streak building", out.Tasks[0].Reason)
	assert.Contains(t, out.Raw, `"summary_notes"`)
}

func TestGenerate_RetryTermination(t *testing.T) {
	// Always-malformed replies: exactly retries+1 calls, then fallback,
	// never an error to the caller.
	cap := &fakeCapability{responses: []string{"definitely not json"}}
	s := newSelector(cap, true)

	out := s.Generate(context.Background(), testInput())

	assert.Equal(t, 3, cap.calls, "default 2 retries means 3 total attempts")
	assert.Equal(t, SourceFallback, out.Source)
	assert.Equal(t, SummaryAfterFailure, out.SummaryText)
	assert.Equal(t, "{}", out.Raw)
	assert.Error(t, out.Cause)
	require.Len(t, out.Tasks, 1)
	assert.Equal(t, plan.ReasonFallback, out.Tasks[0].Reason)
}

func TestGenerate_ExplicitZeroRetries(t *testing.T) {
	// Retries set to 0 means a single attempt: no corrective resubmission.
	cap := &fakeCapability{responses: []string{"definitely not json"}}
	policy := plan.DefaultPolicy()
	fb := plan.NewFallback(rand.New(rand.NewSource(1)))
	zero := 0
	s := New(cap, fb, policy, "", Config{Retries: &zero})

	out := s.Generate(context.Background(), testInput())

	assert.Equal(t, 1, cap.calls)
	assert.Equal(t, SourceFallback, out.Source)
	assert.Error(t, out.Cause)
}

func TestGenerate_CorrectionAppendedOnRetry(t *testing.T) {
	cap := &fakeCapability{responses: []string{"oops", validReply}}
	s := newSelector(cap, true)

	out := s.Generate(context.Background(), testInput())

	assert.Equal(t, SourceGenerative, out.Source)
	assert.Equal(t, 2, cap.calls)
	require.Len(t, cap.requests, 2)
	assert.Len(t, cap.requests[0].Messages, 1)
	require.Len(t, cap.requests[1].Messages, 2)
	assert.Equal(t, correctionNote, cap.requests[1].Messages[1].Content)
}

func TestGenerate_RecoversAfterTransportError(t *testing.T) {
	cap := &fakeCapability{
		responses: []string{"", validReply},
		errs:      []error{errors.New("rate limited"), nil},
	}
	s := newSelector(cap, true)

	out := s.Generate(context.Background(), testInput())

	assert.Equal(t, SourceGenerative, out.Source)
	assert.Equal(t, 2, cap.calls)
}

func TestGenerate_ValidationDropRule(t *testing.T) {
	// Three entries, one without a name: exactly two survive.
	reply := `{
		"tasks": [
			{"name": "Walk", "group": "Habits"},
			{"group": "Habits", "reason": "nameless"},
			{"name": "Read", "group": "Habits", "task_type": "coding", "todo_text": "read ch. 4"}
		],
		"summary_notes": "ok"
	}`
	cap := &fakeCapability{responses: []string{reply}}
	s := newSelector(cap, true)

	out := s.Generate(context.Background(), testInput())

	require.Equal(t, SourceGenerative, out.Source)
	require.Len(t, out.Tasks, 2)
	assert.Equal(t, "Walk", out.Tasks[0].Name)
	assert.Equal(t, catalog.TaskTypeTodo, out.Tasks[0].TaskType, "task_type defaults to todo")
	assert.Equal(t, "Read", out.Tasks[1].Name)
	assert.Equal(t, "read ch. 4", out.Tasks[1].ProblemText, "coding problem_text falls back to todo_text")
}

func TestGenerate_AllEntriesDroppedFailsValidation(t *testing.T) {
	reply := `{"tasks": [{"group": "Habits"}], "summary_notes": "useless"}`
	cap := &fakeCapability{responses: []string{reply}}
	s := newSelector(cap, true)

	out := s.Generate(context.Background(), testInput())

	assert.Equal(t, 3, cap.calls, "zero valid tasks is a validation failure and is retried")
	assert.Equal(t, SourceFallback, out.Source)

	var verr *ValidationError
	assert.ErrorAs(t, out.Cause, &verr)
}

func TestGenerate_FencedReplyAccepted(t *testing.T) {
	reply := "Here is your plan:\n```json\n" + validReply + "\n```\nEnjoy!"
	cap := &fakeCapability{responses: []string{reply}}
	s := newSelector(cap, true)

	out := s.Generate(context.Background(), testInput())

	assert.Equal(t, SourceGenerative, out.Source)
	assert.Equal(t, 1, cap.calls)
}

func TestGenerateForModule_UnavailableErrors(t *testing.T) {
	// The module path does not auto-fallback on capability absence.
	s := newSelector(nil, true)

	_, err := s.GenerateForModule(context.Background(), ModuleInput{ModuleID: "dsa", Groups: testGroups(), AsOf: time.Now()})

	assert.ErrorIs(t, err, ErrCapabilityUnavailable)
}

func TestGenerateForModule_DisabledErrors(t *testing.T) {
	cap := &fakeCapability{responses: []string{validReply}}
	s := newSelector(cap, false)

	_, err := s.GenerateForModule(context.Background(), ModuleInput{ModuleID: "dsa", Groups: testGroups(), AsOf: time.Now()})

	assert.ErrorIs(t, err, ErrCapabilityUnavailable)
	assert.Zero(t, cap.calls)
}

func TestGenerateForModule_ExhaustionErrors(t *testing.T) {
	cap := &fakeCapability{responses: []string{"not json"}}
	s := newSelector(cap, true)

	_, err := s.GenerateForModule(context.Background(), ModuleInput{ModuleID: "dsa", Groups: testGroups(), AsOf: time.Now()})

	require.Error(t, err)
	assert.Equal(t, 3, cap.calls)
}

func TestGenerateForModule_Success(t *testing.T) {
	cap := &fakeCapability{responses: []string{validReply}}
	s := newSelector(cap, true)

	out, err := s.GenerateForModule(context.Background(), ModuleInput{
		ModuleID: "dsa_fundamentals",
		Groups:   testGroups(),
		AsOf:     time.Date(2026, 8, 29, 8, 0, 0, 0, time.UTC),
	})

	require.NoError(t, err)
	assert.Equal(t, SourceGenerative, out.Source)
	require.Len(t, cap.requests, 1)
	assert.Contains(t, cap.requests[0].System, "Dsa Fundamentals (dsa_fundamentals)")
	assert.Contains(t, cap.requests[0].Messages[0].Content, `"module_id":"dsa_fundamentals"`)
}

func TestFallbackOutcome_SummaryByCause(t *testing.T) {
	s := newSelector(nil, true)
	in := ModuleInput{ModuleID: "dsa", Groups: testGroups(), AsOf: time.Now()}

	unavailable := s.FallbackOutcome(in, ErrCapabilityUnavailable)
	assert.Equal(t, SummaryDisabled, unavailable.SummaryText)

	failed := s.FallbackOutcome(in, errors.New("boom"))
	assert.Equal(t, SummaryAfterFailure, failed.SummaryText)
	assert.Equal(t, "{}", failed.Raw)
	assert.NotEmpty(t, failed.Tasks)
}

func TestModuleTitle(t *testing.T) {
	assert.Equal(t, "Dsa Fundamentals", ModuleTitle("dsa_fundamentals"))
	assert.Equal(t, "System Design", ModuleTitle("system-design"))
	assert.Equal(t, "", ModuleTitle(""))
}
