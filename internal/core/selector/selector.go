// Package selector implements the generative task selector with schema
// validation, bounded retries, and deterministic fallback.
package selector

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/jmorrell/daycoach/internal/core/logging"
	"github.com/jmorrell/daycoach/internal/core/plan"
)

// ErrCapabilityUnavailable is returned by the module-scoped path when the
// generative capability is disabled by policy or unconfigured. The base
// path never surfaces it; it falls back instead.
var ErrCapabilityUnavailable = errors.New("generative capability unavailable")

// Summary texts attached when the fallback scorer substitutes for the model.
const (
	SummaryDisabled     = "Fallback selector used (AI disabled or unavailable)."
	SummaryAfterFailure = "Fallback selector used after AI failure."
)

// Source tags where an outcome's tasks came from.
type Source string

const (
	SourceGenerative Source = "generative"
	SourceFallback   Source = "fallback"
)

// Outcome is the tagged result of a generation run. The fallback path is an
// ordinary value, not an error: Cause carries the failure that forced it,
// if any, so callers can inspect the path taken explicitly.
type Outcome struct {
	Tasks       []plan.Task
	SummaryText string
	Raw         string
	Source      Source
	Cause       error
}

const (
	defaultRetries   = 2
	defaultMaxTokens = 4096
)

// Config tunes the selector.
type Config struct {
	// Retries is the number of corrective resubmissions after a malformed
	// reply; total attempts are Retries+1. nil defaults to 2; an explicit
	// 0 means a single attempt with no resubmission.
	Retries *int
	// MaxTokens caps the model reply length.
	MaxTokens int
}

// Selector drives the generative capability and falls back to the
// deterministic scorer per policy.
type Selector struct {
	capability Capability
	fallback   *plan.Fallback
	policy     plan.Policy
	prompts    string
	retries    int
	maxTokens  int
	log        zerolog.Logger
}

// New creates a Selector. capability may be nil, in which case every base
// generation run uses the fallback scorer and module runs error.
func New(capability Capability, fallback *plan.Fallback, policy plan.Policy, prompts string, cfg Config) *Selector {
	retries := defaultRetries
	if cfg.Retries != nil && *cfg.Retries >= 0 {
		retries = *cfg.Retries
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &Selector{
		capability: capability,
		fallback:   fallback,
		policy:     policy,
		prompts:    prompts,
		retries:    retries,
		maxTokens:  maxTokens,
		log:        logging.Component("selector"),
	}
}

// Generate produces the base daily plan. It never returns an error: any
// failure during assembly, the call, or validation (including retry
// exhaustion) yields a fallback outcome with the failure recorded as Cause.
func (s *Selector) Generate(ctx context.Context, in Input) Outcome {
	if !s.policy.UseGenerative || s.capability == nil {
		return s.fallbackOutcome(in, SummaryDisabled, nil)
	}

	payload, err := userPayload(in, s.policy, s.policy.HistoryWindowDays)
	if err != nil {
		return s.fallbackOutcome(in, SummaryAfterFailure, err)
	}

	out, err := s.converse(ctx, systemPrompt("", "", s.prompts), payload)
	if err != nil {
		s.log.Warn().Ctx(ctx).Err(err).Msg("generative selection failed, using fallback")
		return s.fallbackOutcome(in, SummaryAfterFailure, err)
	}

	return out
}

// GenerateForModule produces a plan scoped to one module. Unlike Generate
// it surfaces capability absence and retry exhaustion as errors; the caller
// substitutes the fallback scorer explicitly.
func (s *Selector) GenerateForModule(ctx context.Context, in ModuleInput) (Outcome, error) {
	if !s.policy.UseGenerative || s.capability == nil {
		return Outcome{}, ErrCapabilityUnavailable
	}

	payload, err := modulePayload(in, s.policy, s.policy.HistoryWindowDays)
	if err != nil {
		return Outcome{}, err
	}

	out, err := s.converse(ctx, systemPrompt(in.ModuleID, ModuleTitle(in.ModuleID), s.prompts), payload)
	if err != nil {
		return Outcome{}, err
	}

	return out, nil
}

// Fallback exposes the deterministic scorer so the orchestrator can invoke
// it explicitly on the module path.
func (s *Selector) Fallback() *plan.Fallback {
	return s.fallback
}

// converse runs the retry protocol: up to retries+1 calls, appending the
// corrective instruction to the conversation after each malformed reply.
// The last error is surfaced on exhaustion.
func (s *Selector) converse(ctx context.Context, system, payload string) (Outcome, error) {
	messages := []Message{{Role: RoleUser, Content: payload}}

	var lastErr error
	for attempt := 0; attempt <= s.retries; attempt++ {
		if attempt > 0 {
			messages = append(messages, Message{Role: RoleUser, Content: correctionNote})
		}

		raw, err := s.capability.Complete(ctx, Request{
			System:    system,
			Messages:  messages,
			MaxTokens: s.maxTokens,
		})
		if err != nil {
			lastErr = err
			continue
		}

		tasks, summary, doc, err := parseReply(raw)
		if err != nil {
			s.log.Debug().Ctx(ctx).Err(err).Int("attempt", attempt+1).Msg("reply failed validation")
			lastErr = err
			continue
		}

		return Outcome{
			Tasks:       tasks,
			SummaryText: summary,
			Raw:         doc,
			Source:      SourceGenerative,
		}, nil
	}

	return Outcome{}, lastErr
}

func (s *Selector) fallbackOutcome(in Input, summary string, cause error) Outcome {
	return Outcome{
		Tasks:       s.fallback.Select(in.Groups, in.Records, in.AsOf),
		SummaryText: summary,
		Raw:         "{}",
		Source:      SourceFallback,
		Cause:       cause,
	}
}

// FallbackOutcome builds a fallback outcome for a module-scoped run. The
// orchestrator calls it after GenerateForModule reports a failure.
func (s *Selector) FallbackOutcome(in ModuleInput, cause error) Outcome {
	summary := SummaryAfterFailure
	if errors.Is(cause, ErrCapabilityUnavailable) {
		summary = SummaryDisabled
	}
	return Outcome{
		Tasks:       s.fallback.Select(in.Groups, in.Records, in.AsOf),
		SummaryText: summary,
		Raw:         "{}",
		Source:      SourceFallback,
		Cause:       cause,
	}
}
