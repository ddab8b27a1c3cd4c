package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()

	ctx = WithPlanDate(ctx, "2026-08-29")
	ctx = WithModuleID(ctx, "dsa-fundamentals")

	assert.Equal(t, "2026-08-29", GetPlanDate(ctx))
	assert.Equal(t, "dsa-fundamentals", GetModuleID(ctx))
}

func TestContext_NotPresent(t *testing.T) {
	ctx := context.Background()

	assert.Empty(t, GetPlanDate(ctx))
	assert.Empty(t, GetModuleID(ctx))
}

func TestContextHook(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Hook(ContextHook{})

	ctx := WithModuleID(WithPlanDate(context.Background(), "2026-08-29"), "leetcode")
	logger.Info().Ctx(ctx).Msg("regenerating")

	out := buf.String()
	assert.Contains(t, out, `"plan_date":"2026-08-29"`)
	assert.Contains(t, out, `"module_id":"leetcode"`)
}

func TestContextHook_DerivedLogger(t *testing.T) {
	var buf bytes.Buffer
	root := zerolog.New(&buf).Hook(ContextHook{})
	planner := root.With().Str("cmp", "planner").Logger()

	ctx := WithPlanDate(context.Background(), "2026-08-29")
	planner.Info().Ctx(ctx).Msg("plan regenerated")

	out := buf.String()
	assert.Contains(t, out, `"cmp":"planner"`)
	assert.Contains(t, out, `"plan_date":"2026-08-29"`)
}

func TestContextHook_NoContext(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Hook(ContextHook{})

	logger.Info().Msg("plain")

	out := buf.String()
	assert.NotContains(t, out, "plan_date")
	assert.NotContains(t, out, "module_id")
}
