package valuation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const tracerName = "github.com/joelkehle/b2g-transformer/internal/valuation"

// Generator produces a report for a request. It never fails: any problem with
// the live path is absorbed by returning the fallback report.
type Generator interface {
	Generate(ctx context.Context, req Request) (Report, Source)
}

type FallbackGenerator struct{}

func (FallbackGenerator) Generate(context.Context, Request) (Report, Source) {
	return FallbackReport(), SourceFallback
}

type LLMGenerator struct {
	caller  LLMCaller
	timeout time.Duration
	logger  zerolog.Logger
}

func NewLLMGenerator(caller LLMCaller, timeout time.Duration, logger zerolog.Logger) *LLMGenerator {
	return &LLMGenerator{caller: caller, timeout: timeout, logger: logger}
}

// NewGenerator picks the live generator when a caller is available.
func NewGenerator(caller LLMCaller, timeout time.Duration, logger zerolog.Logger) Generator {
	if caller == nil {
		logger.Warn().Msg("no llm credential configured, valuation reports use fallback data")
		return FallbackGenerator{}
	}
	return NewLLMGenerator(caller, timeout, logger)
}

func (g *LLMGenerator) Generate(ctx context.Context, req Request) (Report, Source) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "valuation.generate")
	defer span.End()

	report, err := g.generate(ctx, req)
	if err != nil {
		g.logger.Error().Err(err).Str("location", req.Location).Msg("valuation llm failed, falling back to canned report")
		span.RecordError(err)
		span.SetStatus(codes.Error, "fallback")
		span.SetAttributes(attribute.String("valuation.source", string(SourceFallback)))
		return FallbackReport(), SourceFallback
	}
	span.SetAttributes(
		attribute.String("valuation.source", string(SourceLive)),
		attribute.Int("valuation.scenarios", len(report.Scenarios)),
	)
	return report, SourceLive
}

func (g *LLMGenerator) generate(ctx context.Context, req Request) (Report, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	raw, err := g.caller.GenerateJSON(ctx, Prompt(req)+"\n\nRespond with only valid JSON matching the schema.")
	if err != nil {
		return Report{}, fmt.Errorf("transport failure: %w", err)
	}
	return DecodeReport(raw)
}

var errEmptyResponse = errors.New("empty response")

// DecodeReport parses a model reply. Only decode failures are rejected; the
// content itself is trusted as returned.
func DecodeReport(raw string) (Report, error) {
	clean := stripCodeFences(raw)
	if strings.TrimSpace(clean) == "" {
		return Report{}, errEmptyResponse
	}
	var r Report
	if err := json.Unmarshal([]byte(clean), &r); err != nil {
		return Report{}, fmt.Errorf("json parse: %w", err)
	}
	return r, nil
}
