package valuation

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const DefaultStageDelay = 600 * time.Millisecond

// StageMessage is the loading caption shown while a stage is active.
func StageMessage(s Status) string {
	switch s {
	case StatusScanningGeo:
		return "衛星圖資掃描與建模..."
	case StatusCheckingPolicy:
		return "土地法規與饋線檢核..."
	case StatusCalculatingFinance:
		return "多重情境財務模擬..."
	case StatusComplete:
		return "分析完成"
	case StatusError:
		return "分析流程中斷"
	default:
		return ""
	}
}

type ProgressFn func(status Status, message string)

type Result struct {
	Report      Report
	Source      Source
	StartedAt   time.Time
	CompletedAt time.Time
}

// Sequencer paces the report generation behind three fixed-delay stages. The
// delays only keep the loading animation visible; the generator runs
// concurrently from the first stage on.
type Sequencer struct {
	gen   Generator
	delay time.Duration
	wait  func(ctx context.Context, d time.Duration) error
}

func NewSequencer(gen Generator, delay time.Duration) *Sequencer {
	if delay < 0 {
		delay = 0
	}
	return &Sequencer{gen: gen, delay: delay, wait: sleepCtx}
}

func (s *Sequencer) Run(ctx context.Context, req Request) (Result, error) {
	return s.RunWithProgress(ctx, req, nil)
}

func (s *Sequencer) RunWithProgress(ctx context.Context, req Request, progress ProgressFn) (Result, error) {
	res := Result{StartedAt: time.Now()}
	if err := ValidateRequest(req); err != nil {
		return res, err
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "valuation.sequence")
	defer span.End()

	type generated struct {
		report Report
		source Source
	}
	done := make(chan generated, 1)

	emit(progress, StatusScanningGeo)
	go func() {
		r, src := s.gen.Generate(ctx, req)
		done <- generated{report: r, source: src}
	}()

	for _, next := range []Status{StatusCheckingPolicy, StatusCalculatingFinance} {
		if err := s.wait(ctx, s.delay); err != nil {
			emit(progress, StatusError)
			return res, err
		}
		emit(progress, next)
	}
	if err := s.wait(ctx, s.delay); err != nil {
		emit(progress, StatusError)
		return res, err
	}

	select {
	case <-ctx.Done():
		emit(progress, StatusError)
		return res, ctx.Err()
	case g := <-done:
		res.Report = g.report
		res.Source = g.source
	}
	res.CompletedAt = time.Now()
	span.SetAttributes(attribute.String("valuation.source", string(res.Source)))
	emit(progress, StatusComplete)
	return res, nil
}

func emit(progress ProgressFn, status Status) {
	if progress != nil {
		progress(status, StageMessage(status))
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
