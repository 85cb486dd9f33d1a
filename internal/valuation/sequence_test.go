package valuation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	report Report
	source Source
	block  chan struct{}
}

func (g stubGenerator) Generate(ctx context.Context, _ Request) (Report, Source) {
	if g.block != nil {
		select {
		case <-g.block:
		case <-ctx.Done():
		}
	}
	return g.report, g.source
}

type recorder struct {
	mu       sync.Mutex
	statuses []Status
	messages []string
}

func (r *recorder) progress(s Status, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, s)
	r.messages = append(r.messages, msg)
}

func TestSequencerEmitsStagesInOrder(t *testing.T) {
	seq := NewSequencer(stubGenerator{report: FallbackReport(), source: SourceFallback}, 0)
	rec := &recorder{}

	res, err := seq.RunWithProgress(context.Background(), testRequest(), rec.progress)
	require.NoError(t, err)
	assert.Equal(t, StageOrder, rec.statuses)
	assert.Equal(t, "衛星圖資掃描與建模...", rec.messages[0])
	assert.Equal(t, SourceFallback, res.Source)
	assert.Equal(t, "B", res.Report.BestScenarioID)
	assert.False(t, res.CompletedAt.Before(res.StartedAt))
}

func TestSequencerWaitsBetweenStages(t *testing.T) {
	seq := NewSequencer(stubGenerator{report: FallbackReport(), source: SourceLive}, time.Second)
	var waits []time.Duration
	seq.wait = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	_, err := seq.Run(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{time.Second, time.Second, time.Second}, waits)
}

func TestSequencerHoldsCompleteUntilGeneratorReturns(t *testing.T) {
	block := make(chan struct{})
	seq := NewSequencer(stubGenerator{report: FallbackReport(), source: SourceLive, block: block}, 0)
	rec := &recorder{}

	done := make(chan error, 1)
	go func() {
		_, err := seq.RunWithProgress(context.Background(), testRequest(), rec.progress)
		done <- err
	}()

	require.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return len(rec.statuses) == 3
	}, time.Second, 5*time.Millisecond)
	select {
	case <-done:
		t.Fatal("sequence completed before generator returned")
	case <-time.After(20 * time.Millisecond):
	}

	close(block)
	require.NoError(t, <-done)
	assert.Equal(t, StatusComplete, rec.statuses[len(rec.statuses)-1])
}

func TestSequencerRejectsMissingLocation(t *testing.T) {
	seq := NewSequencer(FallbackGenerator{}, 0)
	rec := &recorder{}

	_, err := seq.RunWithProgress(context.Background(), Request{Location: "  "}, rec.progress)
	assert.ErrorIs(t, err, ErrLocationRequired)
	assert.Empty(t, rec.statuses)
}

func TestSequencerCancelledEndsInError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	seq := NewSequencer(FallbackGenerator{}, time.Hour)
	rec := &recorder{}
	seq.wait = func(ctx context.Context, d time.Duration) error {
		cancel()
		return sleepCtx(ctx, d)
	}

	_, err := seq.RunWithProgress(ctx, testRequest(), rec.progress)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []Status{StatusScanningGeo, StatusError}, rec.statuses)
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusComplete.Terminal())
	assert.True(t, StatusError.Terminal())
	assert.False(t, StatusCheckingPolicy.Terminal())
	assert.False(t, StatusIdle.Terminal())
	assert.Empty(t, StageMessage(StatusIdle))
}

func TestNewSequencerClampsNegativeDelay(t *testing.T) {
	assert.Zero(t, NewSequencer(FallbackGenerator{}, -time.Second).delay)
}
