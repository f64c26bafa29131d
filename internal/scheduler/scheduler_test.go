package scheduler

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"climate-platform/internal/services"
	"climate-platform/pkg/logging"
)

type fakeRunner struct {
	mu    sync.Mutex
	opts  []services.IngestionOptions
	calls chan struct{}
	err   error
}

func (f *fakeRunner) IngestCatalog(ctx context.Context, opts services.IngestionOptions) (*services.IngestionResult, error) {
	f.mu.Lock()
	f.opts = append(f.opts, opts)
	f.mu.Unlock()

	select {
	case f.calls <- struct{}{}:
	default:
	}
	if f.err != nil {
		return nil, f.err
	}
	return &services.IngestionResult{SucceededDataSets: 1}, nil
}

func testLogger() *logging.StructuredLogger {
	logger := logging.NewStructuredLogger("climate-test", "test", logging.DebugLevel)
	logger.SetOutput(io.Discard)
	return logger
}

func TestScheduler_RunsImmediately(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "successful run"},
		{name: "failed run", err: errors.New("database down")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{calls: make(chan struct{}, 1), err: tt.err}
			opts := services.IngestionOptions{BatchSize: 500, DataSetIDs: []string{"tmax"}}

			s := New(runner, opts, time.Hour, time.Minute, testLogger())
			require.NoError(t, s.Start())
			defer s.Stop()

			select {
			case <-runner.calls:
			case <-time.After(5 * time.Second):
				t.Fatal("ingestion did not run")
			}

			runner.mu.Lock()
			defer runner.mu.Unlock()
			require.NotEmpty(t, runner.opts)
			assert.Equal(t, opts, runner.opts[0])
		})
	}
}

func TestScheduler_RejectsNonPositiveInterval(t *testing.T) {
	s := New(&fakeRunner{calls: make(chan struct{}, 1)}, services.IngestionOptions{}, 0, 0, testLogger())
	assert.Error(t, s.Start())
}
