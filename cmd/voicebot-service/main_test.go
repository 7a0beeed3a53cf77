package main

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/logger"
)

var errListenFailed = errors.New("listen failed")

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	testLogger, err := logger.New(t.TempDir(), "main-test.log")
	require.NoError(t, err)

	return testLogger
}

// startFakeWorker mimics the speech worker goroutine: it blocks on the
// context and reports on workerDone once stopped.
func startFakeWorker(ctx context.Context) (<-chan error, <-chan struct{}) {
	workerDone := make(chan error, 1)
	stopped := make(chan struct{})

	go func() {
		<-ctx.Done()
		close(stopped)
		workerDone <- nil
	}()

	return workerDone, stopped
}

func TestAwaitShutdown_ServerErrorStopsWorker(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	workerDone, workerStopped := startFakeWorker(ctx)

	serverDone := make(chan error, 1)
	serverDone <- errListenFailed

	err := awaitShutdown(ctx, cancel, &http.Server{}, serverDone, workerDone, newTestLogger(t))
	require.ErrorIs(t, err, errListenFailed)

	select {
	case <-workerStopped:
	case <-time.After(time.Second):
		t.Fatal("worker was not stopped before awaitShutdown returned")
	}
}

func TestAwaitShutdown_SignalDrainsCleanly(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	workerDone, workerStopped := startFakeWorker(ctx)
	serverDone := make(chan error, 1)

	cancel()

	err := awaitShutdown(ctx, cancel, &http.Server{}, serverDone, workerDone, newTestLogger(t))
	require.NoError(t, err)

	select {
	case <-workerStopped:
	case <-time.After(time.Second):
		t.Fatal("worker was not stopped on the signal path")
	}
}

func TestAwaitShutdown_WorkerFailureSurfaces(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	workerDone := make(chan error, 1)
	workerDone <- errListenFailed

	serverDone := make(chan error, 1)
	serverDone <- http.ErrServerClosed

	err := awaitShutdown(ctx, cancel, &http.Server{}, serverDone, workerDone, newTestLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "speech worker failed")
}
