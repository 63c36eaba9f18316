package server

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeServer struct {
	started, stopped atomic.Bool
	startErr         error
}

func (s *fakeServer) Start() error {
	s.started.Store(true)
	return s.startErr
}

func (s *fakeServer) Stop(context.Context) error {
	s.stopped.Store(true)
	return nil
}

type fakeScheduler struct {
	started, stopped atomic.Bool
}

func (s *fakeScheduler) Start() { s.started.Store(true) }
func (s *fakeScheduler) Stop()  { s.stopped.Store(true) }

func TestRunStopsOnContextDone(t *testing.T) {
	srv, sched := &fakeServer{}, &fakeScheduler{}
	app := New(srv, sched, nil, WithShutdownTimeout(time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	require.Eventually(t, srv.started.Load, time.Second, 5*time.Millisecond)
	assert.True(t, sched.started.Load())
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.True(t, srv.stopped.Load())
	assert.True(t, sched.stopped.Load())
}

func TestRunWarmupFailureAbortsStartup(t *testing.T) {
	srv, sched := &fakeServer{}, &fakeScheduler{}
	app := New(srv, sched, nil, WithWarmup(func(context.Context) error {
		return errors.New("catalog missing")
	}))

	err := app.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog missing")
	assert.False(t, srv.started.Load())
	assert.False(t, sched.started.Load())
}

func TestRunStartFailure(t *testing.T) {
	srv, sched := &fakeServer{startErr: errors.New("port in use")}, &fakeScheduler{}
	app := New(srv, sched, nil)

	err := app.Run(context.Background())
	require.Error(t, err)
	assert.True(t, sched.stopped.Load())
}
