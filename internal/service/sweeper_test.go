package service_test

import (
	"context"
	"testing"
	"time"

	"linkcycle/internal/service"
	"linkcycle/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSweeper_ReclaimsAtStartup(t *testing.T) {
	svc, _, clk := newTestService(t, &seqAllocator{codes: []string{"abc123"}})

	result, err := svc.Shorten(context.Background(), "https://example.com/a", false)
	require.NoError(t, err)
	clk.Advance(31 * 24 * time.Hour)

	sweeper := service.NewSweeper(svc, time.Hour, zap.NewNop().Sugar())
	sweeper.Start()
	defer sweeper.Stop()

	assert.Eventually(t, func() bool {
		_, err := svc.Resolve(context.Background(), result.Code)
		return store.IsNotFound(err)
	}, 2*time.Second, 10*time.Millisecond, "startup sweep reclaims stale codes")
}

func TestSweeper_PeriodicCycles(t *testing.T) {
	svc, _, clk := newTestService(t, &seqAllocator{codes: []string{"abc123"}})

	sweeper := service.NewSweeper(svc, 20*time.Millisecond, zap.NewNop().Sugar())
	sweeper.Start()
	defer sweeper.Stop()

	// Create after the startup sweep, then age it; only a later cycle
	// can reclaim it.
	result, err := svc.Shorten(context.Background(), "https://example.com/a", false)
	require.NoError(t, err)
	clk.Advance(31 * 24 * time.Hour)

	assert.Eventually(t, func() bool {
		_, err := svc.Resolve(context.Background(), result.Code)
		return store.IsNotFound(err)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSweeper_StopWaitsForLoop(t *testing.T) {
	svc, _, _ := newTestService(t, &seqAllocator{codes: []string{"abc123"}})

	sweeper := service.NewSweeper(svc, time.Hour, zap.NewNop().Sugar())
	sweeper.Start()

	done := make(chan struct{})
	go func() {
		sweeper.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
}
