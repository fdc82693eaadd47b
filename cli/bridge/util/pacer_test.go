package util

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPacerSpacesRequests(t *testing.T) {
	p := NewPacer(50 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		assert.NoError(t, p.Wait(ctx))
	}

	// The first call passes immediately, the next two wait one interval each.
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestPacerDisabled(t *testing.T) {
	p := NewPacer(0)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 100; i++ {
		assert.NoError(t, p.Wait(ctx))
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestPacerHonoursCancellation(t *testing.T) {
	p := NewPacer(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	assert.NoError(t, p.Wait(ctx))
	cancel()
	assert.Error(t, p.Wait(ctx))
}
