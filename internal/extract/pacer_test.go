// SPDX-License-Identifier: MIT

package extract

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacer_NilIsNoop(t *testing.T) {
	var p *Pacer
	assert.NoError(t, p.Wait(context.Background()))
}

func TestPacer_BurstThenBlocks(t *testing.T) {
	p := NewPacer(60, 1)

	// First slot is immediately available.
	start := time.Now()
	require.NoError(t, p.Wait(context.Background()))
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	// A drained pacer honors context cancellation instead of waiting
	// out the next slot.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.Error(t, p.Wait(ctx))
}
