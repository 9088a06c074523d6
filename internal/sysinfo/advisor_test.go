// SPDX-License-Identifier: MIT

package sysinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultAdvice(t *testing.T) {
	advice := DefaultAdvice()
	assert.Equal(t, 0, advice.Threads)
	assert.Equal(t, "medium", advice.Preset)
}

func TestDetect_StaysWithinBounds(t *testing.T) {
	advice := Detect()

	assert.GreaterOrEqual(t, advice.Threads, 0)
	assert.LessOrEqual(t, advice.Threads, 8)
	assert.Contains(t, []string{"medium", "fast"}, advice.Preset)
}
