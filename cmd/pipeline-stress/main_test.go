package main

import (
	"bytes"
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/plus3/renderworld/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestRunProducesReport(t *testing.T) {
	for _, writeBack := range []bool{false, true} {
		cfg := config.Defaults()
		cfg.Stress.Entities = 200
		cfg.Stress.Systems = 3
		cfg.Stress.Duration = 50 * time.Millisecond
		cfg.Pipeline.Workers = 2
		cfg.Pipeline.QueueWriteBack = writeBack

		report, err := run(context.Background(), cfg, zaptest.NewLogger(t), rand.New(rand.NewSource(7)))
		require.NoError(t, err)

		assert.Positive(t, report.TotalFrames)
		assert.Equal(t, 0, report.Pipeline.World.TotalEntityCount)
		assert.Positive(t, report.DrawCalls)
		assert.GreaterOrEqual(t, report.Instances, report.DrawCalls)

		expectedScratch := 1
		if writeBack {
			expectedScratch = 2
		}
		assert.Equal(t, expectedScratch, report.Pipeline.ScratchCreated)

		var out bytes.Buffer
		require.NoError(t, report.Generate(&out))
		assert.Contains(t, out.String(), "| Extract |")
		assert.Contains(t, out.String(), "movement(x1.0)")
	}
}
