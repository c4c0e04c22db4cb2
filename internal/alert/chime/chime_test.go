package chime

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestRender_Length verifies beeps and gaps add up to the expected sample count.
func TestRender_Length(t *testing.T) {
	t.Parallel()

	pattern := Pattern{
		Frequency: 440,
		Beep:      100 * time.Millisecond,
		Gap:       50 * time.Millisecond,
		Count:     3,
	}

	pcm := Render(pattern)

	wantSamples := 3*4410 + 2*2205
	require.Len(t, pcm, wantSamples*bytesPerSample)
}

// TestRender_GapIsSilent checks that samples between beeps are zero and beeps are not.
func TestRender_GapIsSilent(t *testing.T) {
	t.Parallel()

	pattern := DefaultPattern()
	pcm := Render(pattern)

	beepSamples := samples(pattern.Beep)
	gapSamples := samples(pattern.Gap)

	sampleAt := func(i int) int16 {
		return int16(binary.LittleEndian.Uint16(pcm[i*bytesPerSample:]))
	}

	for i := beepSamples; i < beepSamples+gapSamples; i++ {
		require.Zero(t, sampleAt(i))
	}

	var peak int16
	for i := range beepSamples {
		peak = max(peak, sampleAt(i))
	}

	require.Greater(t, float64(peak), amplitude/2)
	require.LessOrEqual(t, float64(peak), amplitude)
}

// TestRender_Empty returns no audio for an empty pattern.
func TestRender_Empty(t *testing.T) {
	t.Parallel()

	require.Empty(t, Render(Pattern{}))
}
