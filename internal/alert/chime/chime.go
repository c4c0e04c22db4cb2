// Package chime plays a short alarm beep pattern on the local audio device.
package chime

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

const (
	// SampleRate is the PCM sample rate of the generated tone.
	SampleRate = 44100
	// bytesPerSample is the size of one signed 16-bit mono sample.
	bytesPerSample = 2
	// amplitude keeps the tone well below clipping.
	amplitude = 0.4 * math.MaxInt16
	// pollInterval is how often playback completion is checked.
	pollInterval = 10 * time.Millisecond
)

// The audio context can only be created once per process.
var (
	//nolint:gochecknoglobals // oto allows a single context per process.
	audioCtxOnce sync.Once
	//nolint:gochecknoglobals // See audioCtxOnce.
	audioCtx *oto.Context
	//nolint:gochecknoglobals // See audioCtxOnce.
	audioCtxErr error
)

// Pattern describes the beeps.
type Pattern struct {
	// Frequency is the tone pitch in Hz.
	Frequency float64
	// Beep is the duration of one beep.
	Beep time.Duration
	// Gap is the silence between beeps.
	Gap time.Duration
	// Count is the number of beeps.
	Count int
}

// DefaultPattern is four short 880 Hz beeps.
func DefaultPattern() Pattern {
	return Pattern{
		Frequency: 880,
		Beep:      200 * time.Millisecond,
		Gap:       150 * time.Millisecond,
		Count:     4,
	}
}

// Player plays a Pattern.
type Player struct {
	// pcm is the pre-rendered pattern.
	pcm []byte
}

// NewPlayer renders pattern once for repeated playback.
func NewPlayer(pattern Pattern) *Player {
	return &Player{
		pcm: Render(pattern),
	}
}

// Chime plays the pattern and blocks until it finishes or ctx is done.
func (p *Player) Chime(ctx context.Context) error {
	audio, err := audioContext()
	if err != nil {
		return err
	}

	player := audio.NewPlayer(bytes.NewReader(p.pcm))

	defer func() {
		_ = player.Close()
	}()

	player.Play()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()

			return ctx.Err()
		case <-ticker.C:
		}
	}

	return nil
}

// audioContext returns the shared audio context, creating it on first use.
func audioContext() (*oto.Context, error) {
	audioCtxOnce.Do(func() {
		options := &oto.NewContextOptions{
			SampleRate:   SampleRate,
			ChannelCount: 1,
			Format:       oto.FormatSignedInt16LE,
		}

		otoCtx, ready, err := oto.NewContext(options)
		if err != nil {
			audioCtxErr = fmt.Errorf("open audio device: %w", err)

			return
		}

		// Wait for the hardware audio devices to be ready.
		<-ready

		audioCtx = otoCtx
	})

	return audioCtx, audioCtxErr
}

// Render produces signed 16-bit little-endian mono PCM for pattern.
func Render(pattern Pattern) []byte {
	beepSamples := samples(pattern.Beep)
	gapSamples := samples(pattern.Gap)

	total := pattern.Count*beepSamples + max(pattern.Count-1, 0)*gapSamples
	pcm := make([]byte, 0, total*bytesPerSample)

	for beep := range pattern.Count {
		if beep > 0 {
			pcm = append(pcm, make([]byte, gapSamples*bytesPerSample)...)
		}

		for i := range beepSamples {
			phase := 2 * math.Pi * pattern.Frequency * float64(i) / SampleRate
			// Linear fade in/out over the first and last 5% avoids clicks.
			envelope := min(1, float64(i)/(0.05*float64(beepSamples)), float64(beepSamples-i)/(0.05*float64(beepSamples)))
			pcm = binary.LittleEndian.AppendUint16(pcm, uint16(int16(amplitude*envelope*math.Sin(phase))))
		}
	}

	return pcm
}

func samples(d time.Duration) int {
	return int(d.Seconds() * SampleRate)
}
