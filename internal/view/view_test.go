package view

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/declarative-audio/audiotree/internal/audiotree"
	"github.com/declarative-audio/audiotree/internal/flatten"
	"github.com/declarative-audio/audiotree/internal/reconciler"
)

func TestRenderStateEmpty(t *testing.T) {
	out := RenderState(reconciler.NewState(), DefaultStyles())
	assert.Contains(t, out, "(silent)")
}

func TestRenderStateListsSoundsAndOscillators(t *testing.T) {
	state := reconciler.NewState()
	state.Sounds[0] = flatten.Sound{Source: audiotree.Source{BufferID: 5}, Volume: 0.5}
	state.Oscillators[1] = flatten.Oscillator{Waveform: audiotree.Sine, Frequency: 440, Volume: 1}

	out := RenderState(state, DefaultStyles())
	assert.Contains(t, out, "sound")
	assert.Contains(t, out, "osc")
	assert.Contains(t, out, "440.0Hz")
}

func TestRenderVolumeCurveEmptyPoints(t *testing.T) {
	assert.Equal(t, "", RenderVolumeCurve(10, 4, nil))
}

func TestRenderVolumeCurveProducesBrailleGrid(t *testing.T) {
	points := []audiotree.VolumePoint{{Time: 0, Volume: 0}, {Time: 1000, Volume: 1}}
	out := RenderVolumeCurve(8, 2, points)
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 2)
	for _, line := range lines {
		assert.Equal(t, 8, len([]rune(line)))
	}
}

func TestRenderVolumeCurveClampsAboveOne(t *testing.T) {
	points := []audiotree.VolumePoint{{Time: 0, Volume: 5}}
	assert.NotPanics(t, func() {
		RenderVolumeCurve(4, 2, points)
	})
}
