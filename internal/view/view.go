// Package view renders a reconciler.State for a terminal, the same
// role the tracker's internal/views package played for its own
// editing grid: a pure function from state to a string, using
// lipgloss for layout and go-colorful/termenv for level-dependent
// color, with no knowledge of how that state came to be.
package view

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/termenv"

	"github.com/declarative-audio/audiotree/internal/audiotree"
	"github.com/declarative-audio/audiotree/internal/flatten"
	"github.com/declarative-audio/audiotree/internal/music"
	"github.com/declarative-audio/audiotree/internal/reconciler"
)

// volumeCurveWidth/Height size the inline Braille sparkline drawn under
// an instance's line when it carries a volume envelope.
const (
	volumeCurveWidth  = 24
	volumeCurveHeight = 1
)

// Styles bundles the lipgloss styles used when rendering a state. Zero
// value is unusable; use DefaultStyles.
type Styles struct {
	Header     lipgloss.Style
	Label      lipgloss.Style
	Sound      lipgloss.Style
	Oscillator lipgloss.Style
	Dim        lipgloss.Style
}

// DefaultStyles returns the palette used by cmd/audiodemo.
func DefaultStyles() Styles {
	return Styles{
		Header:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")),
		Label:      lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Sound:      lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		Oscillator: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Dim:        lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// RenderState renders every currently running sound and oscillator as
// one line each (followed by a sparkline line when the instance has a
// volume envelope), sorted by NodeGroupID so the display is stable
// across ticks that don't touch a given instance.
func RenderState(state reconciler.State, styles Styles) string {
	var b strings.Builder
	b.WriteString(styles.Header.Render(fmt.Sprintf("node groups (%d sounds, %d oscillators)", len(state.Sounds), len(state.Oscillators))))
	b.WriteByte('\n')

	ids := make([]reconciler.NodeGroupID, 0, len(state.Sounds)+len(state.Oscillators))
	for id := range state.Sounds {
		ids = append(ids, id)
	}
	for id := range state.Oscillators {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if s, ok := state.Sounds[id]; ok {
			b.WriteString(renderSoundLine(id, s, styles))
			b.WriteByte('\n')
			b.WriteString(renderVolumeCurveLine(s.VolumeTimelines, styles))
			continue
		}
		o := state.Oscillators[id]
		b.WriteString(renderOscillatorLine(id, o, styles))
		b.WriteByte('\n')
		b.WriteString(renderVolumeCurveLine(o.VolumeTimelines, styles))
	}
	if len(ids) == 0 {
		b.WriteString(styles.Dim.Render("(silent)"))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderSoundLine(id reconciler.NodeGroupID, s flatten.Sound, styles Styles) string {
	return styles.Sound.Render(fmt.Sprintf("#%-3d sound  vol=%s  buffer=%d", id, levelBar(s.Volume, 10), s.Source.BufferID))
}

// renderVolumeCurveLine draws the instance's innermost volume envelope
// (the first applied ScaleVolumeAt, if any) as an indented Braille
// sparkline, mirroring the way the tracker's mixer drew a level meter
// under each track's label. Instances with no envelope draw nothing.
func renderVolumeCurveLine(timelines [][]audiotree.VolumePoint, styles Styles) string {
	if len(timelines) == 0 || len(timelines[0]) == 0 {
		return ""
	}
	curve := RenderVolumeCurve(volumeCurveWidth, volumeCurveHeight, timelines[0])
	if curve == "" {
		return ""
	}
	return styles.Dim.Render("       "+curve) + "\n"
}

func renderOscillatorLine(id reconciler.NodeGroupID, o flatten.Oscillator, styles Styles) string {
	note := music.MidiToNoteName(music.FrequencyToMIDI(o.Frequency))
	return styles.Oscillator.Render(fmt.Sprintf("#%-3d osc    vol=%s  %7.1fHz (%s)", id, levelBar(o.Volume, 10), o.Frequency, note))
}

// levelBar renders volume as a run of Unicode block characters, colored
// from dim gray at 0 to white at 1 via a Luv-space blend, the same
// color-interpolation and termenv-string-wrapping idiom the tracker's
// mixer level meter used for its dB bars.
func levelBar(volume float64, width int) string {
	if volume < 0 {
		volume = 0
	}
	filled := int(math.Round(volume * float64(width)))
	if filled > width {
		filled = width
	}

	low, _ := colorful.Hex("#404040")
	high, _ := colorful.Hex("#FFFFFF")
	profile := termenv.ColorProfile()

	var b strings.Builder
	for i := 0; i < width; i++ {
		if i >= filled {
			b.WriteString(termenv.String("░").Foreground(profile.Color("8")).String())
			continue
		}
		t := float64(i) / float64(maxInt(width-1, 1))
		color := low.BlendLuv(high, t)
		b.WriteString(termenv.String("█").Foreground(profile.Color(color.Hex())).String())
	}
	return b.String()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
