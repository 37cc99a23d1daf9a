// Package audiotree is the algebraic description of what should be
// audible: a value type built by the host once per tick and handed to
// the flattener. It has no behavior of its own beyond the constructors
// needed to build and normalize values.
package audiotree

import "sort"

// Source identifies a decoded buffer on the engine side. The host only
// ever obtains one from a successful load callback (see the loader
// package), so every Source referenced by a declared Audio tree is
// valid by construction.
type Source struct {
	BufferID int
	Duration float64 // seconds; zero if the engine didn't report one
}

// Kind tags the variant of an Audio value.
type Kind int

const (
	KindGroup Kind = iota
	KindFile
	KindOscillator
	KindEffect
)

// Waveform tags which waveform or noise color an oscillator node
// produces.
type Waveform int

const (
	Sine Waveform = iota
	Square
	Sawtooth
	Triangle
	WhiteNoise
	PinkNoise
	BrownNoise
)

// EffectKind tags which volume effect an Effect node applies.
type EffectKind int

const (
	ScaleVolumeEffect EffectKind = iota
	ScaleVolumeAtEffect
)

// Loop describes an in-buffer loop region, both ends in milliseconds.
type Loop struct {
	LoopStart float64
	LoopEnd   float64
}

// FileSettings carries the per-instance playback knobs for a File node.
type FileSettings struct {
	StartAt      float64 // ms offset into the buffer
	PlaybackRate float64
	Loop         *Loop
}

// DefaultFileSettings matches what Audio (no config) produces: start at
// the beginning, unit rate, no loop.
func DefaultFileSettings() FileSettings {
	return FileSettings{StartAt: 0, PlaybackRate: 1}
}

// VolumePoint is one (time, volume) sample of a ScaleVolumeAt envelope.
type VolumePoint struct {
	Time   int64 // ms since epoch
	Volume float64
}

// Audio is the tagged-union tree value. Only one of the Kind-specific
// field groups is meaningful for a given Kind; construct these only
// through the functions below, never by hand.
type Audio struct {
	Kind Kind

	// KindGroup
	Children []Audio

	// KindFile
	Source    Source
	StartTime int64
	File      FileSettings

	// KindOscillator
	Waveform  Waveform
	Frequency float64
	// StartTime shared with KindFile

	// KindEffect
	Effect      EffectKind
	ScaleBy     float64
	VolumeAtPts []VolumePoint
	Child       *Audio
}

// Silence is the empty group: nothing plays.
func Silence() Audio {
	return Audio{Kind: KindGroup}
}

// Group plays every child concurrently, preserving declaration order
// for tie-breaking during reconciliation.
func Group(children ...Audio) Audio {
	return Audio{Kind: KindGroup, Children: children}
}

// NewAudio builds a File node with default settings (start at 0, rate
// 1, no loop).
func NewAudio(source Source, startTime int64) Audio {
	return AudioWithConfig(DefaultFileSettings(), source, startTime)
}

// AudioWithConfig builds a File node with explicit settings.
func AudioWithConfig(settings FileSettings, source Source, startTime int64) Audio {
	return Audio{
		Kind:      KindFile,
		Source:    source,
		StartTime: startTime,
		File:      settings,
	}
}

func oscillator(wave Waveform, frequency float64, startTime int64) Audio {
	return Audio{Kind: KindOscillator, Waveform: wave, Frequency: frequency, StartTime: startTime}
}

func NewSine(frequency float64, startTime int64) Audio {
	return oscillator(Sine, frequency, startTime)
}

func NewSquare(frequency float64, startTime int64) Audio {
	return oscillator(Square, frequency, startTime)
}

func NewSawtooth(frequency float64, startTime int64) Audio {
	return oscillator(Sawtooth, frequency, startTime)
}

func NewTriangle(frequency float64, startTime int64) Audio {
	return oscillator(Triangle, frequency, startTime)
}

func NewWhiteNoise(startTime int64) Audio { return oscillator(WhiteNoise, 0, startTime) }
func NewPinkNoise(startTime int64) Audio  { return oscillator(PinkNoise, 0, startTime) }
func NewBrownNoise(startTime int64) Audio { return oscillator(BrownNoise, 0, startTime) }

// ScaleVolume multiplies every instance under child by factor, clamped
// to >= 0.
func ScaleVolume(factor float64, child Audio) Audio {
	if factor < 0 {
		factor = 0
	}
	return Audio{Kind: KindEffect, Effect: ScaleVolumeEffect, ScaleBy: factor, Child: &child}
}

// ScaleVolumeAt prepends a volume envelope to every instance under
// child. Point volumes are clamped to >= 0 and points are sorted by
// ascending time. An empty slice is replaced by the safe default point
// (time=0, volume=1).
func ScaleVolumeAt(points []VolumePoint, child Audio) Audio {
	normalized := normalizePoints(points)
	return Audio{Kind: KindEffect, Effect: ScaleVolumeAtEffect, VolumeAtPts: normalized, Child: &child}
}

func normalizePoints(points []VolumePoint) []VolumePoint {
	if len(points) == 0 {
		return []VolumePoint{{Time: 0, Volume: 1}}
	}
	out := make([]VolumePoint, len(points))
	copy(out, points)
	for i := range out {
		if out[i].Volume < 0 {
			out[i].Volume = 0
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}
