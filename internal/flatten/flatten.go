// Package flatten collapses an audiotree.Audio value into the two
// normalized instance lists the reconciler diffs against its previous
// state. Flattening is total, deterministic, and allocates no node
// group ids — that's the reconciler's job.
package flatten

import "github.com/declarative-audio/audiotree/internal/audiotree"

// Sound is one normalized file-playback instance.
type Sound struct {
	Source          audiotree.Source
	StartTime       int64
	StartAt         float64
	Volume          float64
	VolumeTimelines [][]audiotree.VolumePoint
	Loop            *audiotree.Loop
	PlaybackRate    float64
}

// Oscillator is one normalized oscillator instance.
type Oscillator struct {
	Waveform        audiotree.Waveform
	Frequency       float64
	StartTime       int64
	Volume          float64
	VolumeTimelines [][]audiotree.VolumePoint
}

// Flatten walks tree and returns the sounds and oscillators it
// declares, in declaration order.
func Flatten(tree audiotree.Audio) (sounds []Sound, oscillators []Oscillator) {
	return flatten(tree, 1, nil)
}

func flatten(tree audiotree.Audio, volume float64, timelines [][]audiotree.VolumePoint) ([]Sound, []Oscillator) {
	switch tree.Kind {
	case audiotree.KindGroup:
		var sounds []Sound
		var oscillators []Oscillator
		for _, child := range tree.Children {
			s, o := flatten(child, volume, timelines)
			sounds = append(sounds, s...)
			oscillators = append(oscillators, o...)
		}
		return sounds, oscillators

	case audiotree.KindFile:
		return []Sound{{
			Source:          tree.Source,
			StartTime:       tree.StartTime,
			StartAt:         tree.File.StartAt,
			Volume:          volume,
			VolumeTimelines: timelines,
			Loop:            tree.File.Loop,
			PlaybackRate:    tree.File.PlaybackRate,
		}}, nil

	case audiotree.KindOscillator:
		return nil, []Oscillator{{
			Waveform:        tree.Waveform,
			Frequency:       tree.Frequency,
			StartTime:       tree.StartTime,
			Volume:          volume,
			VolumeTimelines: timelines,
		}}

	case audiotree.KindEffect:
		if tree.Child == nil {
			return nil, nil
		}
		switch tree.Effect {
		case audiotree.ScaleVolumeEffect:
			return flatten(*tree.Child, volume*tree.ScaleBy, timelines)
		case audiotree.ScaleVolumeAtEffect:
			next := make([][]audiotree.VolumePoint, 0, len(timelines)+1)
			next = append(next, tree.VolumeAtPts)
			next = append(next, timelines...)
			return flatten(*tree.Child, volume, next)
		}
	}
	return nil, nil
}
