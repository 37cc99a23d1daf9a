package reconciler

import (
	"github.com/declarative-audio/audiotree/internal/audiotree"
	"github.com/declarative-audio/audiotree/internal/flatten"
)

// soundIdentityKey is (source, startTime, startAt): a sound with the
// same buffer starting at the same wall-clock instant, from the same
// offset, is "the same sound" even if volume/loop/rate changed.
type soundIdentityKey struct {
	Source    audiotree.Source
	StartTime int64
	StartAt   float64
}

func soundIdentity(s flatten.Sound) any {
	return soundIdentityKey{Source: s.Source, StartTime: s.StartTime, StartAt: s.StartAt}
}

func soundsEqual(a, b flatten.Sound) bool {
	return a.Source == b.Source &&
		a.StartTime == b.StartTime &&
		a.StartAt == b.StartAt &&
		a.Volume == b.Volume &&
		a.PlaybackRate == b.PlaybackRate &&
		loopsEqual(a.Loop, b.Loop) &&
		timelinesEqual(a.VolumeTimelines, b.VolumeTimelines)
}

func loopsEqual(a, b *audiotree.Loop) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func timelinesEqual(a, b [][]audiotree.VolumePoint) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				return false
			}
		}
	}
	return true
}

// soundMutations emits commands in field-table order: volume, loop,
// playbackRate, volumeTimelines (spec §4.3; order matters, see S6).
func soundMutations(id NodeGroupID, oldV, newV flatten.Sound) []Command {
	var cmds []Command
	if oldV.Volume != newV.Volume {
		cmds = append(cmds, Command{Action: ActionSetVolume, NodeGroupID: id, Volume: newV.Volume})
	}
	if !loopsEqual(oldV.Loop, newV.Loop) {
		cmds = append(cmds, Command{Action: ActionSetLoopConfig, NodeGroupID: id, Loop: newV.Loop})
	}
	if oldV.PlaybackRate != newV.PlaybackRate {
		cmds = append(cmds, Command{Action: ActionSetPlaybackRate, NodeGroupID: id, PlaybackRate: newV.PlaybackRate})
	}
	if !timelinesEqual(oldV.VolumeTimelines, newV.VolumeTimelines) {
		cmds = append(cmds, Command{Action: ActionSetVolumeAt, NodeGroupID: id, VolumeTimelines: newV.VolumeTimelines})
	}
	return cmds
}

func soundStart(id NodeGroupID, v flatten.Sound) Command {
	return Command{
		Action:          ActionStartSound,
		NodeGroupID:     id,
		BufferID:        v.Source.BufferID,
		StartTime:       v.StartTime,
		StartAt:         v.StartAt,
		Volume:          v.Volume,
		VolumeTimelines: v.VolumeTimelines,
		Loop:            v.Loop,
		PlaybackRate:    v.PlaybackRate,
	}
}
