package reconciler

import "github.com/declarative-audio/audiotree/internal/flatten"

// oscillatorIdentityKey is just startTime: two oscillators started at
// the exact same instant are not individually distinguishable (see S4
// in spec.md §8 — this is intentional, not a bug).
type oscillatorIdentityKey struct {
	StartTime int64
}

func oscillatorIdentity(o flatten.Oscillator) any {
	return oscillatorIdentityKey{StartTime: o.StartTime}
}

func oscillatorsEqual(a, b flatten.Oscillator) bool {
	return a.Waveform == b.Waveform &&
		a.Frequency == b.Frequency &&
		a.StartTime == b.StartTime &&
		a.Volume == b.Volume &&
		timelinesEqual(a.VolumeTimelines, b.VolumeTimelines)
}

// oscillatorMutations emits volume before volumeTimelines; loop and
// playbackRate don't apply to oscillators.
func oscillatorMutations(id NodeGroupID, oldV, newV flatten.Oscillator) []Command {
	var cmds []Command
	if oldV.Volume != newV.Volume {
		cmds = append(cmds, Command{Action: ActionSetVolume, NodeGroupID: id, Volume: newV.Volume})
	}
	if !timelinesEqual(oldV.VolumeTimelines, newV.VolumeTimelines) {
		cmds = append(cmds, Command{Action: ActionSetVolumeAt, NodeGroupID: id, VolumeTimelines: newV.VolumeTimelines})
	}
	return cmds
}

func oscillatorStart(id NodeGroupID, v flatten.Oscillator) Command {
	return Command{
		Action:          ActionStartOscillator,
		NodeGroupID:     id,
		Waveform:        v.Waveform,
		Frequency:       v.Frequency,
		StartTime:       v.StartTime,
		Volume:          v.Volume,
		VolumeTimelines: v.VolumeTimelines,
	}
}
