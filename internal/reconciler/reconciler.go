// Package reconciler is the declarative-audio diffing engine: given the
// previously running node groups and a freshly flattened audio tree, it
// computes the minimal, ordered set of imperative commands that bring
// the engine's playing set in line with the declaration, and returns
// the state those commands produce.
package reconciler

import (
	"sort"

	"github.com/declarative-audio/audiotree/internal/audiotree"
	"github.com/declarative-audio/audiotree/internal/flatten"
)

// NodeGroupID is the stable handle for one running sound or oscillator
// instance across ticks. Values are assigned by State.Counter and are
// never reused within a process lifetime.
type NodeGroupID int64

// Action names the seven commands the reconciler can emit. These are
// the exact wire action strings from the command schema; the codec
// package serializes them verbatim.
type Action string

const (
	ActionStartSound      Action = "startSound"
	ActionStopSound       Action = "stopSound"
	ActionSetVolume       Action = "setVolume"
	ActionSetVolumeAt     Action = "setVolumeAt"
	ActionSetLoopConfig   Action = "setLoopConfig"
	ActionSetPlaybackRate Action = "setPlaybackRate"
	ActionStartOscillator Action = "startOscillator"
)

// Command is a tagged record; only the fields relevant to Action are
// meaningful. This is the shared shape between the reconciler (which
// produces commands) and the codec (which serializes them).
type Command struct {
	Action      Action
	NodeGroupID NodeGroupID

	// startSound
	BufferID     int
	StartTime    int64
	StartAt      float64
	Loop         *audiotree.Loop
	PlaybackRate float64

	// startOscillator
	Waveform  audiotree.Waveform
	Frequency float64

	// setVolume / startSound / startOscillator
	Volume float64

	// setVolumeAt / startSound / startOscillator
	VolumeTimelines [][]audiotree.VolumePoint
}

// State is the reconciler's entire memory: the two instance maps and
// the shared, monotonically increasing id counter they're drawn from.
type State struct {
	Sounds      map[NodeGroupID]flatten.Sound
	Oscillators map[NodeGroupID]flatten.Oscillator
	Counter     NodeGroupID
}

// NewState returns an empty reconciler state, as at process start.
func NewState() State {
	return State{
		Sounds:      make(map[NodeGroupID]flatten.Sound),
		Oscillators: make(map[NodeGroupID]flatten.Oscillator),
	}
}

// Reconcile diffs state against tree and returns the next state plus
// the ordered commands that carry the engine from one to the other.
// Oscillator commands precede sound commands; within each, stops and
// mutations (in old-map insertion order) precede starts for newly
// appearing instances (in declaration order).
func Reconcile(state State, tree audiotree.Audio) (State, []Command) {
	sounds, oscillators := flatten.Flatten(tree)

	oscResult := reconcileInstances(state.Oscillators, oscillators, oscillatorIdentity, oscillatorsEqual, oscillatorMutations, oscillatorStart, &state.Counter)
	soundResult := reconcileInstances(state.Sounds, sounds, soundIdentity, soundsEqual, soundMutations, soundStart, &state.Counter)

	commands := make([]Command, 0, len(oscResult.stopOrMutate)+len(oscResult.start)+len(soundResult.stopOrMutate)+len(soundResult.start))
	commands = append(commands, oscResult.stopOrMutate...)
	commands = append(commands, oscResult.start...)
	commands = append(commands, soundResult.stopOrMutate...)
	commands = append(commands, soundResult.start...)

	next := State{
		Sounds:      soundResult.newMap,
		Oscillators: oscResult.newMap,
		Counter:     state.Counter,
	}
	return next, commands
}

type reconcileResult[T any] struct {
	newMap       map[NodeGroupID]T
	stopOrMutate []Command
	start        []Command
}

// reconcileInstances runs the matching skeleton shared by sounds and
// oscillators (spec §4.3): for every existing entry, look at the unused
// identity-matching candidates in newList; if any is field-wise equal,
// the first such one is claimed and the entry kept untouched; otherwise
// the first candidate is claimed, the entry replaced and one command
// emitted per changed field; with no candidate at all the entry is
// gone and emits stopSound. Whatever in newList goes unclaimed gets a
// freshly allocated id and a start command.
func reconcileInstances[T any](
	old map[NodeGroupID]T,
	newList []T,
	identity func(T) any,
	equal func(a, b T) bool,
	mutations func(id NodeGroupID, oldV, newV T) []Command,
	start func(id NodeGroupID, v T) Command,
	counter *NodeGroupID,
) reconcileResult[T] {
	used := make([]bool, len(newList))
	newMap := make(map[NodeGroupID]T, len(old))
	var stopOrMutate []Command

	for _, id := range sortedKeys(old) {
		oldV := old[id]
		key := identity(oldV)

		matchIdx := -1
		perfectIdx := -1
		for i, v := range newList {
			if used[i] {
				continue
			}
			if identity(v) != key {
				continue
			}
			if matchIdx == -1 {
				matchIdx = i
			}
			if equal(oldV, v) {
				perfectIdx = i
				break
			}
		}

		switch {
		case perfectIdx != -1:
			used[perfectIdx] = true
			newMap[id] = oldV
		case matchIdx != -1:
			used[matchIdx] = true
			newV := newList[matchIdx]
			newMap[id] = newV
			stopOrMutate = append(stopOrMutate, mutations(id, oldV, newV)...)
		default:
			stopOrMutate = append(stopOrMutate, Command{Action: ActionStopSound, NodeGroupID: id})
		}
	}

	var started []Command
	for i, v := range newList {
		if used[i] {
			continue
		}
		id := *counter
		*counter++
		newMap[id] = v
		started = append(started, start(id, v))
	}

	return reconcileResult[T]{newMap: newMap, stopOrMutate: stopOrMutate, start: started}
}

func sortedKeys[T any](m map[NodeGroupID]T) []NodeGroupID {
	keys := make([]NodeGroupID, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
