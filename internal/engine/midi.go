package engine

import (
	"fmt"
	"io"
	"log"

	"gitlab.com/gomidi/midi/v2"

	"github.com/declarative-audio/audiotree/internal/music"
	"github.com/declarative-audio/audiotree/internal/reconciler"
)

// MIDITransport maps startOscillator/stopSound commands onto note
// on/off messages, the way midiconnector.Device.NoteOn/NoteOff wrote
// raw status bytes to a drivers.Out port. This transport writes the
// same message bytes to any io.Writer, so it needs no driver or
// hardware to exercise gitlab.com/gomidi/midi/v2's message builders.
// Commands with no pitch (sounds, volume/loop/rate mutations) are
// logged and otherwise ignored: MIDI has no concept of sample playback.
type MIDITransport struct {
	out     io.Writer
	channel uint8

	notesOn map[reconciler.NodeGroupID]uint8
}

// NewMIDITransport writes note messages to out on the given channel
// (0-15).
func NewMIDITransport(out io.Writer, channel uint8) *MIDITransport {
	return &MIDITransport{
		out:     out,
		channel: channel,
		notesOn: make(map[reconciler.NodeGroupID]uint8),
	}
}

func (t *MIDITransport) Send(m Message) error {
	for _, cmd := range m.Commands {
		if err := t.sendCommand(cmd); err != nil {
			return err
		}
	}
	return nil
}

func (t *MIDITransport) sendCommand(cmd reconciler.Command) error {
	switch cmd.Action {
	case reconciler.ActionStartOscillator:
		note := music.FrequencyToMIDI(cmd.Frequency)
		if note < 0 || note > 127 {
			log.Printf("midi transport: frequency %.2fHz has no MIDI note, dropping", cmd.Frequency)
			return nil
		}
		velocity := velocityFromVolume(cmd.Volume)
		if _, err := t.out.Write([]byte(midi.NoteOn(t.channel, uint8(note), velocity))); err != nil {
			return fmt.Errorf("midi transport: note on: %w", err)
		}
		t.notesOn[cmd.NodeGroupID] = uint8(note)

	case reconciler.ActionStopSound:
		note, ok := t.notesOn[cmd.NodeGroupID]
		if !ok {
			return nil // a sound, not a tracked oscillator
		}
		delete(t.notesOn, cmd.NodeGroupID)
		if _, err := t.out.Write([]byte(midi.NoteOff(t.channel, note))); err != nil {
			return fmt.Errorf("midi transport: note off: %w", err)
		}

	case reconciler.ActionStartSound, reconciler.ActionSetVolume, reconciler.ActionSetVolumeAt, reconciler.ActionSetLoopConfig, reconciler.ActionSetPlaybackRate:
		log.Printf("midi transport: %s has no MIDI equivalent, ignoring", cmd.Action)
	}
	return nil
}

func velocityFromVolume(volume float64) uint8 {
	if volume <= 0 {
		return 0
	}
	if volume >= 1 {
		return 127
	}
	return uint8(volume * 127)
}
