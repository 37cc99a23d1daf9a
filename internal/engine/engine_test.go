package engine

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/gomidi/midi/v2"

	"github.com/declarative-audio/audiotree/internal/reconciler"
)

func TestNoopSendNeverErrors(t *testing.T) {
	assert.NoError(t, Noop{}.Send(Message{}))
}

func TestMIDITransportStartOscillatorSendsNoteOn(t *testing.T) {
	var buf bytes.Buffer
	transport := NewMIDITransport(&buf, 0)

	err := transport.Send(Message{Commands: []reconciler.Command{
		{Action: reconciler.ActionStartOscillator, NodeGroupID: 1, Frequency: 440, Volume: 1},
	}})
	require.NoError(t, err)
	assert.Equal(t, []byte(midi.NoteOn(0, 69, 127)), buf.Bytes())
}

func TestMIDITransportStopTrackedOscillatorSendsNoteOff(t *testing.T) {
	var buf bytes.Buffer
	transport := NewMIDITransport(&buf, 0)

	require.NoError(t, transport.Send(Message{Commands: []reconciler.Command{
		{Action: reconciler.ActionStartOscillator, NodeGroupID: 1, Frequency: 440, Volume: 1},
	}}))
	buf.Reset()

	require.NoError(t, transport.Send(Message{Commands: []reconciler.Command{
		{Action: reconciler.ActionStopSound, NodeGroupID: 1},
	}}))
	assert.Equal(t, []byte(midi.NoteOff(0, 69)), buf.Bytes())
}

func TestMIDITransportStopUntrackedNodeGroupIsNoop(t *testing.T) {
	var buf bytes.Buffer
	transport := NewMIDITransport(&buf, 0)

	err := transport.Send(Message{Commands: []reconciler.Command{
		{Action: reconciler.ActionStopSound, NodeGroupID: 99},
	}})
	require.NoError(t, err)
	assert.Empty(t, buf.Bytes())
}

func TestMIDITransportIgnoresSoundCommands(t *testing.T) {
	var buf bytes.Buffer
	transport := NewMIDITransport(&buf, 0)

	err := transport.Send(Message{Commands: []reconciler.Command{
		{Action: reconciler.ActionStartSound, NodeGroupID: 1, BufferID: 5},
	}})
	require.NoError(t, err)
	assert.Empty(t, buf.Bytes())
}

func TestOSCTransportEncodesWireMessage(t *testing.T) {
	transport := NewOSCTransport("127.0.0.1", 57120)
	// No listener is required: osc.Client.Send over UDP does not block
	// on delivery, so this exercises the encode path without a fixture.
	err := transport.Send(Message{Commands: []reconciler.Command{
		{Action: reconciler.ActionStopSound, NodeGroupID: 3},
	}})
	assert.NoError(t, err)
}

func TestLocalFileLoaderRejectsMissingFile(t *testing.T) {
	loader := NewLocalFileLoader(t.TempDir())
	_, _, err := loader.Load("missing.wav")
	require.Error(t, err)
}

func TestLocalFileLoaderAssignsIncrementingBufferIDs(t *testing.T) {
	dir := t.TempDir()
	writeMinimalWav(t, dir+"/a.wav")
	writeMinimalWav(t, dir+"/b.wav")

	loader := NewLocalFileLoader(dir)
	id1, dur1, err := loader.Load("a.wav")
	require.NoError(t, err)
	id2, _, err := loader.Load("b.wav")
	require.NoError(t, err)

	assert.Less(t, id1, id2)
	assert.Greater(t, dur1, 0.0)
}

// writeMinimalWav writes a tiny valid PCM WAV file for duration-probe tests.
func writeMinimalWav(t *testing.T, path string) {
	t.Helper()
	const sampleRate = 8000
	const numFrames = 800 // 0.1s mono 16-bit

	dataSize := numFrames * 2
	buf := &bytes.Buffer{}
	buf.WriteString("RIFF")
	writeLE32(buf, uint32(36+dataSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	writeLE32(buf, 16)
	writeLE16(buf, 1) // PCM
	writeLE16(buf, 1) // mono
	writeLE32(buf, sampleRate)
	writeLE32(buf, sampleRate*2)
	writeLE16(buf, 2)
	writeLE16(buf, 16)
	buf.WriteString("data")
	writeLE32(buf, uint32(dataSize))
	buf.Write(make([]byte, dataSize))

	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func writeLE32(buf *bytes.Buffer, v uint32) {
	buf.WriteByte(byte(v))
	buf.WriteByte(byte(v >> 8))
	buf.WriteByte(byte(v >> 16))
	buf.WriteByte(byte(v >> 24))
}

func writeLE16(buf *bytes.Buffer, v uint16) {
	buf.WriteByte(byte(v))
	buf.WriteByte(byte(v >> 8))
}

