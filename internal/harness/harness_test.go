package harness

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/declarative-audio/audiotree/internal/audiotree"
	"github.com/declarative-audio/audiotree/internal/loader"
)

type demoState struct {
	playing bool
	source  audiotree.Source
	loaded  *audiotree.Source
}

func demoAudio(s any) audiotree.Audio {
	state := s.(demoState)
	if !state.playing || state.loaded == nil {
		return audiotree.Silence()
	}
	return audiotree.NewAudio(*state.loaded, 0)
}

type sourceLoadedMsg audiotree.Source

func TestInitEmitsLoadRequest(t *testing.T) {
	h := New(demoAudio, nil)

	_, wire, _ := h.Init(nil, func(any) (any, []any, []LoadAudioCmd) {
		return demoState{playing: true}, nil, []LoadAudioCmd{
			{URL: "song.mp3", Callback: func(src loader.Source, err error) {}},
		}
	})

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(wire, &decoded))
	assert.Empty(t, decoded["audio"])
	cmds := decoded["audioCmds"].([]any)
	require.Len(t, cmds, 1)
	assert.Equal(t, "song.mp3", cmds[0].(map[string]any)["audioUrl"])
}

func TestLoadResolutionFeedsBackIntoUpdate(t *testing.T) {
	h := New(demoAudio, nil)
	var resolved *sourceLoadedMsg

	h.Init(nil, func(any) (any, []any, []LoadAudioCmd) {
		return demoState{playing: true}, nil, []LoadAudioCmd{
			{URL: "song.mp3", Callback: func(src loader.Source, err error) {
				m := sourceLoadedMsg(audiotree.Source{BufferID: src.BufferID})
				resolved = &m
			}},
		}
	})

	h.Subscribe([]byte(`{"type":1,"requestId":0,"bufferId":7,"durationInSeconds":10}`))
	require.NotNil(t, resolved)
	assert.Equal(t, 7, resolved.BufferID)

	_, wire, _ := h.Update(*resolved, func(msg any, state any) (any, []any, []LoadAudioCmd) {
		m := msg.(sourceLoadedMsg)
		src := audiotree.Source(m)
		s := state.(demoState)
		s.loaded = &src
		return s, nil, nil
	})

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(wire, &decoded))
	audio := decoded["audio"].([]any)
	require.Len(t, audio, 1)
	assert.Equal(t, "startSound", audio[0].(map[string]any)["action"])
}

func TestSubscribeContextInitializedSetsReady(t *testing.T) {
	h := New(demoAudio, nil)
	h.Init(nil, func(any) (any, []any, []LoadAudioCmd) { return demoState{}, nil, nil })

	assert.False(t, h.Ready())
	h.Subscribe([]byte(`{"type":2,"samplesPerSecond":48000}`))
	assert.True(t, h.Ready())
	assert.Equal(t, 48000, h.SamplesPerSecond())
}

func TestDeclarationsReconcileBeforeReady(t *testing.T) {
	h := New(demoAudio, nil)
	src := audiotree.Source{BufferID: 1}
	_, wire, _ := h.Init(nil, func(any) (any, []any, []LoadAudioCmd) {
		return demoState{playing: true, loaded: &src}, nil, nil
	})
	assert.False(t, h.Ready())
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(wire, &decoded))
	assert.Len(t, decoded["audio"].([]any), 1)
}

func TestUnknownRequestIDIgnoredByHarness(t *testing.T) {
	h := New(demoAudio, nil)
	h.Init(nil, func(any) (any, []any, []LoadAudioCmd) { return demoState{}, nil, nil })
	assert.NotPanics(t, func() {
		h.Subscribe([]byte(`{"type":1,"requestId":42,"bufferId":1,"durationInSeconds":1}`))
	})
}
