package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/declarative-audio/audiotree/internal/loader"
	"github.com/declarative-audio/audiotree/internal/reconciler"
)

func TestEncodeTickStartSound(t *testing.T) {
	cmd := reconciler.Command{
		Action:       reconciler.ActionStartSound,
		NodeGroupID:  0,
		BufferID:     7,
		StartTime:    100000,
		StartAt:      0,
		Volume:       1,
		PlaybackRate: 1,
	}
	data, err := EncodeTick([]reconciler.Command{cmd}, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"audio": [{"action":"startSound","nodeGroupId":0,"bufferId":7,"startTime":100000,"startAt":0,"volume":1,"playbackRate":1}],
		"audioCmds": []
	}`, string(data))
}

func TestEncodeTickStopSoundOnlyHasActionAndID(t *testing.T) {
	cmd := reconciler.Command{Action: reconciler.ActionStopSound, NodeGroupID: 3}
	data, err := EncodeTick([]reconciler.Command{cmd}, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"audio":[{"action":"stopSound","nodeGroupId":3}],"audioCmds":[]}`, string(data))
}

func TestEncodeTickIncludesLoadRequests(t *testing.T) {
	data, err := EncodeTick(nil, []loader.Request{{AudioURL: "song.mp3", RequestID: 0}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"audio":[],"audioCmds":[{"audioUrl":"song.mp3","requestId":0}]}`, string(data))
}

func TestEncodeOscillatorTypeStrings(t *testing.T) {
	cmd := reconciler.Command{Action: reconciler.ActionStartOscillator, Waveform: 5 /* PinkNoise */}
	data, err := EncodeTick([]reconciler.Command{cmd}, nil)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"oscillatorType":"pinkNoise"`)
}

func TestDecodeIngressLoadSuccess(t *testing.T) {
	msg, err := DecodeIngress([]byte(`{"type":1,"requestId":0,"bufferId":7,"durationInSeconds":123}`))
	require.NoError(t, err)
	success, ok := msg.(*LoadSuccessMessage)
	require.True(t, ok)
	assert.Equal(t, 7, success.BufferID)
	assert.Equal(t, 123.0, success.DurationInSeconds)
}

func TestDecodeIngressLoadFailed(t *testing.T) {
	msg, err := DecodeIngress([]byte(`{"type":0,"requestId":2,"error":"NetworkError"}`))
	require.NoError(t, err)
	failed, ok := msg.(*LoadFailedMessage)
	require.True(t, ok)
	assert.Equal(t, "NetworkError", failed.Error)
}

func TestDecodeIngressContextInitialized(t *testing.T) {
	msg, err := DecodeIngress([]byte(`{"type":2,"samplesPerSecond":48000}`))
	require.NoError(t, err)
	ctx, ok := msg.(*ContextInitializedMessage)
	require.True(t, ok)
	assert.Equal(t, 48000, ctx.SamplesPerSecond)
}

func TestDecodeIngressUnknownTypeIsParseError(t *testing.T) {
	_, err := DecodeIngress([]byte(`{"type":99}`))
	require.Error(t, err)
	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestDecodeIngressMalformedJSONIsParseError(t *testing.T) {
	_, err := DecodeIngress([]byte(`not json`))
	require.Error(t, err)
	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
}
