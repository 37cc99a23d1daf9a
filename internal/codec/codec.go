// Package codec serializes reconciler commands and load requests to
// the engine's wire format, and decodes the engine's replies. It uses
// json-iterator/go configured to be drop-in compatible with
// encoding/json.
package codec

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/declarative-audio/audiotree/internal/audiotree"
	"github.com/declarative-audio/audiotree/internal/loader"
	"github.com/declarative-audio/audiotree/internal/reconciler"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// volumePointWire is the {time, volume} pair shape used inside
// volumeAt/volumeTimelines lists.
type volumePointWire struct {
	Time   int64   `json:"time"`
	Volume float64 `json:"volume"`
}

type loopWire struct {
	LoopStart float64 `json:"loopStart"`
	LoopEnd   float64 `json:"loopEnd"`
}

// commandWire is the JSON shape of a single command. Every command
// carries action + nodeGroupId; the rest are populated only for the
// actions that use them, and omitempty keeps the others off the wire.
// A nil loop and an empty timeline list are omitted as well rather than
// sent as null: a startSound without a loop has no "loop" key, and a
// setLoopConfig that clears the loop carries only action + nodeGroupId.
type commandWire struct {
	Action          string              `json:"action"`
	NodeGroupID     int64               `json:"nodeGroupId"`
	BufferID        *int                `json:"bufferId,omitempty"`
	StartTime       *int64              `json:"startTime,omitempty"`
	StartAt         *float64            `json:"startAt,omitempty"`
	Volume          *float64            `json:"volume,omitempty"`
	VolumeAt        [][]volumePointWire `json:"volumeAt,omitempty"`
	Loop            *loopWire           `json:"loop,omitempty"`
	PlaybackRate    *float64            `json:"playbackRate,omitempty"`
	OscillatorType  string              `json:"oscillatorType,omitempty"`
	Frequency       *float64            `json:"frequency,omitempty"`
}

// LoadRequestWire is one outstanding load request, as handed to the
// engine alongside the per-tick command list.
type LoadRequestWire struct {
	AudioURL  string `json:"audioUrl"`
	RequestID int    `json:"requestId"`
}

// OutgoingMessage is the complete per-tick wire message (spec.md §6).
type OutgoingMessage struct {
	Audio     []commandWire     `json:"audio"`
	AudioCmds []LoadRequestWire `json:"audioCmds"`
}

func waveformName(w audiotree.Waveform) string {
	switch w {
	case audiotree.Sine:
		return "sine"
	case audiotree.Square:
		return "square"
	case audiotree.Sawtooth:
		return "sawtooth"
	case audiotree.Triangle:
		return "triangle"
	case audiotree.WhiteNoise:
		return "whiteNoise"
	case audiotree.PinkNoise:
		return "pinkNoise"
	case audiotree.BrownNoise:
		return "brownNoise"
	default:
		return "sine"
	}
}

func timelinesWire(t [][]audiotree.VolumePoint) [][]volumePointWire {
	if len(t) == 0 {
		return nil
	}
	out := make([][]volumePointWire, len(t))
	for i, points := range t {
		row := make([]volumePointWire, len(points))
		for j, p := range points {
			row[j] = volumePointWire{Time: p.Time, Volume: p.Volume}
		}
		out[i] = row
	}
	return out
}

func encodeCommand(c reconciler.Command) commandWire {
	w := commandWire{Action: string(c.Action), NodeGroupID: int64(c.NodeGroupID)}
	switch c.Action {
	case reconciler.ActionStartSound:
		w.BufferID = &c.BufferID
		w.StartTime = &c.StartTime
		w.StartAt = &c.StartAt
		w.Volume = &c.Volume
		w.VolumeAt = timelinesWire(c.VolumeTimelines)
		w.PlaybackRate = &c.PlaybackRate
		if c.Loop != nil {
			w.Loop = &loopWire{LoopStart: c.Loop.LoopStart, LoopEnd: c.Loop.LoopEnd}
		}
	case reconciler.ActionStartOscillator:
		w.OscillatorType = waveformName(c.Waveform)
		w.StartTime = &c.StartTime
		w.Volume = &c.Volume
		w.VolumeAt = timelinesWire(c.VolumeTimelines)
		w.Frequency = &c.Frequency
	case reconciler.ActionSetVolume:
		w.Volume = &c.Volume
	case reconciler.ActionSetVolumeAt:
		w.VolumeAt = timelinesWire(c.VolumeTimelines)
	case reconciler.ActionSetLoopConfig:
		if c.Loop != nil {
			w.Loop = &loopWire{LoopStart: c.Loop.LoopStart, LoopEnd: c.Loop.LoopEnd}
		}
	case reconciler.ActionSetPlaybackRate:
		w.PlaybackRate = &c.PlaybackRate
	case reconciler.ActionStopSound:
		// action + nodeGroupId only
	}
	return w
}

// EncodeTick builds the JSON bytes for one tick's outgoing message:
// the reconciler's command list plus any freshly issued load requests.
func EncodeTick(commands []reconciler.Command, requests []loader.Request) ([]byte, error) {
	msg := OutgoingMessage{
		Audio:     make([]commandWire, len(commands)),
		AudioCmds: make([]LoadRequestWire, len(requests)),
	}
	for i, c := range commands {
		msg.Audio[i] = encodeCommand(c)
	}
	for i, r := range requests {
		msg.AudioCmds[i] = LoadRequestWire{AudioURL: r.AudioURL, RequestID: r.RequestID}
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode tick: %w", err)
	}
	return data, nil
}

// IngressType tags the inbound engine message variants (spec.md §4.4).
type IngressType int

const (
	IngressLoadFailed IngressType = iota
	IngressLoadSuccess
	IngressContextInitialized
)

// LoadFailedMessage is `{type:0, requestId, error}`.
type LoadFailedMessage struct {
	RequestID int
	Error     string
}

// LoadSuccessMessage is `{type:1, requestId, bufferId, durationInSeconds}`.
type LoadSuccessMessage struct {
	RequestID         int
	BufferID          int
	DurationInSeconds float64
}

// ContextInitializedMessage is `{type:2, samplesPerSecond}`.
type ContextInitializedMessage struct {
	SamplesPerSecond int
}

type ingressWire struct {
	Type              int     `json:"type"`
	RequestID         int     `json:"requestId"`
	Error             string  `json:"error"`
	BufferID          int     `json:"bufferId"`
	DurationInSeconds float64 `json:"durationInSeconds"`
	SamplesPerSecond  int     `json:"samplesPerSecond"`
}

// ParseError records a malformed inbound message. It is never surfaced
// to a host callback — the host has no request id to correlate it
// against — but a caller may want to log it.
type ParseError struct {
	Raw []byte
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("codec: could not parse ingress message: %v", e.Err)
}

// DecodeIngress parses one inbound engine message. The returned value
// is one of *LoadFailedMessage, *LoadSuccessMessage or
// *ContextInitializedMessage depending on the "type" tag; an
// unrecognized or malformed message yields a *ParseError, which the
// caller should record and drop rather than propagate.
func DecodeIngress(data []byte) (any, error) {
	var w ingressWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, &ParseError{Raw: data, Err: err}
	}
	switch w.Type {
	case int(IngressLoadFailed):
		return &LoadFailedMessage{RequestID: w.RequestID, Error: w.Error}, nil
	case int(IngressLoadSuccess):
		return &LoadSuccessMessage{RequestID: w.RequestID, BufferID: w.BufferID, DurationInSeconds: w.DurationInSeconds}, nil
	case int(IngressContextInitialized):
		return &ContextInitializedMessage{SamplesPerSecond: w.SamplesPerSecond}, nil
	default:
		return nil, &ParseError{Raw: data, Err: fmt.Errorf("unknown ingress type %d", w.Type)}
	}
}
