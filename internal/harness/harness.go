// Package harness wraps an arbitrary host's own init/update/view cycle
// (spec.md §4.6): every run of Update ends by calling the reconciler
// and encoding one outgoing wire message, exactly as the core contract
// requires. The harness knows nothing about what a particular host's
// state or messages look like — that's why Init/Update take and return
// `any` — only that it can ask the host for the audio tree it wants
// playing and for engine replies to route back in.
package harness

import (
	"log"

	"github.com/declarative-audio/audiotree/internal/audiotree"
	"github.com/declarative-audio/audiotree/internal/codec"
	"github.com/declarative-audio/audiotree/internal/loader"
	"github.com/declarative-audio/audiotree/internal/reconciler"
)

// LoadAudioCmd is the audio-side command a host's update function
// returns when it wants a URL loaded. Callback fires exactly once, with
// either a resolved Source or an error, and feeding the result back
// into the host's own message type is the host's responsibility.
type LoadAudioCmd struct {
	URL      string
	Callback loader.Callback
}

// AudioFunc is the host's pure view into what should currently be
// audible — the `audio(state) → AudioTree` callback from spec.md §6.
type AudioFunc func(state any) audiotree.Audio

// ViewFunc is the pass-through UI view; the harness never inspects its
// output.
type ViewFunc func(state any) string

// InitFunc produces the host's initial state from whatever init value
// the caller supplies, plus any host commands and audio load commands
// it wants to issue immediately.
type InitFunc func(hostInit any) (state any, hostCmds []any, audioCmds []LoadAudioCmd)

// UpdateFunc advances host state in response to one message.
type UpdateFunc func(msg any, state any) (nextState any, hostCmds []any, audioCmds []LoadAudioCmd)

// Harness is the single long-lived struct that owns everything the
// core is allowed to mutate between ticks: the reconciler state, the
// load tracker, and the LoadingContext→Ready flag.
type Harness struct {
	audioFn AudioFunc
	viewFn  ViewFunc

	state      any
	audioState reconciler.State
	tracker    *loader.Tracker

	ready            bool
	samplesPerSecond int

	lastCommands []reconciler.Command
	lastRequests []loader.Request
}

// New builds a harness around a host's audio/view callbacks, using the
// load tracker's default ExceededMaxSimultaneousLoads cap of 256; use
// NewWithLoadCap to pick a different cap.
func New(audioFn AudioFunc, viewFn ViewFunc) *Harness {
	return NewWithLoadCap(audioFn, viewFn, 256)
}

// NewWithLoadCap is New with an explicit pending-load cap (0 disables
// the cap), matching loader.NewTrackerWithCap.
func NewWithLoadCap(audioFn AudioFunc, viewFn ViewFunc, maxPendingLoads int) *Harness {
	return &Harness{
		audioFn:    audioFn,
		viewFn:     viewFn,
		audioState: reconciler.NewState(),
		tracker:    loader.NewTrackerWithCap(maxPendingLoads),
	}
}

// Init runs the host's init callback and ticks the reconciler once.
func (h *Harness) Init(hostInit any, initFn InitFunc) (state any, wireMessage []byte, hostCmds []any) {
	state, hostCmds, audioCmds := initFn(hostInit)
	h.state = state
	return state, h.tick(state, audioCmds), hostCmds
}

// Update runs the host's update callback for one message and ticks the
// reconciler once. After Init it is the only entry point that changes
// host state or reconciler state; Subscribe changes only the ready flag,
// the sample rate and the pending-load table.
func (h *Harness) Update(hostMsg any, updateFn UpdateFunc) (state any, wireMessage []byte, hostCmds []any) {
	state, hostCmds, audioCmds := updateFn(hostMsg, h.state)
	h.state = state
	return state, h.tick(state, audioCmds), hostCmds
}

func (h *Harness) tick(state any, audioCmds []LoadAudioCmd) []byte {
	tree := h.audioFn(state)
	nextAudioState, commands := reconciler.Reconcile(h.audioState, tree)
	h.audioState = nextAudioState

	requests := make([]loader.Request, 0, len(audioCmds))
	for _, cmd := range audioCmds {
		req, accepted := h.tracker.LoadAudio(cmd.URL, cmd.Callback)
		if accepted {
			requests = append(requests, req)
		}
	}

	h.lastCommands = commands
	h.lastRequests = requests

	data, err := codec.EncodeTick(commands, requests)
	if err != nil {
		log.Printf("harness: failed to encode tick: %v", err)
		return nil
	}
	return data
}

// Subscribe relays one inbound engine message. Context-initialized
// messages flip LoadingContext→Ready; load replies resolve the
// matching pending request, which in turn invokes the host callback
// that was registered when the request was issued — the host is
// expected to translate that into a message and call Update again.
func (h *Harness) Subscribe(raw []byte) {
	msg, err := codec.DecodeIngress(raw)
	if err != nil {
		log.Printf("harness: dropping unparseable engine message: %v", err)
		return
	}
	switch m := msg.(type) {
	case *codec.ContextInitializedMessage:
		if !h.ready {
			h.ready = true
			h.samplesPerSecond = m.SamplesPerSecond
		}
	case *codec.LoadSuccessMessage:
		h.tracker.ResolveSuccess(m.RequestID, m.BufferID, m.DurationInSeconds)
	case *codec.LoadFailedMessage:
		h.tracker.ResolveFailure(m.RequestID, loader.LoadError(m.Error))
	}
}

// View is the pass-through to the host's own view function.
func (h *Harness) View() string {
	if h.viewFn == nil {
		return ""
	}
	return h.viewFn(h.state)
}

// Ready reports whether an AudioContext has ever been initialized.
// Declarations are reconciled and delivered regardless of readiness —
// whether the engine plays them yet is the engine's responsibility.
func (h *Harness) Ready() bool { return h.ready }

// SamplesPerSecond returns the sample rate captured on the first
// InitAudioContext event, or 0 before that happens.
func (h *Harness) SamplesPerSecond() int { return h.samplesPerSecond }

// State returns the current host state, mostly useful for tests.
func (h *Harness) State() any { return h.state }

// AudioState exposes the live reconciler state for diagnostics/demo
// rendering.
func (h *Harness) AudioState() reconciler.State { return h.audioState }

// PendingLoads reports how many load requests are awaiting a reply.
func (h *Harness) PendingLoads() int { return h.tracker.Pending() }

// LastCommands returns the reconciler commands produced by the most
// recent Init/Update tick, for callers (such as a native MIDI bridge)
// that need structured commands rather than the encoded wire message.
func (h *Harness) LastCommands() []reconciler.Command { return h.lastCommands }

// LastRequests returns the load requests issued by the most recent
// Init/Update tick.
func (h *Harness) LastRequests() []loader.Request { return h.lastRequests }
