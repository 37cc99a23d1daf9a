// Package engine provides the reconciler-facing side of the "remote
// peer reached through an ordered message channel" from spec.md §5:
// concrete transports that actually carry commands and load requests
// to something capable of making sound, plus a couple of in-process
// stand-ins useful for demos and tests.
package engine

import (
	"github.com/declarative-audio/audiotree/internal/loader"
	"github.com/declarative-audio/audiotree/internal/reconciler"
)

// Message is one tick's payload: the reconciler's command list plus
// any load requests freshly issued this tick.
type Message struct {
	Commands []reconciler.Command
	Requests []loader.Request
}

// Transport is the engine boundary. Implementations own how Message
// actually reaches the engine; the reconciler and harness never see a
// transport directly.
type Transport interface {
	Send(Message) error
}

// Noop discards everything sent to it. Useful for tests of the layers
// above the transport boundary.
type Noop struct{}

func (Noop) Send(Message) error { return nil }
