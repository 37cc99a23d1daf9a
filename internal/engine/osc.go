package engine

import (
	"fmt"
	"log"

	"github.com/hypebeast/go-osc/osc"

	"github.com/declarative-audio/audiotree/internal/codec"
)

// OSCTransport carries each tick's command/request payload to an
// OSC-speaking engine (e.g. a SuperCollider synth) as a single string
// argument on one address, the way the tracker's model pushed
// per-track parameters to "/instrument" and "/sampler".
type OSCTransport struct {
	client  *osc.Client
	address string
}

// NewOSCTransport dials an OSC client at host:port. No connection is
// actually opened until the first Send, matching osc.NewClient's own
// semantics.
func NewOSCTransport(host string, port int) *OSCTransport {
	return &OSCTransport{
		client:  osc.NewClient(host, port),
		address: "/audioTree",
	}
}

// WithAddress overrides the default "/audioTree" OSC address.
func (t *OSCTransport) WithAddress(address string) *OSCTransport {
	t.address = address
	return t
}

func (t *OSCTransport) Send(m Message) error {
	data, err := codec.EncodeTick(m.Commands, m.Requests)
	if err != nil {
		return fmt.Errorf("osc transport: encode tick: %w", err)
	}

	msg := osc.NewMessage(t.address)
	msg.Append(string(data))
	if err := t.client.Send(msg); err != nil {
		log.Printf("osc transport: send to %s failed: %v", t.address, err)
		return fmt.Errorf("osc transport: send: %w", err)
	}
	return nil
}
