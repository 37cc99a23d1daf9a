// Command audiodemo is a small bubbletea program that exercises the
// harness end to end: it declares a changing audio tree, watches the
// reconciler's commands flow out through a chosen engine transport,
// and renders the live node-group table, the way the tracker's own
// main.go wired a TrackerModel into a tea.Program against a running
// SuperCollider instance.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/declarative-audio/audiotree/internal/audiotree"
	"github.com/declarative-audio/audiotree/internal/engine"
	"github.com/declarative-audio/audiotree/internal/harness"
	"github.com/declarative-audio/audiotree/internal/loader"
	"github.com/declarative-audio/audiotree/internal/view"
)

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

type demoState struct {
	tick        int
	requestSent bool
}

type demoModel struct {
	h          *harness.Harness
	transport  engine.Transport
	localLoad  *engine.LocalFileLoader
	styles     view.Styles
	soundPath  string
	lastLoaded *audiotree.Source
	status     string
	loadBar    progress.Model
}

func newDemoModel(transport engine.Transport, localLoad *engine.LocalFileLoader, soundPath string) *demoModel {
	m := &demoModel{
		transport: transport,
		localLoad: localLoad,
		styles:    view.DefaultStyles(),
		soundPath: soundPath,
		loadBar:   progress.New(progress.WithDefaultGradient()),
	}
	m.h = harness.New(m.audio, nil)
	return m
}

// audio is the declarative heart of the demo: silence, then a
// fading-in sine, then a loaded file once its load request resolves.
func (m *demoModel) audio(s any) audiotree.Audio {
	st := s.(demoState)
	switch {
	case m.lastLoaded != nil:
		return audiotree.NewAudio(*m.lastLoaded, 0)
	case st.tick >= 2:
		return audiotree.ScaleVolumeAt(
			[]audiotree.VolumePoint{{Time: 0, Volume: 0}, {Time: 2000, Volume: 1}},
			audiotree.NewSine(440, 0),
		)
	default:
		return audiotree.Silence()
	}
}

func (m *demoModel) update(msg any, state any) (any, []any, []harness.LoadAudioCmd) {
	st := state.(demoState)
	if _, ok := msg.(tickMsg); ok {
		st.tick++
	}

	var audioCmds []harness.LoadAudioCmd
	if st.tick == 3 && !st.requestSent {
		st.requestSent = true
		audioCmds = append(audioCmds, harness.LoadAudioCmd{
			URL: m.soundPath,
			Callback: func(src loader.Source, err error) {
				if err != nil {
					m.status = fmt.Sprintf("load failed: %v", err)
					return
				}
				source := audiotree.Source{BufferID: src.BufferID, Duration: src.Duration}
				m.lastLoaded = &source
				m.status = fmt.Sprintf("loaded buffer %d (%.2fs)", source.BufferID, source.Duration)
			},
		})
	}
	return st, nil, audioCmds
}

func (m *demoModel) Init() tea.Cmd {
	_, _, _ = m.h.Init(nil, func(any) (any, []any, []harness.LoadAudioCmd) {
		return demoState{}, nil, nil
	})
	return tickCmd()
}

func (m *demoModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		_, _, _ = m.h.Update(msg, m.update)
		m.dispatch()
		m.resolvePendingLoads()
		return m, tickCmd()
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

// dispatch forwards the tick's commands to the configured engine
// transport, independent of the canonical JSON wire message the
// harness also produces.
func (m *demoModel) dispatch() {
	if m.transport == nil {
		return
	}
	err := m.transport.Send(engine.Message{
		Commands: m.h.LastCommands(),
		Requests: m.h.LastRequests(),
	})
	if err != nil {
		log.Printf("audiodemo: transport send failed: %v", err)
	}
}

// resolvePendingLoads plays the part of the engine side of the load
// protocol: it answers each freshly issued request synchronously using
// a local WAV duration probe, then feeds that answer back in exactly
// the ingress shape a real engine would send over the wire.
func (m *demoModel) resolvePendingLoads() {
	if m.localLoad == nil {
		return
	}
	for _, req := range m.h.LastRequests() {
		bufferID, duration, err := m.localLoad.Load(m.soundPath)
		if err != nil {
			m.h.Subscribe([]byte(fmt.Sprintf(
				`{"type":0,"requestId":%d,"error":"NetworkError"}`, req.RequestID)))
			continue
		}
		m.h.Subscribe([]byte(fmt.Sprintf(
			`{"type":1,"requestId":%d,"bufferId":%d,"durationInSeconds":%f}`,
			req.RequestID, bufferID, duration)))
	}
}

func (m *demoModel) View() string {
	header := lipgloss.NewStyle().Bold(true).Render("audiodemo — q to quit")
	body := view.RenderState(m.h.AudioState(), m.styles)
	status := m.styles.Dim.Render(m.status)
	bar := m.loadBar.ViewAs(m.loadProgress())
	return lipgloss.JoinVertical(lipgloss.Left, header, "", body, "", bar, status)
}

// loadProgress reports how close the demo is to issuing its load
// request, for the progress bar; it reaches 1 once a buffer is loaded.
func (m *demoModel) loadProgress() float64 {
	if m.lastLoaded != nil {
		return 1
	}
	st, ok := m.h.State().(demoState)
	if !ok {
		return 0
	}
	const loadAtTick = 3
	return min(float64(st.tick)/loadAtTick, 1)
}

func buildTransport(engineKind, host string, port int, midiChannel uint8) (engine.Transport, io.Closer) {
	switch engineKind {
	case "osc":
		return engine.NewOSCTransport(host, port), nil
	case "midi":
		f, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
		if err != nil {
			log.Fatalf("audiodemo: open midi sink: %v", err)
		}
		return engine.NewMIDITransport(f, midiChannel), f
	case "noop":
		return engine.Noop{}, nil
	default:
		log.Fatalf("audiodemo: unknown engine %q (want osc, midi, or noop)", engineKind)
		return nil, nil
	}
}

func main() {
	var (
		engineKind  string
		host        string
		port        int
		midiChannel uint8
		assetsDir   string
		soundFile   string
	)

	root := &cobra.Command{
		Use:   "audiodemo",
		Short: "Drive the declarative-audio reconciler against a live engine transport",
		RunE: func(cmd *cobra.Command, args []string) error {
			transport, closer := buildTransport(engineKind, host, port, midiChannel)
			if closer != nil {
				defer closer.Close()
			}

			model := newDemoModel(transport, engine.NewLocalFileLoader(assetsDir), soundFile)
			program := tea.NewProgram(model, tea.WithAltScreen())
			_, err := program.Run()
			return err
		},
	}

	root.Flags().StringVar(&engineKind, "engine", "noop", "engine transport: osc, midi, or noop")
	root.Flags().StringVar(&host, "host", "127.0.0.1", "OSC engine host")
	root.Flags().IntVar(&port, "port", 57120, "OSC engine port")
	root.Flags().Uint8Var(&midiChannel, "midi-channel", 0, "MIDI channel (0-15)")
	root.Flags().StringVar(&assetsDir, "assets", ".", "directory to resolve load URLs against")
	root.Flags().StringVar(&soundFile, "sound", "demo.wav", "audio URL the demo loads partway through")

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}
