// Package ui provides the terminal user interface using Bubble Tea.
package ui

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-stackfield/internal/config"
	"github.com/litescript/ls-stackfield/internal/host"
	"github.com/litescript/ls-stackfield/internal/logging"
	"github.com/litescript/ls-stackfield/internal/render"
	"github.com/litescript/ls-stackfield/internal/sprite"
	"github.com/litescript/ls-stackfield/internal/stackfield"
	"github.com/litescript/ls-stackfield/internal/version"
)

// Screen layout around the canvas, in rows.
const (
	headerLines = 1
	footerLines = 2
)

// Input tuning.
const (
	wheelNotch = 100.0 // wheel delta per notch, in the same units as a browser wheel event
	keyNudge   = 0.05  // radians per arrow key press
	keyZoom    = 50.0  // distance per +/- press
)

// Msg types for Bubble Tea
type (
	// FrameTickMsg drives the field's frame loop.
	FrameTickMsg time.Time

	// ConfigReloadMsg carries a reloaded config; the field is remounted.
	ConfigReloadMsg struct {
		Config config.Config
	}
)

// Model is the root Bubble Tea model. It acts as the host for the field:
// it owns the container, window and frame loop and translates terminal
// input into host events.
type Model struct {
	cfg    config.Config
	logger *logging.Logger
	ctx    context.Context

	container *host.Container
	window    *host.Window
	loop      *host.FrameLoop
	pool      *sprite.Pool
	view      *stackfield.View
	seed      int64

	field FieldModel

	width  int
	height int
	ready  bool
	paused bool
	err    error

	lastTick time.Time
	fps      float64
}

// New mounts the field and returns the root model. A mount failure is
// returned as is; there is nothing to show without a surface.
func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (Model, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	m := Model{
		cfg:       cfg,
		logger:    logger.With("ui"),
		ctx:       ctx,
		container: host.NewContainer(0, 0),
		window:    &host.Window{},
		loop:      host.NewFrameLoop(),
		pool:      &sprite.Pool{},
		seed:      cfg.Seed,
		field:     NewFieldModel(ParseLabelMode(cfg.LabelMode)),
	}
	if m.seed == 0 {
		m.seed = time.Now().UnixNano()
	}
	if err := m.mount(); err != nil {
		return m, err
	}
	return m, nil
}

func (m *Model) mount() error {
	v, err := stackfield.Mount(m.ctx, stackfield.Env{
		Container: m.container,
		Window:    m.window,
		Scheduler: m.loop,
	}, stackfield.Options{
		Labels:      m.cfg.Labels,
		Rand:        rand.New(rand.NewSource(m.seed)),
		TextureSize: m.cfg.TextureSize,
		TimeStep:    m.cfg.TimeStep,
		Logger:      m.logger,
		Pool:        m.pool,
	})
	if err != nil {
		return err
	}
	m.view = v
	return nil
}

// remount tears the field down and builds a fresh one from the current config.
func (m *Model) remount() {
	m.Close()
	if err := m.mount(); err != nil {
		m.logger.Error("Remount failed: %v", err)
		m.err = err
		return
	}
	m.err = nil
	m.logger.Debug("Remounted with seed %d, %d live textures", m.seed, m.pool.Live())
}

// Close unmounts the field. It is safe to call more than once.
func (m *Model) Close() {
	if m.view != nil {
		m.view.Unmount()
		m.view = nil
	}
}

// Field returns the mounted field, or nil.
func (m Model) Field() *stackfield.View {
	return m.view
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return frameTickCmd(m.cfg.FPS)
}

func frameTickCmd(fps int) tea.Cmd {
	if fps <= 0 {
		fps = config.DefaultConfig().FPS
	}
	return tea.Tick(time.Second/time.Duration(fps), func(t time.Time) tea.Msg {
		return FrameTickMsg(t)
	})
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		rows := max(0, msg.Height-headerLines-footerLines)
		m.field = m.field.SetSize(msg.Width, rows)
		// Each cell holds two stacked pixels.
		m.container.Resize(msg.Width, rows*2)
		m.window.Dispatch(&host.Event{Kind: host.Resize})

	case FrameTickMsg:
		now := time.Time(msg)
		if !m.lastTick.IsZero() {
			if dt := now.Sub(m.lastTick).Seconds(); dt > 0 {
				m.fps = 0.9*m.fps + 0.1/dt
			}
		}
		m.lastTick = now
		if !m.paused {
			m.loop.Step()
		}
		return m, frameTickCmd(m.cfg.FPS)

	case ConfigReloadMsg:
		m.cfg = msg.Config
		if msg.Config.Seed != 0 {
			m.seed = msg.Config.Seed
		}
		m.field = NewFieldModel(ParseLabelMode(m.cfg.LabelMode)).SetSize(m.field.cols, m.field.rows)
		m.remount()
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.Close()
		return m, tea.Quit
	case "l":
		m.field = m.field.CycleLabels()
	case "p", " ":
		m.paused = !m.paused
	case "r":
		m.seed = rand.Int63()
		m.remount()
	}

	if m.view == nil {
		return m, nil
	}
	orbit := m.view.Orbit()
	switch msg.String() {
	case "left", "h":
		orbit.Nudge(-keyNudge, 0)
	case "right":
		orbit.Nudge(keyNudge, 0)
	case "up", "k":
		orbit.Nudge(0, -keyNudge)
	case "down", "j":
		orbit.Nudge(0, keyNudge)
	case "+", "=":
		orbit.Zoom(-keyZoom)
	case "-":
		orbit.Zoom(keyZoom)
	}
	return m, nil
}

// handleMouse converts a terminal mouse event into a container event.
func (m Model) handleMouse(msg tea.MouseMsg) {
	ev := mouseEvent(msg)
	if ev == nil {
		return
	}
	m.container.Dispatch(ev)
}

// mouseEvent maps a cell-addressed mouse message to pixel coordinates on the
// canvas. It returns nil for events the field does not consume.
func mouseEvent(msg tea.MouseMsg) *host.Event {
	x := float64(msg.X)
	y := float64(msg.Y-headerLines) * 2

	if tea.MouseEvent(msg).IsWheel() {
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			return &host.Event{Kind: host.Wheel, X: x, Y: y, DeltaY: -wheelNotch}
		case tea.MouseButtonWheelDown:
			return &host.Event{Kind: host.Wheel, X: x, Y: y, DeltaY: wheelNotch}
		}
		return nil
	}

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return nil
		}
		return &host.Event{Kind: host.PointerDown, X: x, Y: y}
	case tea.MouseActionMotion:
		return &host.Event{Kind: host.PointerMove, X: x, Y: y}
	case tea.MouseActionRelease:
		return &host.Event{Kind: host.PointerUp, X: x, Y: y}
	}
	return nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	header := m.renderTitle()
	if m.err != nil {
		errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#E84A27"))
		return header + "\n" + errorStyle.Render("ERROR: "+m.err.Error()) + "\n"
	}
	if m.view == nil {
		return header
	}

	sprites := m.view.Sprites()
	hovered := m.hovered(sprites)
	canvas := m.field.View(m.view, sprites, hovered)

	return header + "\n" + canvas + "\n" + m.renderHUD(sprites, hovered)
}

// hovered finds the sprite under the last pointer position.
func (m Model) hovered(sprites []render.Sprite) int {
	nx, ny := m.view.Orbit().Pointer()
	w, h := m.view.Surface().Size()
	return hoveredSprite(sprites, (nx+1)/2*float64(w), (1-ny)/2*float64(h))
}

func (m Model) renderTitle() string {
	title := []rune(fmt.Sprintf(" ✦ ls-stackfield v%s", version.Version))

	var b strings.Builder
	for col, r := range title {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(gradientColor(col, len(title)))).Bold(true)
		b.WriteString(style.Render(string(r)))
	}
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	b.WriteString(muted.Render("  · tech stack particle field"))
	return b.String()
}

// gradientColor returns a hex color for a position in the title gradient:
// blue -> purple -> magenta -> pink.
func gradientColor(col, width int) string {
	xRatio := float64(col) / float64(max(width, 1))

	var r, g, b float64
	if xRatio < 0.33 {
		t := xRatio / 0.33
		r = 59 + t*(139-59)
		g = 130 + t*(92-130)
		b = 246
	} else if xRatio < 0.66 {
		t := (xRatio - 0.33) / 0.33
		r = 139 + t*(217-139)
		g = 92 + t*(70-92)
		b = 246 + t*(239-246)
	} else {
		t := (xRatio - 0.66) / 0.34
		r = 217 + t*(236-217)
		g = 70 + t*(72-70)
		b = 239 + t*(153-239)
	}

	return fmt.Sprintf("#%02X%02X%02X", clampByte(r), clampByte(g), clampByte(b))
}

func clampByte(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return int(v)
}

func (m Model) renderHUD(sprites []render.Sprite, hovered int) string {
	var b strings.Builder

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))

	orbit := m.view.Orbit()

	if hovered >= 0 {
		p := sprites[hovered].Point
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(p.Color.Hex())).Bold(true).Render("◆ " + p.Label))
		b.WriteString("  ")
		b.WriteString(dimStyle.Render(fmt.Sprintf("depth %.0f", sprites[hovered].Depth)))
	} else {
		b.WriteString(headerStyle.Render(fmt.Sprintf("✦ %d technologies", len(m.view.Points()))))
		b.WriteString("  ")
		b.WriteString(dimStyle.Render(fmt.Sprintf("%d on screen", len(sprites))))
	}
	b.WriteString("  ")

	field := func(label, value string) {
		b.WriteString(dimStyle.Render(label))
		b.WriteString(valueStyle.Render(value))
		b.WriteString("  ")
	}
	field("Yaw:", fmt.Sprintf("%.1f°", orbit.Yaw()*180/math.Pi))
	field("Pitch:", fmt.Sprintf("%.1f°", orbit.Pitch()*180/math.Pi))
	field("Zoom:", fmt.Sprintf("%.0f", orbit.Distance()))
	field("t:", fmt.Sprintf("%.2f", m.view.Time()))
	field("FPS:", fmt.Sprintf("%.0f", m.fps))
	field("Labels:", m.field.LabelMode().String())
	if m.paused {
		b.WriteString(headerStyle.Render("[paused]"))
	}
	b.WriteString("\n")

	b.WriteString(dimStyle.Render("drag: orbit · wheel/+/-: zoom · arrows: nudge · l: labels · p: pause · r: reseed · q: quit"))
	return b.String()
}
