package ui

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-stackfield/internal/config"
	"github.com/litescript/ls-stackfield/internal/render"
	"github.com/litescript/ls-stackfield/internal/stackfield"
)

// LabelMode controls which points get a text label.
type LabelMode int

const (
	LabelNone    LabelMode = iota // No labels
	LabelNearest                  // The closest few points
	LabelAll                      // Every visible point
)

// nearestLabels is how many points LabelNearest annotates.
const nearestLabels = 6

func (l LabelMode) String() string {
	switch l {
	case LabelNone:
		return "off"
	case LabelNearest:
		return "nearest"
	default:
		return "all"
	}
}

// ParseLabelMode maps a config value to a LabelMode.
func ParseLabelMode(s string) LabelMode {
	switch s {
	case config.LabelsNone:
		return LabelNone
	case config.LabelsAll:
		return LabelAll
	default:
		return LabelNearest
	}
}

// FieldModel renders the particle field canvas.
type FieldModel struct {
	cols, rows int
	labelMode  LabelMode
}

// NewFieldModel creates a field renderer.
func NewFieldModel(mode LabelMode) FieldModel {
	return FieldModel{labelMode: mode}
}

// SetSize updates the canvas size in cells.
func (m FieldModel) SetSize(cols, rows int) FieldModel {
	m.cols = cols
	m.rows = rows
	return m
}

// CycleLabels advances to the next label mode.
func (m FieldModel) CycleLabels() FieldModel {
	m.labelMode = (m.labelMode + 1) % 3
	return m
}

// LabelMode returns the current label mode.
func (m FieldModel) LabelMode() LabelMode {
	return m.labelMode
}

// overlayCell is a label character placed over the canvas.
type overlayCell struct {
	ch      rune
	color   string
	hovered bool
}

// View renders the canvas for v. hovered is the index of the sprite under
// the pointer, or -1.
func (m FieldModel) View(v *stackfield.View, sprites []render.Sprite, hovered int) string {
	if m.cols <= 0 || m.rows <= 0 || v == nil {
		return ""
	}
	cells := v.Surface().Cells(m.cols, m.rows)
	if cells == nil {
		return ""
	}
	overlay := m.labelOverlay(v, sprites, hovered)

	labelStyle := lipgloss.NewStyle().Bold(true)
	styles := make(map[[2]color.RGBA]lipgloss.Style)

	var b strings.Builder
	for r, row := range cells {
		for c, cell := range row {
			if o, ok := overlay[[2]int{c, r}]; ok {
				st := labelStyle.Foreground(lipgloss.Color(o.color)).Background(lipgloss.Color(hexOf(mix(cell.Top, cell.Bottom))))
				if o.hovered {
					st = st.Underline(true)
				}
				b.WriteString(st.Render(string(o.ch)))
				continue
			}

			key := [2]color.RGBA{cell.Top, cell.Bottom}
			st, ok := styles[key]
			if !ok {
				st = lipgloss.NewStyle().
					Foreground(lipgloss.Color(hexOf(cell.Top))).
					Background(lipgloss.Color(hexOf(cell.Bottom)))
				styles[key] = st
			}
			b.WriteString(st.Render("▀"))
		}
		if r < len(cells)-1 {
			b.WriteRune('\n')
		}
	}
	return b.String()
}

// labelOverlay places label text to the right of each labeled sprite.
// Sprites arrive far to near, so nearer labels overwrite farther ones.
func (m FieldModel) labelOverlay(v *stackfield.View, sprites []render.Sprite, hovered int) map[[2]int]overlayCell {
	overlay := make(map[[2]int]overlayCell)
	if len(sprites) == 0 {
		return overlay
	}

	w, h := v.Surface().Size()
	first := 0
	switch m.labelMode {
	case LabelNone:
		first = len(sprites)
	case LabelNearest:
		first = max(0, len(sprites)-nearestLabels)
	}

	place := func(i int) {
		sp := sprites[i]
		col := int(sp.X * float64(m.cols) / float64(w))
		row := int(sp.Y * float64(m.rows) / float64(h))
		if row < 0 || row >= m.rows {
			return
		}
		text := sp.Point.Label
		if i == hovered {
			text = "◄ " + text
		}
		x := col + int(math.Ceil(sp.Radius*float64(m.cols)/float64(w))) + 1
		for _, ch := range text {
			if x >= m.cols {
				break
			}
			if x >= 0 {
				overlay[[2]int{x, row}] = overlayCell{ch: ch, color: sp.Point.Color.Hex(), hovered: i == hovered}
			}
			x++
		}
	}

	for i := first; i < len(sprites); i++ {
		if i != hovered {
			place(i)
		}
	}
	// The hovered label is always shown, on top.
	if hovered >= 0 && hovered < len(sprites) {
		place(hovered)
	}
	return overlay
}

// hoveredSprite returns the nearest sprite containing pixel (px, py), or -1.
func hoveredSprite(sprites []render.Sprite, px, py float64) int {
	hit := -1
	for i, sp := range sprites {
		r := math.Max(sp.Radius, 1)
		if math.Hypot(sp.X-px, sp.Y-py) <= r {
			hit = i // later sprites are nearer
		}
	}
	return hit
}

func mix(a, b color.RGBA) color.RGBA {
	return color.RGBA{
		R: uint8((int(a.R) + int(b.R)) / 2),
		G: uint8((int(a.G) + int(b.G)) / 2),
		B: uint8((int(a.B) + int(b.B)) / 2),
		A: 255,
	}
}

func hexOf(c color.RGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}
