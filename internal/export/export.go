// Package export writes headless renderings of a mounted field.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"io"
	"strings"

	"github.com/litescript/ls-stackfield/internal/geom"
	"github.com/litescript/ls-stackfield/internal/stackfield"
)

// FrameExport is the JSON-serializable state of one frame.
type FrameExport struct {
	Time   float64        `json:"time"`
	Frames int            `json:"frames"`
	Camera CameraExport   `json:"camera"`
	Points []PointExport  `json:"points"`
	Screen []SpriteExport `json:"screen,omitempty"`
}

// CameraExport is a JSON-friendly orbit camera state.
type CameraExport struct {
	Yaw      float64   `json:"yaw"`
	Pitch    float64   `json:"pitch"`
	Distance float64   `json:"distance"`
	Position geom.Vec3 `json:"position"`
}

// PointExport is one point with its anchor and current pose.
type PointExport struct {
	Index    int       `json:"index"`
	Label    string    `json:"label"`
	Hue      float64   `json:"hue_deg"`
	Color    string    `json:"color"`
	Size     float64   `json:"size"`
	Anchor   geom.Vec3 `json:"anchor"`
	Velocity geom.Vec3 `json:"velocity"`
	Position geom.Vec3 `json:"position"`
	Spin     float64   `json:"spin"`
	Scale    float64   `json:"scale"`
}

// SpriteExport is a visible point's placement on the framebuffer.
type SpriteExport struct {
	Label  string  `json:"label"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
	Depth  float64 `json:"depth"`
}

// ExportFrame captures the view's last frame.
func ExportFrame(v *stackfield.View) *FrameExport {
	orbit := v.Orbit()
	out := &FrameExport{
		Time:   v.Time(),
		Frames: v.Frames(),
		Camera: CameraExport{
			Yaw:      orbit.Yaw(),
			Pitch:    orbit.Pitch(),
			Distance: orbit.Distance(),
			Position: v.Projection().Position,
		},
	}

	poses := v.Poses()
	for i, p := range v.Points() {
		pe := PointExport{
			Index:    p.Index,
			Label:    p.Label,
			Hue:      p.Hue,
			Color:    p.Color.Hex(),
			Size:     p.Size,
			Anchor:   p.Anchor,
			Velocity: p.Velocity,
			Position: p.Anchor,
			Scale:    1,
		}
		if i < len(poses) {
			pe.Position = poses[i].Position
			pe.Spin = poses[i].Spin
			pe.Scale = poses[i].Scale
		}
		out.Points = append(out.Points, pe)
	}

	for _, sp := range v.Sprites() {
		out.Screen = append(out.Screen, SpriteExport{
			Label:  sp.Point.Label,
			X:      sp.X,
			Y:      sp.Y,
			Radius: sp.Radius,
			Depth:  sp.Depth,
		})
	}
	return out
}

// WriteJSON writes the export as indented JSON.
func (e *FrameExport) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}

// WritePNG encodes the view's framebuffer.
func WritePNG(w io.Writer, v *stackfield.View) error {
	img := v.Surface().Image()
	if img == nil {
		return errors.New("export: no framebuffer")
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// WriteSummary writes a plain-text table of the frame.
func WriteSummary(w io.Writer, e *FrameExport) {
	fmt.Fprintf(w, "t=%.2f  frames=%d  yaw=%.3f  pitch=%.3f  distance=%.0f\n",
		e.Time, e.Frames, e.Camera.Yaw, e.Camera.Pitch, e.Camera.Distance)
	fmt.Fprintln(w, strings.Repeat("─", 72))
	fmt.Fprintf(w, "%-3s %-16s %7s %8s %8s %8s %6s %s\n",
		"#", "LABEL", "HUE", "X", "Y", "Z", "SCALE", "COLOR")
	for _, p := range e.Points {
		fmt.Fprintf(w, "%-3d %-16s %6.1f° %8.1f %8.1f %8.1f %6.2f %s\n",
			p.Index, truncate(p.Label, 16), p.Hue,
			p.Position.X, p.Position.Y, p.Position.Z, p.Scale, p.Color)
	}
	fmt.Fprintf(w, "%d points, %d on screen\n", len(e.Points), len(e.Screen))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
