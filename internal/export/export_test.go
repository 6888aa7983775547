package export

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litescript/ls-stackfield/internal/host"
	"github.com/litescript/ls-stackfield/internal/stackfield"
)

func mountTestView(t *testing.T, labels ...string) *stackfield.View {
	t.Helper()
	env := stackfield.Env{
		Container: host.NewContainer(96, 64),
		Window:    &host.Window{},
		Scheduler: host.NewFrameLoop(),
	}
	v, err := stackfield.Mount(context.Background(), env, stackfield.Options{
		Labels:      labels,
		Rand:        rand.New(rand.NewSource(5)),
		TextureSize: 32,
	})
	require.NoError(t, err)
	t.Cleanup(v.Unmount)
	require.NoError(t, v.Step(1.25))
	return v
}

func TestExportFrame(t *testing.T) {
	v := mountTestView(t, "Go", "Postgres")
	e := ExportFrame(v)

	assert.Equal(t, 1.25, e.Time)
	assert.Equal(t, 1, e.Frames)
	require.Len(t, e.Points, 2)
	assert.Equal(t, "Go", e.Points[0].Label)
	assert.Equal(t, 180.0, e.Points[1].Hue)
	assert.Equal(t, v.Poses()[1].Position, e.Points[1].Position)
	assert.True(t, strings.HasPrefix(e.Points[0].Color, "#"))
	assert.Equal(t, 1000.0, e.Camera.Distance)
}

func TestWriteJSON(t *testing.T) {
	v := mountTestView(t, "A")
	var buf bytes.Buffer
	require.NoError(t, ExportFrame(v).WriteJSON(&buf))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Contains(t, decoded, "camera")
	assert.Contains(t, decoded, "points")
}

func TestWritePNG(t *testing.T) {
	v := mountTestView(t, "A", "B")
	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, v))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 96, img.Bounds().Dx())
	assert.Equal(t, 64, img.Bounds().Dy())

	v.Unmount()
	assert.Error(t, WritePNG(&bytes.Buffer{}, v))
}

func TestWriteSummary(t *testing.T) {
	v := mountTestView(t, "A very long technology name", "B")
	var buf bytes.Buffer
	WriteSummary(&buf, ExportFrame(v))

	out := buf.String()
	assert.Contains(t, out, "LABEL")
	assert.Contains(t, out, "A very long tec…")
	assert.Contains(t, out, "2 points")
}
