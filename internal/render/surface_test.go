package render

import (
	"context"
	"errors"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/litescript/ls-stackfield/internal/field"
	"github.com/litescript/ls-stackfield/internal/geom"
	"github.com/litescript/ls-stackfield/internal/sprite"
)

func testCamera(aspect float64) *geom.Camera {
	cam := geom.NewCamera(aspect, 1000)
	cam.LookAt(geom.Vec3{})
	return cam
}

func redPoint(t *testing.T) *field.Point {
	t.Helper()
	tex, err := sprite.Generate("", 64)
	require.NoError(t, err)
	return &field.Point{
		Label:   "red",
		Color:   colorful.Color{R: 1},
		Size:    100,
		Texture: tex,
	}
}

func TestNewSurfaceInvalid(t *testing.T) {
	for _, sz := range [][2]int{{0, 10}, {10, 0}, {-1, -1}} {
		_, err := NewSurface(sz[0], sz[1])
		assert.True(t, errors.Is(err, ErrSurfaceUnavailable), "%v: %v", sz, err)
	}
}

func TestSurfaceResizeZeroKeepsBuffer(t *testing.T) {
	s, err := NewSurface(80, 40)
	require.NoError(t, err)

	assert.ErrorIs(t, s.Resize(0, 40), ErrZeroSize)
	w, h := s.Size()
	assert.Equal(t, 80, w)
	assert.Equal(t, 40, h)
	assert.NotNil(t, s.Image())

	require.NoError(t, s.Resize(120, 60))
	w, h = s.Size()
	assert.Equal(t, 120, w)
	assert.Equal(t, 60, h)
	assert.Equal(t, 120, s.Image().Bounds().Dx())
	assert.InDelta(t, 2.0, s.Aspect(), 1e-12)

	// Idempotent.
	require.NoError(t, s.Resize(120, 60))
}

func TestRenderDrawsTintedSprite(t *testing.T) {
	defer goleak.VerifyNone(t)

	s, err := NewSurface(200, 200)
	require.NoError(t, err)

	scene := NewScene()
	scene.Add(redPoint(t))
	poses := []field.Pose{{Scale: 1}}

	require.NoError(t, s.Render(context.Background(), scene, poses, testCamera(1)))

	c := s.Image().RGBAAt(100, 100)
	assert.Greater(t, int(c.R), int(c.G)+40, "center should be tinted red: %v", c)
	assert.Greater(t, int(c.R), int(c.B)+40, "center should be tinted red: %v", c)

	// Far from the sprite only the backdrop remains.
	corner := s.Image().RGBAAt(0, 0)
	assert.Equal(t, uint8(255), corner.A)
	assert.Less(t, int(corner.R), 10)
}

func TestRenderIsRepeatable(t *testing.T) {
	s, err := NewSurface(64, 48)
	require.NoError(t, err)
	scene := NewScene()
	scene.Add(redPoint(t))
	poses := []field.Pose{{Position: geom.Vec3{X: 50}, Scale: 1.2, Spin: 0.3}}
	cam := testCamera(s.Aspect())

	require.NoError(t, s.Render(context.Background(), scene, poses, cam))
	first := append([]byte(nil), s.Image().Pix...)
	require.NoError(t, s.Render(context.Background(), scene, poses, cam))
	assert.Equal(t, first, s.Image().Pix, "each frame starts from a clean backdrop")
}

func TestRenderCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	s, err := NewSurface(32, 32)
	require.NoError(t, err)
	scene := NewScene()
	scene.Add(redPoint(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = s.Render(ctx, scene, []field.Pose{{Scale: 1}}, testCamera(1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRenderAfterRelease(t *testing.T) {
	s, err := NewSurface(16, 16)
	require.NoError(t, err)
	s.Release()
	assert.Nil(t, s.Image())
	assert.ErrorIs(t, s.Render(context.Background(), NewScene(), nil, testCamera(1)), ErrSurfaceUnavailable)
	assert.ErrorIs(t, s.Resize(8, 8), ErrSurfaceUnavailable)
	assert.Nil(t, s.Cells(4, 4))
}

func TestLayoutSortsFarToNear(t *testing.T) {
	s, err := NewSurface(100, 100)
	require.NoError(t, err)

	near := &field.Point{Label: "near", Size: 100}
	far := &field.Point{Label: "far", Size: 100}
	behind := &field.Point{Label: "behind", Size: 100}
	scene := NewScene()
	scene.Add(near)
	scene.Add(far)
	scene.Add(behind)

	poses := []field.Pose{
		{Position: geom.Vec3{Z: 500}, Scale: 1},
		{Position: geom.Vec3{Z: -500}, Scale: 1},
		{Position: geom.Vec3{Z: 1500}, Scale: 1},
	}
	sprites := s.Layout(scene, poses, testCamera(1))
	require.Len(t, sprites, 2, "point behind the camera is culled")
	assert.Equal(t, "far", sprites[0].Point.Label)
	assert.Equal(t, "near", sprites[1].Point.Label)
	assert.Greater(t, sprites[1].Radius, sprites[0].Radius, "nearer sprites are larger")
	assert.Greater(t, sprites[0].Fog, sprites[1].Fog)
}

func TestFogFactor(t *testing.T) {
	assert.Equal(t, 0.0, fogFactor(100))
	assert.Equal(t, 0.0, fogFactor(FogNear))
	assert.InDelta(t, 0.5, fogFactor((FogNear+FogFar)/2), 1e-12)
	assert.Equal(t, 1.0, fogFactor(5000))
}

func TestCells(t *testing.T) {
	s, err := NewSurface(10, 8)
	require.NoError(t, err)
	cells := s.Cells(10, 4)
	require.Len(t, cells, 4)
	require.Len(t, cells[0], 10)
	assert.Equal(t, s.Image().RGBAAt(3, 2), cells[1][3].Top)
	assert.Equal(t, s.Image().RGBAAt(3, 3), cells[1][3].Bottom)
}

func TestSceneAddRemove(t *testing.T) {
	scene := NewScene()
	a, b := &field.Point{Index: 0}, &field.Point{Index: 1}
	scene.Add(a)
	scene.Add(b)
	assert.Equal(t, 2, scene.Len())
	assert.True(t, scene.Remove(a))
	assert.False(t, scene.Remove(a))
	assert.Equal(t, []*field.Point{b}, scene.Nodes())
}

func TestBackdropCenterColor(t *testing.T) {
	img := backdrop(101, 101)
	c := img.RGBAAt(50, 50)
	// #1a1a2e at the center.
	assert.InDelta(t, 0x1a, int(c.R), 2)
	assert.InDelta(t, 0x2e, int(c.B), 2)
	corner := img.RGBAAt(0, 0)
	assert.LessOrEqual(t, int(corner.R), 1)
}
