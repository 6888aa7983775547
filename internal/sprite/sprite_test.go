package sprite

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateDeterministic(t *testing.T) {
	a, err := Generate("Next.js", 128)
	require.NoError(t, err)
	b, err := Generate("Next.js", 128)
	require.NoError(t, err)

	assert.True(t, bytes.Equal(a.Image().Pix, b.Image().Pix), "same label should bake identical pixels")

	c, err := Generate("FastAPI", 128)
	require.NoError(t, err)
	assert.False(t, bytes.Equal(a.Image().Pix, c.Image().Pix), "different labels should differ")
}

func TestGenerateGlow(t *testing.T) {
	tex, err := Generate("", 64)
	require.NoError(t, err)
	img := tex.Image()

	center := img.RGBAAt(32, 32)
	want := uint8(math.Round(glowAlpha(math.Hypot(0.5, 0.5)/32) * 255))
	assert.Equal(t, want, center.A, "center texel follows the first gradient stop")
	assert.Equal(t, center.R, center.A, "glow is premultiplied white")

	corner := img.RGBAAt(0, 0)
	assert.Equal(t, uint8(0), corner.A, "corner lies outside the glow radius")

	mid := img.RGBAAt(32+16, 32)
	assert.Less(t, mid.A, center.A)
	assert.Greater(t, mid.A, uint8(0))
}

func TestGenerateLabelInk(t *testing.T) {
	tex, err := Generate("MMMM", 256)
	require.NoError(t, err)
	img := tex.Image()

	// The fill is black over an opaque glow, so some pixel near the center
	// row must be dark and opaque.
	dark := false
	for x := 0; x < 256 && !dark; x++ {
		for y := 118; y < 138; y++ {
			c := img.RGBAAt(x, y)
			if c.A > 200 && c.R < 60 {
				dark = true
				break
			}
		}
	}
	assert.True(t, dark, "label ink not found near the center row")
}

func TestGlowAlpha(t *testing.T) {
	tests := []struct {
		r    float64
		want float64
	}{
		{0, 1.0},
		{0.15, 0.95},
		{0.3, 0.9},
		{0.5, 0.75},
		{0.7, 0.6},
		{0.85, 0.3},
		{1.0, 0},
		{1.5, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, glowAlpha(tt.r), 1e-9, "r=%v", tt.r)
	}
}

func TestNewGeneratorInvalidSize(t *testing.T) {
	for _, size := range []int{0, -5} {
		_, err := NewGenerator(size, nil)
		assert.True(t, errors.Is(err, ErrNoDrawingSurface), "size %d: %v", size, err)
	}
}

func TestGeneratorClosed(t *testing.T) {
	g, err := NewGenerator(32, nil)
	require.NoError(t, err)
	require.NoError(t, g.Close())
	require.NoError(t, g.Close())

	_, err = g.Generate("x")
	assert.ErrorIs(t, err, ErrNoDrawingSurface)
}

func TestPoolRelease(t *testing.T) {
	pool := &Pool{}
	g, err := NewGenerator(32, pool)
	require.NoError(t, err)
	defer g.Close()

	a, err := g.Generate("a")
	require.NoError(t, err)
	b, err := g.Generate("b")
	require.NoError(t, err)
	assert.Equal(t, 2, pool.Live())

	a.Release()
	a.Release()
	assert.Equal(t, 1, pool.Live(), "double release must not double count")
	assert.True(t, a.Released())
	assert.Nil(t, a.Image())

	b.Release()
	assert.Equal(t, 0, pool.Live())
}

func TestSample(t *testing.T) {
	tex, err := Generate("", 64)
	require.NoError(t, err)

	// The texel at (32, 32) has its center half a pixel off the glow center.
	center := uint8(math.Round(glowAlpha(math.Hypot(0.5, 0.5)/32) * 255))
	assert.Greater(t, center, uint8(250))
	assert.Equal(t, center, tex.Sample(0.5, 0.5, 0).A)
	assert.Equal(t, center, tex.Sample(0.5, 0.5, 1.3).A, "center is invariant under spin")
	assert.Equal(t, uint8(0), tex.Sample(-0.1, 0.5, 0).A)
	assert.Equal(t, uint8(0), tex.Sample(0.5, 1.0, 0).A)

	tex.Release()
	assert.Equal(t, uint8(0), tex.Sample(0.5, 0.5, 0).A, "released texture samples transparent")
}
