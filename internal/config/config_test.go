package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/litescript/ls-stackfield/internal/logging"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Nil(t, cfg.Labels)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "field.yaml")
	writeFile(t, path, `
labels: [Go, Rust, Zig]
fps: 30
seed: 42
label_mode: all
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "Rust", "Zig"}, cfg.Labels)
	assert.Equal(t, 30, cfg.FPS)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, LabelsAll, cfg.LabelMode)
	assert.Equal(t, 512, cfg.TextureSize, "unset fields keep defaults")
	assert.Equal(t, 0.01, cfg.TimeStep)
}

func TestLoadClamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "field.yaml")
	writeFile(t, path, "fps: 1000\ntexture_size: 4\ntime_step: -1\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, MaxFPS, cfg.FPS)
	assert.Equal(t, MinTextureSize, cfg.TextureSize)
	assert.Equal(t, 0.01, cfg.TimeStep)
}

func TestOverridesSurviveReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "field.yaml")
	writeFile(t, path, "seed: 7\nfps: 30\n")

	o := Overrides{Seed: 99, FPS: 500}
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, o.Apply(&cfg))
	assert.Equal(t, int64(99), cfg.Seed)
	assert.Equal(t, MaxFPS, cfg.FPS, "override is clamped like the file value")

	// A rewritten file must not drop the command-line values.
	writeFile(t, path, "seed: 11\nfps: 24\nlabels: [Go]\n")
	cfg, err = Load(path)
	require.NoError(t, err)
	require.NoError(t, o.Apply(&cfg))
	assert.Equal(t, int64(99), cfg.Seed)
	assert.Equal(t, MaxFPS, cfg.FPS)
	assert.Equal(t, []string{"Go"}, cfg.Labels)

	cfg, err = Load(path)
	require.NoError(t, err)
	require.NoError(t, Overrides{}.Apply(&cfg))
	assert.Equal(t, int64(11), cfg.Seed, "zero overrides keep the file")
	assert.Equal(t, 24, cfg.FPS)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "labels: [unclosed"},
		{"bad label mode", "label_mode: sometimes"},
		{"empty label", "labels: [Go, \"\"]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			writeFile(t, path, tt.content)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWatcherReloads(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "field.yaml")
	writeFile(t, path, "labels: [A]\n")

	w, err := Watch(path, logging.Discard())
	require.NoError(t, err)
	defer w.Close()

	writeFile(t, path, "labels: [A, B]\n")

	// A truncating write can surface a partial read first; wait for the
	// final content.
	timeout := time.After(5 * time.Second)
	for done := false; !done; {
		select {
		case cfg := <-w.Updates():
			done = len(cfg.Labels) == 2
			if done {
				assert.Equal(t, []string{"A", "B"}, cfg.Labels)
			}
		case <-timeout:
			t.Fatal("no config update received")
		}
	}

	require.NoError(t, w.Close())
	assert.NoError(t, w.Close(), "second Close is a no-op")
}
