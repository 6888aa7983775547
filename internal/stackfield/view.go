// Package stackfield mounts the tech-stack particle field into a host: it
// owns the points, the orbit camera, the framebuffer and the frame loop, and
// releases all of them together on unmount.
package stackfield

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/litescript/ls-stackfield/internal/camera"
	"github.com/litescript/ls-stackfield/internal/field"
	"github.com/litescript/ls-stackfield/internal/geom"
	"github.com/litescript/ls-stackfield/internal/host"
	"github.com/litescript/ls-stackfield/internal/logging"
	"github.com/litescript/ls-stackfield/internal/render"
	"github.com/litescript/ls-stackfield/internal/sprite"
)

var (
	// ErrUnmounted is returned when stepping a view after Unmount.
	ErrUnmounted = errors.New("stackfield: view unmounted")

	// ErrInvalidEnv is returned when the host environment is incomplete.
	ErrInvalidEnv = errors.New("stackfield: incomplete host environment")
)

// SurfaceFunc acquires a framebuffer of the given size.
type SurfaceFunc func(width, height int) (*render.Surface, error)

// Env is what the host provides at mount time.
type Env struct {
	Container *host.Container
	Window    *host.Window
	Scheduler host.Scheduler

	// AcquireSurface defaults to render.NewSurface.
	AcquireSurface SurfaceFunc
}

// Options configures a mount.
type Options struct {
	Labels      []string // nil means field.DefaultCatalog
	Rand        *rand.Rand
	TextureSize int
	TimeStep    float64
	Logger      *logging.Logger
	Pool        *sprite.Pool
}

// DefaultOptions returns options for the built-in catalog with a clock seed.
func DefaultOptions() Options {
	return Options{
		Rand:        rand.New(rand.NewSource(time.Now().UnixNano())),
		TextureSize: sprite.DefaultSize,
		TimeStep:    0.01,
	}
}

// View is the mounted field. It is driven from a single goroutine: the host's
// event dispatch and frame callbacks.
type View struct {
	env    Env
	opts   Options
	logger *logging.Logger

	ctx    context.Context
	cancel context.CancelFunc

	orbit      *camera.Controller
	projection *geom.Camera
	scene      *render.Scene
	surface    *render.Surface
	points     []*field.Point
	poses      []field.Pose

	t      float64
	frames int

	frameID      host.FrameID
	framePending bool

	cleanup   cleanup
	unmounted bool
	once      sync.Once
}

// Mount builds the field inside env and starts the frame loop. On failure
// everything acquired so far is released before the error is returned.
func Mount(ctx context.Context, env Env, opts Options) (*View, error) {
	if env.Container == nil || env.Window == nil || env.Scheduler == nil {
		return nil, ErrInvalidEnv
	}
	if env.AcquireSurface == nil {
		env.AcquireSurface = render.NewSurface
	}
	opts = withDefaults(opts)

	v := &View{
		env:    env,
		opts:   opts,
		logger: opts.Logger.With("stackfield"),
		orbit:  camera.New(),
		scene:  render.NewScene(),
	}
	v.ctx, v.cancel = context.WithCancel(ctx)
	v.cleanup.push(v.cancel)

	if err := v.acquire(); err != nil {
		v.cleanup.run()
		v.unmounted = true
		return nil, fmt.Errorf("mount: %w", err)
	}

	v.logger.Info("Mounted %d points", len(v.points))
	return v, nil
}

func withDefaults(opts Options) Options {
	def := DefaultOptions()
	if opts.Rand == nil {
		opts.Rand = def.Rand
	}
	if opts.TextureSize == 0 {
		opts.TextureSize = def.TextureSize
	}
	if opts.TimeStep <= 0 {
		opts.TimeStep = def.TimeStep
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	opts.Labels = field.Catalog(opts.Labels)
	return opts
}

// acquire allocates resources in order, registering each release.
func (v *View) acquire() error {
	width, height := v.env.Container.Bounds()
	if width <= 0 || height <= 0 {
		// Collapsed container: start minimal and wait for a usable resize.
		v.logger.Debug("Container is %dx%d at mount", width, height)
		width, height = max(width, 1), max(height, 1)
	}

	surface, err := v.env.AcquireSurface(width, height)
	if err != nil {
		return err
	}
	v.surface = surface
	v.cleanup.push(surface.Release)
	v.projection = geom.NewCamera(surface.Aspect(), camera.DefaultDistance)

	gen, err := sprite.NewGenerator(v.opts.TextureSize, v.opts.Pool)
	if err != nil {
		return err
	}
	defer gen.Close()

	points, err := field.Initialize(v.opts.Labels, v.opts.Rand, gen.Generate)
	if err != nil {
		return err
	}
	v.points = points
	v.cleanup.push(func() { field.ReleaseAll(v.points) })

	for _, p := range points {
		v.scene.Add(p)
	}
	v.cleanup.push(func() {
		for _, p := range v.points {
			v.scene.Remove(p)
		}
	})

	c := v.env.Container
	v.cleanup.push(c.Listen(host.PointerDown, v.onPointerDown))
	v.cleanup.push(c.Listen(host.PointerMove, v.onPointerMove))
	v.cleanup.push(c.Listen(host.PointerUp, v.onPointerUp))
	v.cleanup.push(c.Listen(host.Wheel, v.onWheel))
	v.cleanup.push(v.env.Window.Listen(host.Resize, v.onResize))

	v.requestFrame()
	v.cleanup.push(v.cancelFrame)
	return nil
}

// Unmount stops the frame loop, detaches listeners and releases textures and
// the surface. Only the first call has any effect.
func (v *View) Unmount() {
	v.once.Do(func() {
		v.unmounted = true
		v.cleanup.run()
		v.logger.Info("Unmounted after %d frames", v.frames)
	})
}

// Unmounted reports whether Unmount has run.
func (v *View) Unmounted() bool {
	return v.unmounted
}

func (v *View) requestFrame() {
	v.frameID = v.env.Scheduler.RequestFrame(v.frame)
	v.framePending = true
}

func (v *View) cancelFrame() {
	if v.framePending {
		v.env.Scheduler.CancelFrame(v.frameID)
		v.framePending = false
	}
}

// frame is the scheduled per-frame callback.
func (v *View) frame() {
	v.framePending = false
	if v.unmounted {
		return
	}
	if err := v.Step(v.t + v.opts.TimeStep); err != nil {
		v.logger.Warn("Frame %d: %v", v.frames, err)
	}
	if !v.unmounted {
		v.requestFrame()
	}
}

// Step advances the view to time t and renders one frame. Hosts normally
// let the scheduler call it; tests and headless output call it directly.
func (v *View) Step(t float64) error {
	if v.unmounted {
		return ErrUnmounted
	}
	v.t = t
	v.frames++

	camera.Apply(v.projection, v.orbit.Tick())
	v.poses = field.UpdateAll(v.points, t)
	return v.surface.Render(v.ctx, v.scene, v.poses, v.projection)
}

func (v *View) onPointerDown(ev *host.Event) {
	v.orbit.Press(ev.X, ev.Y)
}

func (v *View) onPointerMove(ev *host.Event) {
	w, h := v.env.Container.Bounds()
	v.orbit.Move(ev.X, ev.Y, w, h)
}

func (v *View) onPointerUp(*host.Event) {
	v.orbit.Release()
}

func (v *View) onWheel(ev *host.Event) {
	if v.orbit.Wheel(ev.DeltaY) {
		ev.PreventDefault()
	}
}

func (v *View) onResize(*host.Event) {
	w, h := v.env.Container.Bounds()
	if err := v.surface.Resize(w, h); err != nil {
		v.logger.Debug("Resize to %dx%d skipped: %v", w, h, err)
		return
	}
	v.projection.SetAspect(v.surface.Aspect())
}

// Orbit returns the camera controller.
func (v *View) Orbit() *camera.Controller { return v.orbit }

// Projection returns the perspective camera used for the last frame.
func (v *View) Projection() *geom.Camera { return v.projection }

// Surface returns the framebuffer.
func (v *View) Surface() *render.Surface { return v.surface }

// Scene returns the scene graph.
func (v *View) Scene() *render.Scene { return v.scene }

// Points returns the field's points.
func (v *View) Points() []*field.Point { return v.points }

// Poses returns the poses computed for the last frame.
func (v *View) Poses() []field.Pose { return v.poses }

// Time returns the animation time of the last frame.
func (v *View) Time() float64 { return v.t }

// Frames returns how many frames have been stepped.
func (v *View) Frames() int { return v.frames }

// Sprites lays out the last frame's points in screen space, far to near.
func (v *View) Sprites() []render.Sprite {
	if v.unmounted || v.poses == nil {
		return nil
	}
	return v.surface.Layout(v.scene, v.poses, v.projection)
}
