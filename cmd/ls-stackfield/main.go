// Command ls-stackfield renders a rotating field of tech stack labels in the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/litescript/ls-stackfield/internal/config"
	"github.com/litescript/ls-stackfield/internal/export"
	"github.com/litescript/ls-stackfield/internal/host"
	"github.com/litescript/ls-stackfield/internal/logging"
	"github.com/litescript/ls-stackfield/internal/stackfield"
	"github.com/litescript/ls-stackfield/internal/ui"
)

// CLI flags for headless mode
var (
	summaryMode bool
	jsonPath    string
	pngPath     string
	frames      int
	width       int
	height      int
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "YAML config file")
	watchConfig := flag.Bool("watch-config", false, "Reload the config file when it changes")
	seed := flag.Int64("seed", 0, "Placement seed (0 picks one from the clock)")
	fps := flag.Int("fps", 0, "Frames per second (overrides config)")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	logFile := flag.String("log-file", "", "Write logs to file instead of stderr")
	flag.BoolVar(&summaryMode, "summary", false, "Print a text summary instead of the TUI")
	flag.StringVar(&jsonPath, "json", "", "Export the frame as JSON (use - for stdout)")
	flag.StringVar(&pngPath, "png", "", "Export the framebuffer as PNG")
	flag.IntVar(&frames, "frames", 1, "Frames to step before headless export")
	flag.IntVar(&width, "width", 800, "Headless framebuffer width")
	flag.IntVar(&height, "height", 600, "Headless framebuffer height")
	flag.Parse()

	// Set up logging
	logger := logging.New(logging.ParseLevel(*logLevel))
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logger.SetOutput(f)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	overrides := config.Overrides{Seed: *seed, FPS: *fps}
	if err := overrides.Apply(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	// Headless mode: no TUI
	isTTY := term.IsTerminal(int(os.Stdout.Fd()))
	headless := summaryMode || jsonPath != "" || pngPath != "" || !isTTY
	if headless {
		if err := runHeadless(ctx, cfg, logger); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Logs would corrupt the alt screen
	if *logFile == "" {
		logger.SetOutput(io.Discard)
	}

	// Create TUI model
	model, err := ui.New(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer model.Close()

	// Create Bubble Tea program
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithContext(ctx))

	if *watchConfig && *configPath != "" {
		w, err := config.Watch(*configPath, logger)
		if err != nil {
			logger.Warn("Config watch disabled: %v", err)
		} else {
			defer w.Close()
			go runConfigLoop(ctx, w, overrides, p, logger)
		}
	}

	// Run TUI (blocks until quit)
	final, err := p.Run()
	if m, ok := final.(ui.Model); ok {
		m.Close()
	}
	if err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

// runConfigLoop forwards config reloads to the program, keeping the
// command-line overrides.
func runConfigLoop(ctx context.Context, w *config.Watcher, overrides config.Overrides, p *tea.Program, logger *logging.Logger) {
	for {
		select {
		case <-ctx.Done():
			logger.Debug("Config loop shutting down")
			return
		case cfg, ok := <-w.Updates():
			if !ok {
				return
			}
			if err := overrides.Apply(&cfg); err != nil {
				logger.Warn("Config reload rejected: %v", err)
				continue
			}
			logger.Info("Config reloaded: %d labels", len(cfg.Labels))
			p.Send(ui.ConfigReloadMsg{Config: cfg})
		}
	}
}

// runHeadless mounts the field on an offscreen container, steps the
// requested number of frames and writes the outputs.
func runHeadless(ctx context.Context, cfg config.Config, logger *logging.Logger) error {
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	loop := host.NewFrameLoop()
	v, err := stackfield.Mount(ctx, stackfield.Env{
		Container: host.NewContainer(width, height),
		Window:    &host.Window{},
		Scheduler: loop,
	}, stackfield.Options{
		Labels:      cfg.Labels,
		Rand:        rand.New(rand.NewSource(cfg.Seed)),
		TextureSize: cfg.TextureSize,
		TimeStep:    cfg.TimeStep,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	defer v.Unmount()

	for i := 0; i < max(frames, 1); i++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		loop.Step()
	}
	logger.Debug("Headless: %d frames at t=%.2f, seed %d", v.Frames(), v.Time(), cfg.Seed)

	snap := export.ExportFrame(v)

	if pngPath != "" {
		if err := writeFile(pngPath, func(f *os.File) error { return export.WritePNG(f, v) }); err != nil {
			return fmt.Errorf("write PNG: %w", err)
		}
	}

	if jsonPath != "" {
		if jsonPath == "-" {
			if err := snap.WriteJSON(os.Stdout); err != nil {
				return fmt.Errorf("write JSON to stdout: %w", err)
			}
		} else if err := writeFile(jsonPath, func(f *os.File) error { return snap.WriteJSON(f) }); err != nil {
			return fmt.Errorf("write JSON to file: %w", err)
		}
	}

	// Default headless output is the summary
	if summaryMode || (jsonPath == "" && pngPath == "") {
		export.WriteSummary(os.Stdout, snap)
	}
	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
