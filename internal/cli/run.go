package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/config"
	"github.com/aretw0/parley/internal/presentation/tui"
	"golang.org/x/term"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	SessionID    string
	Name         string
	MaxQuestions int
	JSON         bool
	Fresh        bool
	Debug        bool
}

// Execute handles the 'run' command: build the engine and hold the interview
// on stdin/stdout.
func Execute(cfg *config.Config, logger *slog.Logger, opts RunOptions) error {
	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	var extra []parley.Option
	if opts.Debug {
		extra = append(extra, parley.WithLifecycleHooks(CreateDebugHooks(logger)))
	}
	engine, err := CreateEngine(sigCtx, cfg, logger, extra...)
	if err != nil {
		return err
	}
	defer engine.Close()

	handler := newHandler(os.Stdin, os.Stdout, opts.JSON, term.IsTerminal(int(os.Stdout.Fd())))

	err = RunSession(sigCtx, engine, opts, handler)
	if sigCtx.Signal() != nil {
		logger.Info("Interrupted", "signal", sigCtx.Signal())
	}
	if err != nil && !isInterrupted(err) {
		return fmt.Errorf("session failed: %w", err)
	}
	return nil
}

// newHandler picks JSON Lines, or text with markdown rendering and the banner
// when stdout is a terminal.
func newHandler(r io.Reader, w io.Writer, jsonMode, tty bool) IOHandler {
	if jsonMode {
		return NewJSONHandler(r, w)
	}
	h := NewTextHandler(r, w)
	if tty {
		tui.PrintBanner(w)
		h.Renderer = tui.NewRenderer()
	}
	return h
}
