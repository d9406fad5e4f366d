package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/geosolve"
	"github.com/aretw0/geosolve/internal/config"
	"github.com/aretw0/geosolve/internal/presentation/tui"
	"github.com/aretw0/geosolve/pkg/domain"
	"github.com/aretw0/geosolve/pkg/render"
)

// RunOptions contains all the configuration for the Run command.
type RunOptions struct {
	Config *config.Config
	File   string
	Sets   []string
	Export bool
	Frame  string
	Quiet  bool
	Out    io.Writer
}

// Run uploads one model file, solves it and reports the result. The exported
// file and the rendered frame are written when requested.
func Run(ctx context.Context, opts RunOptions, logger *slog.Logger) error {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	values, err := ParseSets(opts.Sets)
	if err != nil {
		return err
	}

	extra := []geosolve.Option{}
	if !opts.Quiet {
		extra = append(extra, geosolve.WithBusyIndicator(tui.BusyLine(opts.Out)))
	}
	engine, cleanup, err := createEngine(opts.Config, logger, extra...)
	if err != nil {
		return err
	}
	defer cleanup()

	sigCtx := NewSignalContext(ctx)
	defer sigCtx.Cancel()
	defer engine.Close(context.Background())

	sess, err := engine.SolveFile(sigCtx, opts.File, values)
	if sess == nil {
		return err
	}
	if err != nil && !errors.Is(err, domain.ErrEmptyResult) {
		if sig := sigCtx.Signal(); sig != nil {
			printSystemMessage(opts.Out, "Interrupted (%v).", sig)
			return nil
		}
		if !opts.Quiet {
			tui.Print(opts.Out, tui.StatusMarkdown(sess.Status(), "", ""))
		}
		return err
	}

	var artifact string
	if opts.Export && sess.Status().ExportEnabled {
		art, err := sess.Export(sigCtx)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		artifact = art.Filename
		if opts.Config.Server.RedisURL == "" {
			artifact = filepath.Join(opts.Config.ExportDir, art.Filename)
		}
	}

	if opts.Frame != "" {
		rast := render.NewRasterizer(render.WithSupersample(opts.Config.Viewport.Supersample))
		data, err := rast.RenderPNG(sess.Viewport().Snapshot())
		if err != nil {
			return fmt.Errorf("failed to render frame: %w", err)
		}
		if err := os.WriteFile(opts.Frame, data, 0o644); err != nil {
			return fmt.Errorf("failed to write frame: %w", err)
		}
	}

	if opts.Quiet {
		return nil
	}
	return tui.Print(opts.Out, tui.StatusMarkdown(sess.Status(), artifact, opts.Frame))
}
