package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	minimapanalyzer "github.com/menta2k/minimap-analyzer"
	"github.com/menta2k/minimap-analyzer/internal/utils"
	"github.com/menta2k/minimap-analyzer/pkg/selection"
	"github.com/menta2k/minimap-analyzer/pkg/types"
)

type analyzeFlags struct {
	bounds    string
	outDir    string
	overlay   bool
	format    string
	width     int
	workers   int
	tolerance float64
	stdout    bool
}

func newAnalyzeCmd(a *app) *cobra.Command {
	f := &analyzeFlags{}
	cmd := &cobra.Command{
		Use:   "analyze <screenshot|dir|URL>...",
		Short: "Locate players on the minimap of one or more screenshots",
		Example: `  minimap-analyzer analyze round12.png --bounds 0,0,220,300
  minimap-analyzer analyze shots/ --workers 4 --overlay --backend llamacpp`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAnalyze(cmd, f, args)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.bounds, "bounds", "", "manual minimap rectangle xmin,ymin,xmax,ymax on the 0-1000 scale")
	fl.StringVar(&f.outDir, "out", "", "output directory for results and overlays")
	fl.BoolVar(&f.overlay, "overlay", false, "write minimap and debug overlay images")
	fl.StringVar(&f.format, "overlay-format", "", "overlay image format: png|jpg|webp")
	fl.IntVar(&f.width, "overlay-width", 0, "width of the rendered minimap in pixels")
	fl.IntVar(&f.workers, "workers", 0, "screenshots analyzed concurrently")
	fl.Float64Var(&f.tolerance, "tolerance", 0, "widen the minimap inclusion test, in 0-1000 units")
	fl.BoolVar(&f.stdout, "stdout", false, "also print each result as JSON to stdout")
	return cmd
}

func (a *app) runAnalyze(cmd *cobra.Command, f *analyzeFlags, args []string) error {
	fl := cmd.Flags()
	out := &a.cfg.Output
	if fl.Changed("out") {
		out.OutputDir = f.outDir
	}
	if fl.Changed("overlay") {
		out.Overlay = f.overlay
	}
	if fl.Changed("overlay-format") {
		out.Format = f.format
	}
	if fl.Changed("overlay-width") {
		out.OverlayWidth = f.width
	}
	if fl.Changed("workers") {
		a.cfg.Workers = f.workers
	}
	if fl.Changed("tolerance") {
		a.cfg.Normalize.Tolerance = f.tolerance
	}

	var manual *types.MinimapBounds
	if f.bounds != "" {
		b, err := selection.Parse(f.bounds)
		if err != nil {
			return fmt.Errorf("--bounds: %w", err)
		}
		manual = &b
	}

	analyzer, err := a.newAnalyzer()
	if err != nil {
		return err
	}

	inputs, err := utils.ExpandInputs(args)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no screenshots found in %s", strings.Join(args, ", "))
	}
	if err := utils.EnsureDir(out.OutputDir); err != nil {
		return err
	}

	a.logger.Info("analyzing",
		"screenshots", len(inputs),
		"backend", a.cfg.Provider.Backend,
		"model", a.cfg.Provider.Model,
		"workers", a.cfg.Workers)

	var failed atomic.Int32
	var g errgroup.Group
	g.SetLimit(a.cfg.Workers)
	stems := utils.UniqueStems(inputs)
	for i, in := range inputs {
		g.Go(func() error {
			if err := a.analyzeOne(cmd.Context(), analyzer, in, stems[i], manual, f.stdout); err != nil {
				failed.Add(1)
				a.logger.Error("analysis failed", "input", in, "err", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%w: %d of %d", errFailed, n, len(inputs))
	}
	return nil
}

func (a *app) analyzeOne(ctx context.Context, analyzer *minimapanalyzer.Analyzer, in, stem string, manual *types.MinimapBounds, stdout bool) error {
	if timeout := time.Duration(a.cfg.Provider.Timeout); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	proc := analyzer.Processor()
	img, err := proc.LoadImageSmart(in)
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := analyzer.Analyze(ctx, img, manual)
	if err != nil {
		return err
	}
	a.logger.Info("analyzed",
		"input", in,
		"map", result.MapName,
		"players", len(result.Players),
		"bounds", result.BoundsSource,
		"took", time.Since(start).Round(time.Millisecond))

	js, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	out := a.cfg.Output
	jsonPath := utils.OutputPath(stem, out.OutputDir, "", "json")
	if err := os.WriteFile(jsonPath, js, 0o644); err != nil {
		return err
	}
	a.logger.Debug("wrote", "path", jsonPath)
	if stdout {
		fmt.Fprintln(os.Stdout, string(js))
	}

	if !out.Overlay {
		return nil
	}
	ext := strings.ToLower(out.Format)

	mm, err := proc.RenderMinimap(img, result, out.OverlayWidth)
	if err != nil {
		return fmt.Errorf("render minimap: %w", err)
	}
	mmPath := utils.OutputPath(stem, out.OutputDir, "_minimap", ext)
	if err := proc.SaveImage(mm, mmPath, ext, 92, false); err != nil {
		return err
	}

	dbg, err := proc.CreateDebugOverlay(img, result)
	if err != nil {
		return fmt.Errorf("debug overlay: %w", err)
	}
	dbgPath := utils.OutputPath(stem, out.OutputDir, "_debug", ext)
	if err := proc.SaveImage(dbg, dbgPath, ext, 92, false); err != nil {
		return err
	}
	a.logger.Debug("wrote overlays", "minimap", mmPath, "debug", dbgPath)
	return nil
}
