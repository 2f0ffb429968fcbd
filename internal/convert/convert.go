// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert drives CR2 conversion in single-file or batch mode. A
// Driver validates the source for the selected mode, discovers candidates,
// and converts each through a Codec, printing per-file status to a writer.
package convert

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/schollz/progressbar/v3"

	"github.com/pdiddy/cr2-converter/internal/paths"
	"github.com/pdiddy/cr2-converter/pkg/types"
)

// Recorder stores completed conversions. The catalog package implements it.
type Recorder interface {
	Record(ctx context.Context, rec types.ConversionRecord) error
}

// BatchResult holds the outcome of a batch run.
type BatchResult struct {
	Converted int
	Planned   int
}

// Total returns the number of candidates processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Planned
}

// Driver converts the inputs named by a resolved ConversionConfig.
type Driver struct {
	cfg      types.ConversionConfig
	codec    Codec
	paths    paths.Builder
	w        io.Writer
	logger   *log.Logger
	recorder Recorder
	progress io.Writer
	now      func() time.Time
}

// Option configures optional Driver collaborators.
type Option func(*Driver)

// WithLogger sets the diagnostics logger. The default discards output.
func WithLogger(l *log.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// WithRecorder records every successful conversion.
func WithRecorder(r Recorder) Option {
	return func(d *Driver) { d.recorder = r }
}

// WithProgress draws a progress bar on w during batch runs.
func WithProgress(w io.Writer) Option {
	return func(d *Driver) { d.progress = w }
}

// NewDriver returns a Driver for cfg, which must already be resolved with
// ResolveConfig and pass CheckDestination. Status lines are written to w.
func NewDriver(cfg types.ConversionConfig, codec Codec, w io.Writer, opts ...Option) *Driver {
	d := &Driver{
		cfg:    cfg,
		codec:  codec,
		paths:  paths.NewBuilder(cfg),
		w:      w,
		logger: log.New(io.Discard),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run dispatches to Batch or Single according to the configuration.
func (d *Driver) Run(ctx context.Context) error {
	if d.cfg.Batch {
		_, err := d.Batch(ctx)
		return err
	}
	_, err := d.Single(ctx)
	return err
}

// Single converts the one file named by Source. The file name must end in
// the exact extension CR2.
func (d *Driver) Single(ctx context.Context) (types.ConversionStatus, error) {
	if d.cfg.Verbose {
		fmt.Fprint(d.w, "Running in single mode\n\n")
	}

	stem, ext := paths.SplitName(paths.Basename(d.cfg.Source))
	if ext != types.RawExtension {
		if isDir(d.cfg.Source) {
			return types.ConversionFailed, fmt.Errorf("%w: %s", ErrSourceIsDirectory, d.cfg.Source)
		}
		return types.ConversionFailed, fmt.Errorf("%w: %s", ErrNotRawFile, d.cfg.Source)
	}

	c := types.Candidate{Path: d.cfg.Source, Stem: stem}
	if d.cfg.DryRun {
		d.reportPlanned(c)
		return types.ConversionPlanned, nil
	}
	if _, err := d.ConvertImage(ctx, c); err != nil {
		return types.ConversionFailed, err
	}
	return types.ConversionDone, nil
}

// Batch converts every .CR2 file directly inside Source. An empty
// directory is not an error. The first failed conversion stops the run.
func (d *Driver) Batch(ctx context.Context) (BatchResult, error) {
	var result BatchResult
	if d.cfg.Verbose {
		fmt.Fprint(d.w, "Running in batch mode\n\n")
	}

	candidates, err := d.Discover()
	if err != nil {
		return result, err
	}
	if len(candidates) == 0 {
		fmt.Fprintln(d.w, noCandidatesMessage)
		return result, nil
	}

	bar := d.progressBar(len(candidates))
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if d.cfg.DryRun {
			d.reportPlanned(c)
			result.Planned++
		} else {
			if _, err := d.ConvertImage(ctx, c); err != nil {
				return result, err
			}
			result.Converted++
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	fmt.Fprintf(d.w, "\nBatch summary: %d converted, %d planned (total: %d)\n",
		result.Converted, result.Planned, result.Total())
	return result, nil
}

// Discover lists the regular files directly inside Source whose names end
// in ".CR2". Subdirectories are not searched.
func (d *Driver) Discover() ([]types.Candidate, error) {
	if !isDir(d.cfg.Source) {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotDirectory, d.cfg.Source)
	}
	entries, err := os.ReadDir(d.cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("reading source directory %s: %w", d.cfg.Source, err)
	}

	var candidates []types.Candidate
	for _, e := range entries {
		name := e.Name()
		path := d.paths.SourcePath(name)
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if !paths.IsRawName(name) {
			d.logger.Debug("skipping", "file", name)
			continue
		}
		stem, _ := paths.SplitName(name)
		candidates = append(candidates, types.Candidate{Path: path, Stem: stem})
	}
	d.logger.Debug("discovered raw files", "dir", d.cfg.Source, "count", len(candidates))
	return candidates, nil
}

// ConvertImage decodes c, converts it to RGB and writes it to the
// destination in the configured format. It returns the output path.
func (d *Driver) ConvertImage(ctx context.Context, c types.Candidate) (string, error) {
	fmt.Fprintf(d.w, "Converting %s to %s..\n", c.Stem, d.cfg.Format)

	img, err := d.codec.Open(c.Path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", c.Path, err)
	}
	b := img.Bounds()
	d.logger.Debug("decoded", "file", c.Path, "width", b.Dx(), "height", b.Dy())

	output := d.paths.OutputPath(c.Stem)
	if err := d.codec.Save(ToRGB(img), output, d.cfg.Format); err != nil {
		fmt.Fprintln(d.w, saveFailureHint)
		return "", fmt.Errorf("saving %s: %w", output, err)
	}

	if d.cfg.Verbose {
		fmt.Fprintf(d.w, "Conversion successful for %s\nOutput location: %s\n\n", c.Stem, output)
	}

	if d.recorder != nil {
		if err := d.record(ctx, c, output); err != nil {
			return output, err
		}
	}
	return output, nil
}

func (d *Driver) record(ctx context.Context, c types.Candidate, output string) error {
	meta, err := d.codec.Metadata(c.Path)
	if err != nil {
		d.logger.Warn("reading metadata", "file", c.Path, "err", err)
	}
	rec := types.ConversionRecord{
		Source:      c.Path,
		Output:      output,
		Format:      d.cfg.Format,
		Metadata:    meta,
		ConvertedAt: d.now().UTC(),
	}
	if err := d.recorder.Record(ctx, rec); err != nil {
		return fmt.Errorf("recording conversion of %s: %w", c.Path, err)
	}
	return nil
}

func (d *Driver) reportPlanned(c types.Candidate) {
	if d.cfg.Verbose {
		fmt.Fprintf(d.w, "dry run: %s -> %s\n", c.Path, d.paths.OutputPath(c.Stem))
	}
}

func (d *Driver) progressBar(n int) *progressbar.ProgressBar {
	if d.progress == nil {
		return nil
	}
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(d.progress),
		progressbar.OptionSetDescription("Converting"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}
