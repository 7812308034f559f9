package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-renamer/internal/fields"
	"github.com/joseph-ayodele/invoice-renamer/internal/filename"
	"github.com/joseph-ayodele/invoice-renamer/internal/llm"
	"github.com/joseph-ayodele/invoice-renamer/internal/normalize"
	"github.com/joseph-ayodele/invoice-renamer/internal/place"
)

// Options controls a run. MoveTo empty means each document stays in its own
// directory under the new name.
type Options struct {
	DryRun   bool
	AllPages bool
	MoveTo   string
	Workers  int
}

// Result is the per-document outcome. Exactly one of Err or Plan is
// meaningful; a failed document never mutates the filesystem.
type Result struct {
	Path  string
	ReqID string
	Plan  place.RenamePlan
	Err   error
}

// Pipeline coordinates the per-document stages: normalize, analyze, extract,
// synthesize, place. Each document is independent; one failure never stops
// the batch.
type Pipeline struct {
	logger     *slog.Logger
	normalizer *normalize.Normalizer
	analyzer   llm.Analyzer
	extractor  *fields.Extractor
	placer     *place.Placer
	opts       Options
}

func New(logger *slog.Logger, n *normalize.Normalizer, a llm.Analyzer, opts Options) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Pipeline{
		logger:     logger,
		normalizer: n,
		analyzer:   a,
		extractor:  fields.NewExtractor(logger),
		placer:     place.NewPlacer(logger),
		opts:       opts,
	}
}

// ProcessDocument runs the full stage sequence for one file. Every log line
// carries the per-document req_id so interleaved worker output stays legible.
func (p *Pipeline) ProcessDocument(ctx context.Context, path string) Result {
	reqID := uuid.NewString()
	res := Result{Path: path, ReqID: reqID}
	log := p.logger.With("req_id", reqID, "path", path)

	log.Info("pipeline.start")

	doc, err := normalize.NewInputDocument(path)
	if err != nil {
		res.Err = err
		log.Error("pipeline.input.failed", "error", err)
		return res
	}

	units, err := p.normalizer.Normalize(ctx, doc, p.opts.AllPages)
	if err != nil {
		res.Err = err
		log.Error("pipeline.normalize.failed", "error", err)
		return res
	}
	payload := 0
	for _, u := range units {
		payload += u.SizeBytes()
	}
	log.Info("pipeline.normalize.ok", "units", len(units), "payload_bytes", payload)

	analysis, err := p.analyzer.Analyze(ctx, units, reqID)
	if err != nil {
		res.Err = err
		log.Error("pipeline.analyze.failed", "error", err)
		return res
	}

	rec, err := p.extractor.Extract(analysis, reqID)
	if err != nil {
		res.Err = err
		log.Error("pipeline.extract.failed", "error", err)
		return res
	}

	name := filename.Synthesize(rec, doc.Ext)
	log.Info("pipeline.synthesize.ok", "filename", name)

	targetDir := p.opts.MoveTo
	if targetDir == "" {
		targetDir = filepath.Dir(path)
	}

	plan, err := p.placer.Place(path, name, targetDir, p.opts.DryRun)
	if err != nil {
		res.Err = err
		log.Error("pipeline.place.failed", "error", err)
		return res
	}
	res.Plan = plan

	log.Info("pipeline.done", "final", plan.FinalPath, "noop", plan.NoOp, "dry_run", p.opts.DryRun)
	return res
}
