package pipeline

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// Summary aggregates a batch run. Canceled counts documents whose worker
// never ran because the run was interrupted; they are reported distinctly so
// the summary never claims a rename that did not happen.
type Summary struct {
	Total    int
	Renamed  int
	NoOp     int
	Failed   int
	Canceled int
	Results  []Result
}

// Run processes every file with a bounded worker pool. Results come back in
// input order, one per input file even when the run is interrupted mid-batch.
// Document failures live in their Result; the returned error is only ever the
// interruption cause.
func (p *Pipeline) Run(ctx context.Context, files []string) (Summary, error) {
	results := make([]Result, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)

	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = Result{Path: path, Err: err}
				return err
			}
			results[i] = p.ProcessDocument(ctx, path)
			return nil
		})
	}
	err := g.Wait()

	sum := Summary{Total: len(files), Results: results}
	for _, r := range results {
		switch {
		case isCanceled(r.Err):
			sum.Canceled++
		case r.Err != nil:
			sum.Failed++
		case r.Plan.NoOp:
			sum.NoOp++
		default:
			sum.Renamed++
		}
	}
	p.logger.Info("pipeline.summary",
		"total", sum.Total, "renamed", sum.Renamed, "noop", sum.NoOp,
		"failed", sum.Failed, "canceled", sum.Canceled)
	return sum, err
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
