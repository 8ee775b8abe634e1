package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/maypok86/otter"

	"github.com/dgallion1/smeta/internal/extract"
	"github.com/dgallion1/smeta/internal/verify"
)

// Worker processes a single estimate job.
type Worker struct {
	extractor *extract.Extractor
	cache     *otter.Cache[string, cachedResult]
	log       *slog.Logger
}

func NewWorker(extractor *extract.Extractor, cache *otter.Cache[string, cachedResult], log *slog.Logger) *Worker {
	return &Worker{
		extractor: extractor,
		cache:     cache,
		log:       log,
	}
}

// Process parses and verifies the job's upload. Identical uploads are served
// from the result cache.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)
	defer job.releaseFileData()

	if err := ctx.Err(); err != nil {
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "cancelled")
		return
	}

	if job.Title == "" {
		job.mu.Lock()
		job.Title = job.Filename
		job.mu.Unlock()
	}

	if w.cache != nil {
		if hit, ok := w.cache.Get(job.ContentHash); ok {
			log.Info("result served from cache", "content_hash", job.ContentHash)
			job.SetResult(hit.est, hit.checks)
			job.SetStatus(StatusCompleted, "cached")
			return
		}
	}

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	est, err := w.extractor.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	// Phase 2: Verify
	job.SetStatus(StatusVerifying, "verifying")
	checks, err := verify.Run(est)
	if err != nil {
		log.Error("verify failed", "error", err)
		job.AddError(fmt.Sprintf("verify: %s", err))
		job.SetStatus(StatusFailed, "verifying")
		return
	}

	job.SetResult(est, checks)
	if w.cache != nil {
		w.cache.Set(job.ContentHash, cachedResult{est: est, checks: checks})
	}
	log.Info("extraction complete",
		"sections", len(est.Sections),
		"total_cost", est.TotalCost,
		"all_checks_passed", verify.AllPassed(checks),
	)
	job.SetStatus(StatusCompleted, "done")
}
