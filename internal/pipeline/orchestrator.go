package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/maypok86/otter"

	"github.com/dgallion1/smeta/internal/config"
	"github.com/dgallion1/smeta/internal/estimate"
	"github.com/dgallion1/smeta/internal/extract"
	"github.com/dgallion1/smeta/internal/verify"
)

// cachedResult is shared between jobs with identical uploads and must not be
// modified.
type cachedResult struct {
	est    *estimate.Estimate
	checks []verify.Check
}

// CacheStats reports result cache effectiveness.
type CacheStats struct {
	Enabled bool    `json:"enabled"`
	Size    int     `json:"size"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Ratio   float64 `json:"ratio"`
}

// Orchestrator manages the extraction pipeline.
type Orchestrator struct {
	jobs      *JobStore
	queue     chan *Job
	extractor *extract.Extractor
	cache     *otter.Cache[string, cachedResult] // nil when disabled
	log       *slog.Logger
	cfg       config.Config

	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, extractor *extract.Extractor, log *slog.Logger) (*Orchestrator, error) {
	o := &Orchestrator{
		jobs:      NewJobStore(cfg.JobTTL),
		queue:     make(chan *Job, cfg.MaxQueueSize),
		extractor: extractor,
		log:       log,
		cfg:       cfg,
	}
	if cfg.CacheSize > 0 {
		cache, err := otter.MustBuilder[string, cachedResult](cfg.CacheSize).
			CollectStats().
			WithTTL(cfg.JobTTL).
			Build()
		if err != nil {
			return nil, fmt.Errorf("build result cache: %w", err)
		}
		o.cache = &cache
	}
	return o, nil
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for i := range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.extractor, o.cache, o.log.With("worker", i))
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() {
		if o.cancel != nil {
			o.cancel()
		}
		close(o.queue)
		o.wg.Wait()
		if o.cache != nil {
			o.cache.Close()
		}
	})
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		o.log.Debug("job queued", "job_id", job.ID, "filename", job.Filename)
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// DeleteJob forgets a job. A job still queued is processed but its outcome
// is no longer reachable.
func (o *Orchestrator) DeleteJob(id string) bool {
	return o.jobs.Delete(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// JobCount returns the number of tracked jobs.
func (o *Orchestrator) JobCount() int {
	return o.jobs.Len()
}

func (o *Orchestrator) CacheStats() CacheStats {
	if o.cache == nil {
		return CacheStats{}
	}
	st := o.cache.Stats()
	return CacheStats{
		Enabled: true,
		Size:    o.cache.Size(),
		Hits:    st.Hits(),
		Misses:  st.Misses(),
		Ratio:   st.Ratio(),
	}
}
