package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"medingest/internal/config"
	"medingest/internal/embedding"
	"medingest/internal/interim"
	"medingest/internal/segmenter"
	"medingest/internal/vectorstore"
)

// Orchestrator manages the document ingestion pipeline.
type Orchestrator struct {
	jobs      *JobStore
	queue     chan *Job
	embed     *embedding.Client
	store     *vectorstore.Store
	artifacts *interim.Writer
	log       *slog.Logger
	cfg       config.Config
	segCfg    segmenter.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Start must be called before jobs run.
func NewOrchestrator(cfg config.Config, embed *embedding.Client, store *vectorstore.Store, artifacts *interim.Writer, log *slog.Logger) *Orchestrator {
	segCfg := segmenter.DefaultConfig()
	segCfg.MaxUnitSize = cfg.MaxUnitSize
	return &Orchestrator{
		jobs:      NewJobStore(cfg.JobTTL),
		queue:     make(chan *Job, cfg.MaxQueueSize),
		embed:     embed,
		store:     store,
		artifacts: artifacts,
		log:       log,
		cfg:       cfg,
		segCfg:    segCfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.embed, o.store, o.artifacts, o.log, o.segCfg, o.cfg.MaxConcurrentEmbed)
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
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
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

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// VectorStore returns the qdrant store for direct use by API handlers.
func (o *Orchestrator) VectorStore() *vectorstore.Store {
	return o.store
}

// EmbeddingClient returns the embedding client for direct use by API handlers.
func (o *Orchestrator) EmbeddingClient() *embedding.Client {
	return o.embed
}
