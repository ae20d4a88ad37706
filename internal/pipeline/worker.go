package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"medingest/internal/doctree"
	"medingest/internal/embedding"
	"medingest/internal/extractor"
	"medingest/internal/interim"
	"medingest/internal/normalizer"
	"medingest/internal/segmenter"
	"medingest/internal/vectorstore"
)

// Worker processes a single document job.
type Worker struct {
	embed     *embedding.Client
	store     *vectorstore.Store
	artifacts *interim.Writer
	log       *slog.Logger
	segCfg    segmenter.Config

	maxConcurrentEmbed int
}

func NewWorker(embed *embedding.Client, store *vectorstore.Store, artifacts *interim.Writer, log *slog.Logger, segCfg segmenter.Config, maxEmbed int) *Worker {
	return &Worker{
		embed:              embed,
		store:              store,
		artifacts:          artifacts,
		log:                log,
		segCfg:             segCfg,
		maxConcurrentEmbed: maxEmbed,
	}
}

// Process runs the full ingest pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID, "filename", job.Filename)

	// Phase 1: Extract
	job.SetStatus(StatusExtracting, "extracting text")
	ex, err := extractor.ForFile(job.Filename)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "extracting")
		return
	}

	doc, err := ex.Extract(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("extraction failed", "error", err)
		job.AddError(fmt.Sprintf("extract: %s", err))
		job.SetStatus(StatusFailed, "extracting")
		return
	}
	if job.Title == "" {
		job.SetTitle(doc.Title)
	}

	hash := ContentHashHex([]byte(doc.Text))
	job.SetContentHash(hash)
	if job.DocID == "" {
		job.SetDocID(hash[:16])
		log = w.log.With("job_id", job.ID, "doc_id", job.DocID, "filename", job.Filename)
	}

	// Phase 2: Normalize
	job.SetStatus(StatusNormalizing, "normalizing text")
	cleaned, err := normalizer.Normalize(doc.Text)
	if err != nil {
		log.Error("normalization failed", "error", err)
		job.AddError(fmt.Sprintf("normalize: %s", err))
		job.SetStatus(StatusFailed, "normalizing")
		return
	}

	// Phase 3: Segment
	job.SetStatus(StatusSegmenting, "building segments")
	cfg := w.segCfg
	if job.MaxUnitSize > 0 {
		cfg.MaxUnitSize = job.MaxUnitSize
	}
	seg, err := segmenter.New(cfg, log)
	if err != nil {
		log.Error("bad segmenter config", "error", err)
		job.AddError(fmt.Sprintf("segment: %s", err))
		job.SetStatus(StatusFailed, "segmenting")
		return
	}
	segments := seg.Segment(cleaned)
	job.SetTotalSegments(len(segments))
	log.Info("segmented document", "segments", len(segments))

	if len(segments) == 0 {
		log.Warn("no segments produced")
		job.AddError("no extractable content")
		job.SetStatus(StatusFailed, "segmenting")
		return
	}

	// Phase 4: Persist intermediate artifacts. Failures here are not fatal.
	if w.artifacts.Enabled() {
		st := stem(job.Filename)
		if err := w.artifacts.WriteNormalized(st, cleaned); err != nil {
			log.Warn("interim write failed", "artifact", "normalized", "error", err)
		}
		rec := interim.NewDocumentRecord(job.DocID, job.Filename, segments)
		if err := w.artifacts.WriteSegments(st, rec); err != nil {
			log.Warn("interim write failed", "artifact", "segments", "error", err)
		}
	}

	// Phase 5: Embed segments with bounded concurrency.
	job.SetStatus(StatusEmbedding, "embedding segments")
	type embedResult struct {
		vector []float32
		err    error
		idx    int
	}
	results := make(chan embedResult, len(segments))
	sem := make(chan struct{}, w.maxConcurrentEmbed)

	for i, s := range segments {
		sem <- struct{}{}
		go func(i int, s doctree.Segment) {
			defer func() { <-sem }()
			var vec []float32
			var lastErr error
			for attempt := range MaxRetries {
				vec, lastErr = w.embed.Embed(ctx, s.Content)
				if lastErr == nil || !IsRetryable(lastErr) {
					break
				}
				log.Warn("retryable embedding error", "segment", i, "attempt", attempt, "error", lastErr)
				select {
				case <-time.After(Backoff(attempt)):
				case <-ctx.Done():
					results <- embedResult{err: ctx.Err(), idx: i}
					return
				}
			}
			results <- embedResult{vector: vec, err: lastErr, idx: i}
		}(i, s)
	}

	vectors := make([][]float32, len(segments))
	hadErrors := false
	embedded := 0
	for range segments {
		r := <-results
		if r.err != nil {
			log.Error("embedding failed", "segment", r.idx, "error", r.err)
			job.AddError(fmt.Sprintf("segment %d: %s", r.idx, r.err))
			hadErrors = true
			continue
		}
		vectors[r.idx] = r.vector
		embedded++
	}
	job.AddEmbedded(embedded)
	log.Info("embedding complete", "embedded", embedded, "errors", hadErrors)

	if embedded == 0 {
		job.SetStatus(StatusFailed, "embedding")
		return
	}

	// Phase 6: Store points in qdrant.
	job.SetStatus(StatusStoring, "storing vectors")
	points := make([]vectorstore.SegmentPoint, 0, embedded)
	for i, s := range segments {
		if vectors[i] == nil {
			continue
		}
		points = append(points, vectorstore.SegmentPoint{
			DocID:         job.DocID,
			Source:        job.Filename,
			Content:       s.Content,
			Context:       s.Breadcrumb,
			Level:         s.Depth,
			ChunkIndex:    s.Index,
			PageNumber:    s.Page,
			TotalSegments: len(segments),
			Vector:        vectors[i],
		})
	}

	if err := w.store.EnsureCollection(ctx, len(points[0].Vector)); err != nil {
		log.Error("collection setup failed", "error", err)
		job.AddError(fmt.Sprintf("collection: %s", err))
		job.SetStatus(StatusFailed, "storing")
		return
	}
	if err := w.store.Upsert(ctx, points); err != nil {
		log.Error("upsert failed", "error", err)
		job.AddError(fmt.Sprintf("store: %s", err))
		job.SetStatus(StatusFailed, "storing")
		return
	}
	job.AddStored(len(points))
	log.Info("storage complete", "stored", len(points), "total", len(segments))

	if hadErrors {
		job.SetStatus(StatusPartial, "done")
	} else {
		job.SetStatus(StatusCompleted, "done")
	}
}

// stem returns the filename without directory or extension, used to name
// intermediate artifacts.
func stem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
