package cli

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"medingest/internal/config"
	"medingest/internal/embedding"
	"medingest/internal/extractor"
	"medingest/internal/interim"
	"medingest/internal/normalizer"
	"medingest/internal/pipeline"
	"medingest/internal/segmenter"
	"medingest/internal/vectorstore"
)

var (
	flagOutDir      string
	flagMaxUnitSize int
	flagSkipEmbed   bool
	flagOllamaHost  string
	flagModel       string
	flagQdrantAddr  string
	flagCollection  string
)

var runCmd = &cobra.Command{
	Use:   "run <dir>",
	Short: "Process every supported document under a directory",
	Long: `Run walks a directory tree, processes each supported document through
extract, normalize and segment stages, writes the intermediate artifacts,
then embeds the segments and upserts them into Qdrant.

Examples:
  medingest run ./data/raw
  medingest run ./data/raw --out ./data/processed --max-unit-size 256
  medingest run ./data/raw --skip-embed`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	cfg := config.Load()
	runCmd.Flags().StringVar(&flagOutDir, "out", "out", "Directory for intermediate artifacts")
	runCmd.Flags().IntVar(&flagMaxUnitSize, "max-unit-size", cfg.MaxUnitSize, "Maximum estimated tokens per segment")
	runCmd.Flags().BoolVar(&flagSkipEmbed, "skip-embed", false, "Stop after writing artifacts, do not embed or store")
	runCmd.Flags().StringVar(&flagOllamaHost, "ollama-host", cfg.OllamaHost, "Ollama base URL")
	runCmd.Flags().StringVar(&flagModel, "model", cfg.EmbedModel, "Embedding model name")
	runCmd.Flags().StringVar(&flagQdrantAddr, "qdrant-addr", cfg.QdrantAddr, "Qdrant gRPC address")
	runCmd.Flags().StringVar(&flagCollection, "collection", cfg.Collection, "Qdrant collection name")
}

func runRun(cmd *cobra.Command, args []string) error {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := cmd.Context()

	inputDir := args[0]
	info, err := os.Stat(inputDir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("input directory not found: %s", inputDir)
	}

	files, err := findSupported(inputDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		log.Warn("no supported files found", "dir", inputDir)
		return nil
	}
	log.Info("found documents", "count", len(files), "dir", inputDir)

	segCfg := segmenter.DefaultConfig()
	segCfg.MaxUnitSize = flagMaxUnitSize
	seg, err := segmenter.New(segCfg, log)
	if err != nil {
		return err
	}

	artifacts, err := interim.NewWriter(flagOutDir)
	if err != nil {
		return err
	}

	var embed *embedding.Client
	var store *vectorstore.Store
	if !flagSkipEmbed {
		cfg := config.Load()
		embed, err = embedding.NewClient(flagOllamaHost, flagModel, cfg.MaxConcurrentEmbed)
		if err != nil {
			return fmt.Errorf("ollama client: %w", err)
		}
		store, err = vectorstore.New(flagQdrantAddr, flagCollection)
		if err != nil {
			return fmt.Errorf("qdrant client: %w", err)
		}
		defer store.Close()
	}

	successful := 0
	var failedFiles []string
	for i, path := range files {
		log.Info("processing", "file", filepath.Base(path), "index", i+1, "total", len(files))
		if err := processFile(ctx, path, seg, artifacts, embed, store, log); err != nil {
			log.Error("processing failed", "file", filepath.Base(path), "error", err)
			failedFiles = append(failedFiles, filepath.Base(path))
			continue
		}
		successful++
	}

	log.Info("pipeline complete", "successful", successful, "failed", len(failedFiles), "total", len(files))
	if len(failedFiles) > 0 {
		return fmt.Errorf("failed to process %d file(s): %s", len(failedFiles), strings.Join(failedFiles, ", "))
	}
	return nil
}

func processFile(ctx context.Context, path string, seg *segmenter.Segmenter, artifacts *interim.Writer, embed *embedding.Client, store *vectorstore.Store, log *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	filename := filepath.Base(path)
	ex, err := extractor.ForFile(filename)
	if err != nil {
		return err
	}
	doc, err := ex.Extract(bytes.NewReader(data), filename)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	cleaned, err := normalizer.Normalize(doc.Text)
	if err != nil {
		return fmt.Errorf("normalize: %w", err)
	}

	segments := seg.Segment(cleaned)
	if len(segments) == 0 {
		return fmt.Errorf("no extractable content")
	}
	log.Info("segmented", "file", filename, "segments", len(segments))

	docID := pipeline.ContentHashHex([]byte(doc.Text))[:16]
	st := strings.TrimSuffix(filename, filepath.Ext(filename))
	if err := artifacts.WriteNormalized(st, cleaned); err != nil {
		return fmt.Errorf("write normalized: %w", err)
	}
	rec := interim.NewDocumentRecord(docID, filename, segments)
	if err := artifacts.WriteSegments(st, rec); err != nil {
		return fmt.Errorf("write segments: %w", err)
	}

	if embed == nil {
		return nil
	}

	vectors, err := embed.EmbedSegments(ctx, segments)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}

	points := make([]vectorstore.SegmentPoint, len(segments))
	for i, s := range segments {
		points[i] = vectorstore.SegmentPoint{
			DocID:         docID,
			Source:        filename,
			Content:       s.Content,
			Context:       s.Breadcrumb,
			Level:         s.Depth,
			ChunkIndex:    s.Index,
			PageNumber:    s.Page,
			TotalSegments: len(segments),
			Vector:        vectors[i],
		}
	}

	if err := store.EnsureCollection(ctx, len(points[0].Vector)); err != nil {
		return fmt.Errorf("collection: %w", err)
	}
	if err := store.Upsert(ctx, points); err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	log.Info("stored", "file", filename, "doc_id", docID, "points", len(points))
	return nil
}

func findSupported(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if extractor.IsSupportedExtension(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
