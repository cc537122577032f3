// Package indexer loads the crawled page corpus into the semantic index.
package indexer

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/degreefyd/assistant/internal/models"
	"github.com/degreefyd/assistant/internal/semantic"
)

const (
	defaultDocType = "page"
	batchSize      = 128
	maxLineBytes   = 64 << 20
)

// chunkNamespace seeds deterministic chunk IDs, so re-indexing a page
// replaces its chunks instead of duplicating them.
var chunkNamespace = uuid.MustParse("6f1c1a52-3b0e-4d55-9a57-4b0f4a6d2f10")

// Record is one line of the JSONL corpus.
type Record struct {
	URL     string `json:"url"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Stats summarizes one load.
type Stats struct {
	Records   int  `json:"records"`
	Malformed int  `json:"malformed"`
	Chunks    int  `json:"chunks"`
	Skipped   bool `json:"skipped"`
}

// Indexer chunks corpus records and adds them to a semantic index.
type Indexer struct {
	index   semantic.Index
	chunker *Chunker
	logger  *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for progress output.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// NewIndexer creates an indexer writing to index with the given chunking
// (in characters).
func NewIndexer(index semantic.Index, chunkSize, chunkOverlap int, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		index:   index,
		chunker: NewChunker(chunkSize, chunkOverlap),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// IndexFile loads the JSONL corpus at path. See Load.
func (idx *Indexer) IndexFile(ctx context.Context, path string, force bool) (*Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus: %w", err)
	}
	defer f.Close()
	return idx.Load(ctx, f, force)
}

// Load reads JSONL records from r and indexes their chunks. Blank and
// malformed lines are skipped. When the index already holds documents and
// force is false, nothing is read and Stats.Skipped is set.
func (idx *Indexer) Load(ctx context.Context, r io.Reader, force bool) (*Stats, error) {
	stats := &Stats{}
	if n := idx.index.Count(); n > 0 && !force {
		idx.logger.Info("semantic index already populated, skipping corpus load", zap.Int("documents", n))
		stats.Skipped = true
		return stats, nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1<<20), maxLineBytes)
	var pending []models.Document
	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		if err := idx.index.Add(ctx, pending); err != nil {
			return fmt.Errorf("failed to index chunks: %w", err)
		}
		stats.Chunks += len(pending)
		pending = pending[:0]
		return nil
	}

	recordNum := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			stats.Malformed++
			continue
		}
		pending = append(pending, idx.Documents(recordNum, rec)...)
		recordNum++
		stats.Records++
		if len(pending) >= batchSize {
			if err := flush(); err != nil {
				return stats, err
			}
		}
		if stats.Records%1000 == 0 {
			idx.logger.Info("corpus progress", zap.Int("records", stats.Records), zap.Int("chunks", stats.Chunks))
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("failed to read corpus: %w", err)
	}
	if err := flush(); err != nil {
		return stats, err
	}
	idx.logger.Info("corpus loaded",
		zap.Int("records", stats.Records),
		zap.Int("malformed", stats.Malformed),
		zap.Int("chunks", stats.Chunks),
	)
	return stats, nil
}

// Documents chunks one record and tags every chunk with the record's
// metadata. Names are extracted from the whole record, not per chunk.
func (idx *Indexer) Documents(recordNum int, rec Record) []models.Document {
	chunks := idx.chunker.Chunk(rec.Content)
	if len(chunks) == 0 {
		return nil
	}
	docType := rec.Type
	if docType == "" {
		docType = defaultDocType
	}
	colleges := ExtractCollegeNames(rec.Content)
	exams := ExtractExamNames(rec.Content)
	key := rec.URL
	if key == "" {
		key = "record:" + strconv.Itoa(recordNum)
	}

	docs := make([]models.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = models.Document{
			ID:      uuid.NewSHA1(chunkNamespace, []byte(key+"#"+strconv.Itoa(i))).String(),
			Content: chunk,
			Metadata: models.DocumentMetadata{
				Type:         docType,
				URL:          rec.URL,
				ChunkIndex:   i,
				TotalChunks:  len(chunks),
				CollegeNames: colleges,
				ExamNames:    exams,
			},
		}
	}
	return docs
}
