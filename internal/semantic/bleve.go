package semantic

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/degreefyd/assistant/internal/models"
)

// BleveSearcher is a keyword-scored Searcher backed by Bleve. Hits carry
// ScoreToDistance(score) as their distance.
type BleveSearcher struct {
	index bleve.Index
}

// NewBleveSearcher creates or opens a Bleve index at path. An empty path
// creates an in-memory index.
// If you change the index mapping in code, remove the index directory to force a full re-index.
func NewBleveSearcher(path string) (*BleveSearcher, error) {
	im := newDocumentMapping()
	if path == "" {
		index, err := bleve.NewMemOnly(im)
		if err != nil {
			return nil, fmt.Errorf("failed to create Bleve index: %w", err)
		}
		return &BleveSearcher{index: index}, nil
	}

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveSearcher{index: index}, nil
	}

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveSearcher{index: index}, nil
}

func newDocumentMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	// Standard analyzer (lowercase + tokenize, no stemming) so college
	// abbreviations like "IIM" and "NIT" match exactly.
	content := bleve.NewTextFieldMapping()
	content.Analyzer = standard.Name
	content.Store = false
	docMapping.AddFieldMappingsAt("content", content)

	docType := bleve.NewTextFieldMapping()
	docType.Analyzer = keyword.Name
	docType.Store = false
	docType.IncludeInAll = false
	docMapping.AddFieldMappingsAt("type", docType)

	payload := bleve.NewTextFieldMapping()
	payload.Index = false
	payload.Store = true
	payload.IncludeInAll = false
	docMapping.AddFieldMappingsAt("payload", payload)

	im.AddDocumentMapping("document", docMapping)
	im.DefaultType = "document"
	im.DefaultMapping = docMapping
	return im
}

// Add indexes docs by ID, replacing existing entries.
func (b *BleveSearcher) Add(ctx context.Context, docs []models.Document) error {
	batch := b.index.NewBatch()
	for _, d := range docs {
		if d.ID == "" {
			return fmt.Errorf("document has no id")
		}
		d.Distance = nil
		payload, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("marshal document %s: %w", d.ID, err)
		}
		if err := batch.Index(d.ID, map[string]interface{}{
			"content": d.Content,
			"type":    d.Metadata.Type,
			"payload": string(payload),
		}); err != nil {
			return fmt.Errorf("index document %s: %w", d.ID, err)
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("Bleve batch failed: %w", err)
	}
	return nil
}

// Search runs a match query over content, optionally restricted to docType.
func (b *BleveSearcher) Search(ctx context.Context, text, docType string, n int) ([]models.Document, error) {
	docs, scores, err := b.search(ctx, text, docType, n)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		docs[i].Distance = models.Float64(ScoreToDistance(scores[i]))
	}
	return docs, nil
}

// search returns matching documents with their raw relevance scores.
func (b *BleveSearcher) search(ctx context.Context, text, docType string, n int) ([]models.Document, []float64, error) {
	if n <= 0 {
		return nil, nil, nil
	}
	mq := bleve.NewMatchQuery(text)
	mq.SetField("content")
	var q blevequery.Query = mq
	if docType != "" {
		tq := bleve.NewTermQuery(docType)
		tq.SetField("type")
		q = bleve.NewConjunctionQuery(mq, tq)
	}
	req := bleve.NewSearchRequestOptions(q, n, 0, false)
	req.Fields = []string{"payload"}
	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	docs := make([]models.Document, 0, len(res.Hits))
	scores := make([]float64, 0, len(res.Hits))
	for _, hit := range res.Hits {
		raw, ok := hit.Fields["payload"].(string)
		if !ok {
			continue
		}
		var d models.Document
		if err := json.Unmarshal([]byte(raw), &d); err != nil {
			return nil, nil, fmt.Errorf("decode document %s: %w", hit.ID, err)
		}
		docs = append(docs, d)
		scores = append(scores, hit.Score)
	}
	return docs, scores, nil
}

// Count returns the number of indexed documents, or 0 when the count is unavailable.
func (b *BleveSearcher) Count() int {
	n, err := b.index.DocCount()
	if err != nil {
		return 0
	}
	return int(n)
}

// Close closes the index.
func (b *BleveSearcher) Close() error {
	return b.index.Close()
}
