// Package trace keeps a bounded in-memory log of recent retrieval attempts.
package trace

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/degreefyd/assistant/internal/models"
	"github.com/degreefyd/assistant/pkg/utils"
)

// DefaultCapacity is the number of entries kept when none is configured.
const DefaultCapacity = 50

const (
	snippetDocs  = 3
	snippetChars = 80
)

// Entry describes one retrieval attempt.
type Entry struct {
	ID             string          `json:"id"`
	Time           time.Time       `json:"ts"`
	RequestID      string          `json:"request_id,omitempty"`
	Query          string          `json:"query"`
	Category       models.Category `json:"category"`
	Attempt        int             `json:"attempt"`
	DocCount       int             `json:"doc_count"`
	DocIDs         []string        `json:"doc_ids"`
	DocSources     []string        `json:"doc_sources"`
	ContextSnippet string          `json:"context_snippet"`
}

// NewEntry summarizes docs retrieved for query on the given attempt.
func NewEntry(requestID, query string, category models.Category, attempt int, docs []models.Document) Entry {
	e := Entry{
		ID:         uuid.NewString(),
		Time:       time.Now(),
		RequestID:  requestID,
		Query:      query,
		Category:   category,
		Attempt:    attempt,
		DocCount:   len(docs),
		DocIDs:     make([]string, len(docs)),
		DocSources: make([]string, len(docs)),
	}
	var snippets []string
	for i, d := range docs {
		e.DocIDs[i] = d.ID
		e.DocSources[i] = d.Metadata.URL
		if i < snippetDocs {
			snippets = append(snippets, strings.ReplaceAll(utils.Clip(d.Content, snippetChars), "\n", " "))
		}
	}
	e.ContextSnippet = strings.Join(snippets, " | ")
	return e
}

// Log is a fixed-size ring of entries. Safe for concurrent use.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	full    bool
}

// New creates a log keeping the last capacity entries.
func New(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{entries: make([]Entry, capacity)}
}

// Add appends e, overwriting the oldest entry when full.
func (l *Log) Add(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[l.next] = e
	l.next = (l.next + 1) % len(l.entries)
	if l.next == 0 {
		l.full = true
	}
}

// Len returns the number of entries held.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lenLocked()
}

func (l *Log) lenLocked() int {
	if l.full {
		return len(l.entries)
	}
	return l.next
}

// Recent returns up to limit entries, newest first. A non-positive limit
// returns every entry.
func (l *Log) Recent(limit int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := l.lenLocked()
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Entry, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (l.next - i + len(l.entries)) % len(l.entries)
		out = append(out, l.entries[idx])
	}
	return out
}
