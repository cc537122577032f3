package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/degreefyd/assistant/internal/builder"
	"github.com/degreefyd/assistant/internal/cache"
	"github.com/degreefyd/assistant/internal/llm"
	"github.com/degreefyd/assistant/internal/models"
	"github.com/degreefyd/assistant/internal/router"
	"github.com/degreefyd/assistant/internal/selfrag"
	"github.com/degreefyd/assistant/internal/storage"
	"github.com/degreefyd/assistant/internal/trace"
)

// script answers the fast-mode calls: classification, relevance judgments
// (consumed in order) and rephrasing.
type script struct {
	mu       sync.Mutex
	route    string
	verdicts []string
	rephrase string
	judged   int
}

func (s *script) complete(ctx context.Context, req llm.FastRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case strings.Contains(req.Prompt, "query classifier"):
		return s.route, nil
	case strings.Contains(req.Prompt, "relevance judge"):
		if s.judged >= len(s.verdicts) {
			return "relevant", nil
		}
		v := s.verdicts[s.judged]
		s.judged++
		return v, nil
	case strings.Contains(req.Prompt, "Rephrase the following"):
		return s.rephrase, nil
	}
	return "", errors.New("unexpected prompt")
}

type searchCall struct {
	text    string
	docType string
	n       int
}

// fakeSearcher returns docs per query text, falling back to per-type docs.
type fakeSearcher struct {
	mu     sync.Mutex
	byText map[string][]models.Document
	byType map[string][]models.Document
	err    error
	calls  []searchCall
}

func (f *fakeSearcher) Search(ctx context.Context, text, docType string, n int) ([]models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, searchCall{text, docType, n})
	if f.err != nil {
		return nil, f.err
	}
	if docs, ok := f.byText[text]; ok {
		return docs, nil
	}
	return f.byType[docType], nil
}

// stubBuilder returns a fixed bundle and records requests.
type stubBuilder struct {
	mu     sync.Mutex
	bundle models.ContextBundle
	reqs   []builder.Request
}

func (b *stubBuilder) Build(ctx context.Context, req builder.Request) models.ContextBundle {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reqs = append(b.reqs, req)
	return b.bundle
}

func doc(id, docType, content string) models.Document {
	return models.Document{
		ID:       id,
		Content:  content,
		Metadata: models.DocumentMetadata{Type: docType, URL: "https://degreefyd.com/" + id},
		Distance: models.Float64(0.2),
	}
}

type harness struct {
	script  *script
	client  *llm.MockClient
	search  *fakeSearcher
	builder *stubBuilder
	cache   *cache.ResultCache
	traces  *trace.Log
	p       *Pipeline
}

func newHarness(t *testing.T, s *script, search *fakeSearcher, cb ContextBuilder) *harness {
	t.Helper()
	client := llm.NewMockClient()
	client.CompleteFunc = s.complete
	c, err := cache.New(16)
	require.NoError(t, err)
	traces := trace.New(10)
	h := &harness{script: s, client: client, search: search, cache: c, traces: traces}
	if cb == nil {
		h.builder = &stubBuilder{bundle: models.ContextBundle{Text: "EVIDENCE", HasLocalResults: true}}
		cb = h.builder
	}
	h.p = New(router.New(client), selfrag.New(client), cb, search, client,
		WithCache(c), WithTraceLog(traces))
	return h
}

func collect(t *testing.T, s models.Stream) string {
	t.Helper()
	defer s.Close()
	var sb strings.Builder
	for s.Next() {
		sb.WriteString(s.Current())
	}
	require.NoError(t, s.Err())
	return sb.String()
}

func TestProcess_EmptyQuery(t *testing.T) {
	h := newHarness(t, &script{}, &fakeSearcher{}, nil)
	_, err := h.p.Process(context.Background(), "   ", false, false)
	assert.ErrorIs(t, err, ErrEmptyQuery)
	assert.Empty(t, h.client.FastCalls())
}

func TestProcess_RelevantFirstAttempt(t *testing.T) {
	s := &script{
		route:    "CATEGORY: EXAM\nCOLLEGE_NAMES: NONE\nEXAM_NAMES: JEE Main\nLOCATION: NONE\nRANK_SCORE: NONE",
		verdicts: []string{"relevant"},
	}
	search := &fakeSearcher{byType: map[string][]models.Document{
		models.DocTypeExam: {doc("e1", "exam", "JEE Main is held in January and April.")},
	}}
	h := newHarness(t, s, search, nil)

	res, err := h.p.Process(context.Background(), "What is the JEE Main exam date?", false, false)
	require.NoError(t, err)

	assert.Equal(t, models.CategoryExam, res.Category)
	assert.Equal(t, "Answer: What is the JEE Main exam date?", res.Text)
	assert.False(t, res.WebSearchUsed)
	assert.False(t, res.AutoWebTriggered)
	assert.True(t, res.HasLocalResults)
	assert.Equal(t, []string{"JEE Main"}, res.Entities.ExamNames)
	assert.Nil(t, res.Entities.Location)

	require.Len(t, search.calls, 1)
	assert.Equal(t, searchCall{"JEE Main What is the JEE Main exam date?", models.DocTypeExam, 5}, search.calls[0])

	gens := h.client.GenerateCalls()
	require.Len(t, gens, 1)
	assert.Equal(t, llm.GenerateRequest{Query: "What is the JEE Main exam date?", Context: "EVIDENCE"}, gens[0])

	require.Len(t, h.builder.reqs, 1)
	assert.Len(t, h.builder.reqs[0].Prefetched, 1)
	assert.Equal(t, 1, h.traces.Len())
}

func TestProcess_WebToggle(t *testing.T) {
	s := &script{route: "CATEGORY: EXAM", verdicts: []string{"partial"}}
	search := &fakeSearcher{byType: map[string][]models.Document{
		models.DocTypeExam: {doc("e1", "exam", "GATE syllabus")},
	}}
	h := newHarness(t, s, search, nil)

	res, err := h.p.Process(context.Background(), "GATE syllabus", true, false)
	require.NoError(t, err)
	assert.True(t, res.WebSearchUsed)
	assert.False(t, res.AutoWebTriggered)
	assert.True(t, h.client.GenerateCalls()[0].Web)
}

func TestProcess_RephraseNoOpSkipsSecondRetrieval(t *testing.T) {
	s := &script{
		route:    "CATEGORY: EXAM\nEXAM_NAMES: JEE Main",
		verdicts: []string{"irrelevant"},
		rephrase: `"What is the JEE Main exam date?"`,
	}
	search := &fakeSearcher{byType: map[string][]models.Document{
		models.DocTypeExam: {doc("x1", "exam", "Unrelated page about hostels.")},
	}}
	h := newHarness(t, s, search, nil)

	res, err := h.p.Process(context.Background(), "What is the JEE Main exam date?", false, false)
	require.NoError(t, err)

	assert.Len(t, search.calls, 1)
	assert.Equal(t, 1, s.judged)
	assert.Equal(t, 1, h.traces.Len())
	assert.True(t, res.AutoWebTriggered)
	assert.True(t, res.WebSearchUsed)
	assert.False(t, res.OutOfScope)
	gens := h.client.GenerateCalls()
	require.Len(t, gens, 1)
	assert.True(t, gens[0].Web)
	assert.Equal(t, "What is the JEE Main exam date?", gens[0].Query)
}

func TestProcess_SecondAttemptUsesRephrasedQuery(t *testing.T) {
	const rephrased = "IIT Bombay hostel accommodation facilities"
	s := &script{
		route:    "CATEGORY: COLLEGE\nCOLLEGE_NAMES: IIT Bombay",
		verdicts: []string{"irrelevant", "partial"},
		rephrase: rephrased,
	}
	first := []models.Document{doc("a", "college", "IIT Bombay convocation news")}
	second := []models.Document{doc("b", "college", "IIT Bombay has 18 hostels")}
	search := &fakeSearcher{byText: map[string][]models.Document{
		"IIT Bombay hostels at iitb": first,
		"IIT Bombay " + rephrased:    second,
	}}
	h := newHarness(t, s, search, nil)

	res, err := h.p.Process(context.Background(), "hostels at iitb", false, false)
	require.NoError(t, err)

	assert.False(t, res.AutoWebTriggered)
	assert.False(t, res.WebSearchUsed)
	require.Len(t, search.calls, 2)
	assert.Equal(t, models.DocTypeCollege, search.calls[1].docType)

	require.Len(t, h.builder.reqs, 1)
	assert.Equal(t, rephrased, h.builder.reqs[0].Query)
	assert.Equal(t, second, h.builder.reqs[0].Prefetched)
	assert.Equal(t, rephrased, h.client.GenerateCalls()[0].Query)

	entries := h.traces.Recent(0)
	require.Len(t, entries, 2)
	assert.Equal(t, 2, entries[0].Attempt)
	assert.Equal(t, rephrased, entries[0].Query)
	assert.Equal(t, entries[0].RequestID, entries[1].RequestID)

	// Cached under the original query.
	_, ok := h.cache.Get("hostels at iitb", false)
	assert.True(t, ok)
}

func TestProcess_GeneralOutOfScope(t *testing.T) {
	s := &script{route: "CATEGORY: GENERAL", verdicts: []string{"irrelevant"}, rephrase: "Who won the cricket world cup?"}
	search := &fakeSearcher{byType: map[string][]models.Document{
		"": {doc("g1", "blog", "How to choose an engineering branch")},
	}}
	h := newHarness(t, s, search, nil)

	res, err := h.p.Process(context.Background(), "Who won the cricket world cup?", false, false)
	require.NoError(t, err)

	assert.True(t, res.OutOfScope)
	assert.Equal(t, OutOfScopeMessage, res.Text)
	assert.Equal(t, models.CategoryGeneral, res.Category)
	assert.False(t, res.HasLocalResults)
	assert.False(t, res.WebSearchUsed)
	assert.False(t, res.AutoWebTriggered)
	assert.Empty(t, h.client.GenerateCalls())
	assert.Empty(t, h.builder.reqs)
	assert.Equal(t, 0, h.cache.Len())
}

func TestProcess_GeneralOutOfScopeAfterSecondAttempt(t *testing.T) {
	s := &script{route: "CATEGORY: GENERAL", verdicts: []string{"irrelevant", "irrelevant"}, rephrase: "cricket world cup winner"}
	search := &fakeSearcher{byType: map[string][]models.Document{
		"": {doc("g1", "blog", "Career guidance after 12th")},
	}}
	h := newHarness(t, s, search, nil)

	res, err := h.p.Process(context.Background(), "Who won the cricket world cup?", false, true)
	require.NoError(t, err)

	assert.Len(t, search.calls, 2)
	assert.True(t, res.OutOfScope)
	require.True(t, res.Streaming())
	assert.Equal(t, OutOfScopeMessage, collect(t, res.Stream))
	assert.Empty(t, h.client.StreamCalls())
}

func TestProcess_CollegeZeroResults(t *testing.T) {
	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	s := &script{
		route:    "CATEGORY: COLLEGE\nCOLLEGE_NAMES: Hogwarts College",
		rephrase: "Hogwarts College fee structure tuition",
	}
	search := &fakeSearcher{}
	h := newHarness(t, s, search, builder.New(store, search))

	res, err := h.p.Process(context.Background(), "What are the fees at Hogwarts College?", false, false)
	require.NoError(t, err)

	assert.Equal(t, models.CategoryCollege, res.Category)
	assert.False(t, res.HasLocalResults)
	assert.True(t, res.AutoWebTriggered)
	assert.True(t, res.WebSearchUsed)
	// Empty document sets are judged without a model call.
	assert.Equal(t, 0, s.judged)

	gens := h.client.GenerateCalls()
	require.Len(t, gens, 1)
	assert.Empty(t, gens[0].Context)
	assert.True(t, gens[0].Web)
}

func TestProcess_CollegePostFilter(t *testing.T) {
	s := &script{route: "CATEGORY: COLLEGE\nCOLLEGE_NAMES: VIT Vellore", verdicts: []string{"relevant"}}
	search := &fakeSearcher{byType: map[string][]models.Document{
		models.DocTypeCollege: {
			doc("amrita", "college", "Amrita admissions open"),
			doc("vit", "college", "VIT Vellore admissions through VITEEE"),
		},
	}}
	h := newHarness(t, s, search, nil)

	_, err := h.p.Process(context.Background(), "How to get admission to VIT Vellore", false, false)
	require.NoError(t, err)
	require.Len(t, h.builder.reqs, 1)
	prefetched := h.builder.reqs[0].Prefetched
	require.Len(t, prefetched, 1)
	assert.Equal(t, "vit", prefetched[0].ID)
}

func TestMentioningAny(t *testing.T) {
	docs := []models.Document{
		doc("dtu", "college", "Delhi Technological University fees"),
		doc("other", "college", "Some other place"),
	}
	assert.Len(t, mentioningAny(docs, []string{"DTU"}), 1, "URL match counts")
	assert.Equal(t, docs, mentioningAny(docs, []string{"Hogwarts"}), "no match keeps everything")
}

func TestDocTypeFor(t *testing.T) {
	cases := map[models.Category]string{
		models.CategoryCollege:     models.DocTypeCollege,
		models.CategoryExam:        models.DocTypeExam,
		models.CategoryComparison:  models.DocTypeComparison,
		models.CategoryPredictor:   models.DocTypeCollege,
		models.CategoryTopColleges: models.DocTypeCollege,
		models.CategoryGeneral:     "",
	}
	for c, want := range cases {
		assert.Equal(t, want, docTypeFor(c), c.String())
	}
}

func TestProcess_SearchFailureCountsAsNoDocuments(t *testing.T) {
	s := &script{route: "CATEGORY: EXAM", rephrase: "CAT exam pattern sections"}
	search := &fakeSearcher{err: errors.New("index unavailable")}
	h := newHarness(t, s, search, nil)

	res, err := h.p.Process(context.Background(), "CAT pattern", false, false)
	require.NoError(t, err)
	assert.True(t, res.AutoWebTriggered)
	assert.Len(t, search.calls, 2)
}

func TestProcess_CacheHitSkipsGeneration(t *testing.T) {
	s := &script{route: "CATEGORY: EXAM", verdicts: []string{"relevant", "relevant"}}
	search := &fakeSearcher{byType: map[string][]models.Document{
		models.DocTypeExam: {doc("e1", "exam", "NEET pattern")},
	}}
	h := newHarness(t, s, search, nil)
	ctx := context.Background()

	first, err := h.p.Process(ctx, "NEET exam pattern", false, false)
	require.NoError(t, err)
	second, err := h.p.Process(ctx, "  neet EXAM pattern ", false, false)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, h.client.GenerateCalls(), 1)
	assert.Len(t, search.calls, 1)
	assert.Equal(t, 1, h.p.CachedQueries())

	// The web toggle is part of the key.
	_, err = h.p.Process(ctx, "NEET exam pattern", true, false)
	require.NoError(t, err)
	assert.Len(t, h.client.GenerateCalls(), 2)
	assert.Equal(t, 2, h.p.CachedQueries())
}

func TestProcess_StreamingNotCached(t *testing.T) {
	s := &script{route: "CATEGORY: EXAM", verdicts: []string{"relevant", "relevant"}}
	search := &fakeSearcher{byType: map[string][]models.Document{
		models.DocTypeExam: {doc("e1", "exam", "CLAT date")},
	}}
	h := newHarness(t, s, search, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := h.p.Process(ctx, "CLAT exam date", false, true)
		require.NoError(t, err)
		require.True(t, res.Streaming())
		assert.Empty(t, res.Text)
		assert.Equal(t, "Answer: CLAT exam date", collect(t, res.Stream))
	}
	assert.Len(t, h.client.StreamCalls(), 2)
	assert.Empty(t, h.client.GenerateCalls())
	assert.Equal(t, 0, h.cache.Len())
}

func TestProcess_GenerationError(t *testing.T) {
	s := &script{route: "CATEGORY: EXAM", verdicts: []string{"relevant"}}
	search := &fakeSearcher{byType: map[string][]models.Document{
		models.DocTypeExam: {doc("e1", "exam", "GATE")},
	}}
	h := newHarness(t, s, search, nil)
	boom := errors.New("upstream 503")
	h.client.GenerateFunc = func(context.Context, llm.GenerateRequest) (string, error) { return "", boom }

	res, err := h.p.Process(context.Background(), "GATE cutoff", false, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	require.NotNil(t, res)
	assert.Equal(t, models.CategoryExam, res.Category)
	assert.Empty(t, res.Text)
	assert.Equal(t, 0, h.cache.Len())
}

func TestProcess_StreamError(t *testing.T) {
	s := &script{route: "CATEGORY: EXAM", verdicts: []string{"relevant"}}
	search := &fakeSearcher{byType: map[string][]models.Document{
		models.DocTypeExam: {doc("e1", "exam", "GATE")},
	}}
	h := newHarness(t, s, search, nil)
	boom := errors.New("connection reset")
	h.client.StreamFunc = func(context.Context, llm.GenerateRequest) models.Stream {
		return models.NewErrorStream(boom)
	}

	res, err := h.p.Process(context.Background(), "GATE cutoff", false, true)
	require.NoError(t, err)
	require.True(t, res.Streaming())
	assert.False(t, res.Stream.Next())
	assert.ErrorIs(t, res.Stream.Err(), boom)
	assert.NoError(t, res.Stream.Close())
}

func TestObservedStream_ReportsOnce(t *testing.T) {
	var calls int
	var got error
	s := &observedStream{
		Stream: models.NewStaticStream("a", "b"),
		done:   func(err error) { calls++; got = err },
	}
	assert.True(t, s.Next())
	assert.True(t, s.Next())
	assert.False(t, s.Next())
	assert.NoError(t, s.Close())
	assert.Equal(t, 1, calls)
	assert.NoError(t, got)
}

// pullCounter is an upstream answer stream that records consumption.
type pullCounter struct {
	pulls          int
	pullsAfterStop int
	closed         bool
}

func (p *pullCounter) Next() bool {
	if p.closed {
		p.pullsAfterStop++
		return false
	}
	p.pulls++
	return true
}

func (p *pullCounter) Current() string { return "fragment " }
func (p *pullCounter) Err() error      { return nil }
func (p *pullCounter) Close() error    { p.closed = true; return nil }

func TestProcess_StreamConsumerStopsEarly(t *testing.T) {
	s := &script{route: "CATEGORY: EXAM", verdicts: []string{"relevant"}}
	search := &fakeSearcher{byType: map[string][]models.Document{
		models.DocTypeExam: {doc("e1", "exam", "CAT registration")},
	}}
	h := newHarness(t, s, search, nil)
	upstream := &pullCounter{}
	h.client.StreamFunc = func(context.Context, llm.GenerateRequest) models.Stream { return upstream }

	res, err := h.p.Process(context.Background(), "CAT registration date", false, true)
	require.NoError(t, err)
	require.True(t, res.Streaming())

	// The consumer reads one fragment and goes away.
	require.True(t, res.Stream.Next())
	require.NoError(t, res.Stream.Close())

	assert.True(t, upstream.closed, "closing the result must close the upstream stream")
	assert.Equal(t, 1, upstream.pulls)
	assert.Zero(t, upstream.pullsAfterStop)
	assert.Zero(t, h.p.CachedQueries())
}
