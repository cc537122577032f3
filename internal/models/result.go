package models

// ContextBundle is the evidence assembled by a context builder for generation.
type ContextBundle struct {
	Text            string
	HasLocalResults bool
	NeedsWebSearch  bool
}

// Stream is a single-consumer, non-restartable sequence of text fragments.
// Next advances to the next fragment and returns false when the sequence is
// exhausted or failed; Err reports the failure, if any. Close releases the
// upstream connection and must be safe to call more than once.
type Stream interface {
	Next() bool
	Current() string
	Err() error
	Close() error
}

// PipelineResult is the terminal artifact of one pipeline run. Exactly one of
// Text and Stream is meaningful: Stream is set only for streaming runs.
type PipelineResult struct {
	Text             string   `json:"answer"`
	Stream           Stream   `json:"-"`
	Category         Category `json:"category_detected"`
	WebSearchUsed    bool     `json:"web_search_used"`
	HasLocalResults  bool     `json:"has_local_results"`
	AutoWebTriggered bool     `json:"auto_web_triggered"`
	OutOfScope       bool     `json:"out_of_scope"`
	Entities         Entities `json:"entities"`
}

// Streaming reports whether the result carries a fragment stream.
func (r *PipelineResult) Streaming() bool {
	return r.Stream != nil
}

// StaticStream is a Stream over a fixed list of fragments.
type StaticStream struct {
	parts []string
	pos   int
	err   error
}

// NewStaticStream returns a stream yielding parts in order.
func NewStaticStream(parts ...string) *StaticStream {
	return &StaticStream{parts: parts, pos: -1}
}

// NewErrorStream returns a stream that yields nothing and reports err.
func NewErrorStream(err error) *StaticStream {
	return &StaticStream{pos: -1, err: err}
}

func (s *StaticStream) Next() bool {
	if s.pos+1 >= len(s.parts) {
		s.pos = len(s.parts)
		return false
	}
	s.pos++
	return true
}

func (s *StaticStream) Current() string {
	if s.pos < 0 || s.pos >= len(s.parts) {
		return ""
	}
	return s.parts[s.pos]
}

func (s *StaticStream) Err() error { return s.err }

func (s *StaticStream) Close() error {
	s.pos = len(s.parts)
	return nil
}
