package pipeline

import (
	"sync"

	"github.com/degreefyd/assistant/internal/models"
)

// observedStream reports the stream's final state to done exactly once,
// when it is exhausted or closed.
type observedStream struct {
	models.Stream
	once sync.Once
	done func(err error)
}

func (s *observedStream) Next() bool {
	if s.Stream.Next() {
		return true
	}
	s.finish()
	return false
}

func (s *observedStream) Close() error {
	err := s.Stream.Close()
	s.finish()
	return err
}

func (s *observedStream) finish() {
	s.once.Do(func() { s.done(s.Stream.Err()) })
}
