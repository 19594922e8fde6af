package cerebras

import (
	"encoding/json"
	"io"
	"iter"
	"strings"
	"sync"

	"github.com/tmaxmax/go-sse"
)

// streamDoneMarker terminates the event sequence.
const streamDoneMarker = "[DONE]"

// Stream is a lazy, finite, non-restartable sequence of text deltas from a
// streaming completion. Consume it with Next/Current, or drain it with
// Text. A Stream is not safe for concurrent use.
//
//	stream, err := client.GenerateStream(ctx, prompt)
//	if err != nil { ... }
//	defer stream.Close()
//	for stream.Next() {
//		fmt.Print(stream.Current().Content)
//	}
//	if err := stream.Err(); err != nil { ... }
type Stream struct {
	body     io.ReadCloser
	next     func() (sse.Event, error, bool)
	stop     func()
	progress Progress

	cur  Chunk
	err  error
	done bool

	releaseOnce sync.Once
}

func newStream(body io.ReadCloser, progress Progress) *Stream {
	next, stop := iter.Pull2(sse.Read(body, nil))
	return &Stream{
		body:     body,
		next:     next,
		stop:     stop,
		progress: progress,
	}
}

// Next advances to the next text delta. It returns false when the sequence
// is exhausted or failed; check Err afterwards to tell the two apart.
func (s *Stream) Next() bool {
	if s.done {
		return false
	}

	for {
		ev, err, ok := s.next()
		if !ok {
			// Body ended without a [DONE] marker; treat it as completion,
			// matching what the endpoint does when a generation is cut off
			// server-side with everything already delivered.
			s.finish(nil)
			return false
		}
		if err != nil {
			s.finish(&ChatError{Message: "reading event stream", Err: err})
			return false
		}

		data := strings.TrimSpace(ev.Data)
		if data == "" {
			continue
		}
		if data == streamDoneMarker {
			s.finish(nil)
			return false
		}

		var chunk chunkResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			s.finish(&ChatError{Message: "malformed stream event", Err: err})
			return false
		}
		if len(chunk.Choices) == 0 {
			// Final usage-only chunk.
			continue
		}

		delta := chunk.Choices[0]
		s.cur = Chunk{Content: delta.Delta.Content}
		if delta.FinishReason != nil {
			s.cur.FinishReason = *delta.FinishReason
		}

		if s.progress != nil && len(s.cur.Content) > 0 {
			s.progress.Advance(len(s.cur.Content))
		}
		return true
	}
}

// Current returns the delta produced by the last successful Next call.
func (s *Stream) Current() Chunk {
	return s.cur
}

// Err returns the error that terminated the sequence, nil after normal
// exhaustion or when the stream was abandoned early.
func (s *Stream) Err() error {
	return s.err
}

// Text drains the remainder of the stream and returns the in-order
// concatenation of all deltas consumed by this call.
func (s *Stream) Text() (string, error) {
	var b strings.Builder
	for s.Next() {
		b.WriteString(s.cur.Content)
	}
	return b.String(), s.err
}

// Close releases the underlying connection. It is safe to call at any
// point, including after partial consumption, and never reports an error
// for the unconsumed remainder.
func (s *Stream) Close() error {
	s.done = true
	var err error
	s.releaseOnce.Do(func() {
		s.stop()
		err = s.body.Close()
		if s.progress != nil {
			s.progress.Finish(s.err)
		}
	})
	return err
}

// finish records the terminal state and releases the connection.
func (s *Stream) finish(err error) {
	s.err = err
	s.done = true
	s.releaseOnce.Do(func() {
		s.stop()
		s.body.Close()
		if s.progress != nil {
			s.progress.Finish(err)
		}
	})
}
