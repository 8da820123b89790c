package meili

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/tidwall/gjson"
)

const maxSSELine = 1024 * 1024

var (
	ssePrefix   = []byte("data: ")
	sseSentinel = []byte("[DONE]")
)

// Stream is a pull-based sequence of text fragments decoded from a
// server-sent-events body. It is finite and not restartable:
//
//	for s.Next() {
//		buf.WriteString(s.Text())
//	}
//	err := s.Err()
//
// Only "data: " lines are considered. The "[DONE]" sentinel ends the stream
// without being yielded. Lines whose payload is not valid JSON, or whose
// choices.0.delta.content is absent or empty, are skipped.
type Stream struct {
	body   io.ReadCloser
	reader *bufio.Reader
	line   []byte
	text   string
	err    error
	done   bool
}

// NewStream wraps body. The caller must Close the stream.
func NewStream(body io.ReadCloser) *Stream {
	return &Stream{body: body, reader: bufio.NewReaderSize(body, 64*1024)}
}

// readLine returns the next line without its line ending. Lines longer than
// maxSSELine are consumed and reported as oversized so the caller can skip them.
func (s *Stream) readLine() ([]byte, bool, error) {
	oversized := false
	s.line = s.line[:0]
	for {
		chunk, isPrefix, err := s.reader.ReadLine()
		if err != nil {
			return nil, false, err
		}
		if !oversized {
			if len(s.line)+len(chunk) > maxSSELine {
				oversized = true
				s.line = s.line[:0]
			} else {
				s.line = append(s.line, chunk...)
			}
		}
		if !isPrefix {
			return s.line, oversized, nil
		}
	}
}

// Next advances to the next fragment. It returns false at the sentinel, at
// end of input, or on a read error. Oversized lines are skipped like
// malformed ones.
func (s *Stream) Next() bool {
	if s.done {
		return false
	}
	for {
		line, oversized, err := s.readLine()
		if err != nil {
			s.done = true
			if !errors.Is(err, io.EOF) {
				s.err = err
			}
			return false
		}
		if oversized || !bytes.HasPrefix(line, ssePrefix) {
			continue
		}
		data := bytes.TrimPrefix(line, ssePrefix)
		if bytes.Equal(data, sseSentinel) {
			s.done = true
			return false
		}
		if !gjson.ValidBytes(data) {
			continue
		}
		content := gjson.GetBytes(data, "choices.0.delta.content")
		if content.Type != gjson.String || content.Str == "" {
			continue
		}
		s.text = content.Str
		return true
	}
}

// Text returns the fragment produced by the last successful Next.
func (s *Stream) Text() string { return s.text }

// Err returns the read error that ended the stream, if any. Malformed lines
// are never reported.
func (s *Stream) Err() error { return s.err }

// Close releases the underlying body.
func (s *Stream) Close() error {
	s.done = true
	return s.body.Close()
}

// Collect drains s in order and joins every fragment. s is closed on return.
func Collect(s *Stream) (string, error) {
	defer s.Close()
	var sb strings.Builder
	for s.Next() {
		sb.WriteString(s.Text())
	}
	return sb.String(), s.Err()
}
