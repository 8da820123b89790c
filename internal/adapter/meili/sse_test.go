package meili

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func streamOf(lines ...string) *Stream {
	return NewStream(io.NopCloser(strings.NewReader(strings.Join(lines, "\n") + "\n")))
}

func TestStreamJoinsFragmentsInOrder(t *testing.T) {
	s := streamOf(
		`data: {"choices":[{"delta":{"content":"Hello"}}]}`,
		`data: {"choices":[{"delta":{"content":" world"}}]}`,
		`data: [DONE]`,
	)
	text, err := Collect(s)
	require.NoError(t, err)
	assert.Equal(t, "Hello world", text)
}

func TestStreamSkipsMalformedLine(t *testing.T) {
	s := streamOf(
		`data: {"choices":[{"delta":{"content":"A"}}]}`,
		`data: not-json`,
		`data: {"choices":[{"delta":{"content":"B"}}]}`,
		`data: [DONE]`,
	)
	text, err := Collect(s)
	require.NoError(t, err)
	assert.Equal(t, "AB", text)
}

func TestStreamStopsAtSentinel(t *testing.T) {
	s := streamOf(
		`data: {"choices":[{"delta":{"content":"kept"}}]}`,
		`data: [DONE]`,
		`data: {"choices":[{"delta":{"content":"dropped"}}]}`,
	)
	var got []string
	for s.Next() {
		got = append(got, s.Text())
	}
	assert.Equal(t, []string{"kept"}, got)
	assert.False(t, s.Next(), "stream is not restartable")
	require.NoError(t, s.Close())
}

func TestStreamIgnoresIrrelevantLines(t *testing.T) {
	s := streamOf(
		`: keep-alive comment`,
		``,
		`event: message`,
		`data:{"choices":[{"delta":{"content":"no space after colon"}}]}`,
		`data: {"choices":[]}`,
		`data: {"choices":[{"delta":{}}]}`,
		`data: {"choices":[{"delta":{"content":""}}]}`,
		`data: {"choices":[{"delta":{"content":42}}]}`,
		`data: {"choices":[{"delta":{"content":"x"}}]}`,
	)
	text, err := Collect(s)
	require.NoError(t, err)
	assert.Equal(t, "x", text)
}

func TestStreamSkipsOversizedLine(t *testing.T) {
	s := streamOf(
		`data: {"choices":[{"delta":{"content":"A"}}]}`,
		"data: "+strings.Repeat("x", 2<<20),
		`data: {"choices":[{"delta":{"content":"B"}}]}`,
		`data: [DONE]`,
	)
	text, err := Collect(s)
	require.NoError(t, err)
	assert.Equal(t, "AB", text)
}

func TestStreamKeepsLongValidLine(t *testing.T) {
	long := strings.Repeat("y", 200*1024)
	s := streamOf(
		`data: {"choices":[{"delta":{"content":"`+long+`"}}]}`,
		`data: [DONE]`,
	)
	text, err := Collect(s)
	require.NoError(t, err)
	assert.Equal(t, long, text)
}

func TestStreamWithoutSentinelEndsAtEOF(t *testing.T) {
	s := streamOf(`data: {"choices":[{"delta":{"content":"partial"}}]}`)
	text, err := Collect(s)
	require.NoError(t, err)
	assert.Equal(t, "partial", text)
}

type failingReader struct {
	data string
	read bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if !r.read {
		r.read = true
		return copy(p, r.data), nil
	}
	return 0, errors.New("connection reset by peer")
}

func TestStreamReportsReadError(t *testing.T) {
	s := NewStream(io.NopCloser(&failingReader{data: "data: {\"choices\":[{\"delta\":{\"content\":\"A\"}}]}\n"}))
	text, err := Collect(s)
	assert.Equal(t, "A", text)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}
