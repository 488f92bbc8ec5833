package acclog

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aesdsocket/aesdsocketd/internal/aesderr"
)

func TestIngestNoNewlineAccumulates(t *testing.T) {
	a := New(0)
	chunks := []string{"hel", "lo wor", "ld"}
	for _, c := range chunks {
		entry, err := a.Ingest([]byte(c))
		require.NoError(t, err)
		require.Nil(t, entry)
	}
	require.Equal(t, "hello world", string(a.Bytes()))
}

func TestIngestSingleNewlineCommitsWholeConcatenation(t *testing.T) {
	a := New(0)
	_, err := a.Ingest([]byte("hel"))
	require.NoError(t, err)
	entry, err := a.Ingest([]byte("lo\n"))
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.Equal(t, "hello\n", string(entry.Bytes))
	require.Equal(t, 0, a.Len(), "accumulator resets after commit")
}

func TestIngestMultipleNewlinesInOneChunkIsOneEntry(t *testing.T) {
	a := New(0)
	entry, err := a.Ingest([]byte("a\nb\nc\n"))
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.Equal(t, "a\nb\nc\n", string(entry.Bytes), "whole accumulator commits as one entry per ingest call")
}

func TestIngestResourceExhaustedLeavesBufferUnchanged(t *testing.T) {
	a := New(4)
	_, err := a.Ingest([]byte("ab"))
	require.NoError(t, err)

	_, err = a.Ingest([]byte("xyz"))
	require.ErrorIs(t, err, aesderr.ErrResourceExhausted)
	require.Equal(t, "ab", string(a.Bytes()), "accumulator unchanged after a rejected ingest")
}
