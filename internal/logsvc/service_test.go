package logsvc

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aesdsocket/aesdsocketd/internal/config"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	cfg := config.Default()
	cfg.ShadowPath = filepath.Join(t.TempDir(), "shadow")
	cfg.RingCapacity = 32

	svc, err := New(cfg, zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func readAll(t *testing.T, svc *Service) string {
	t.Helper()
	var out []byte
	cursor := int64(0)
	for {
		data, next, eof, err := svc.ReadStream(cursor)
		require.NoError(t, err)
		if eof {
			break
		}
		out = append(out, data...)
		cursor = next
	}
	return string(out)
}

func TestConcurrentIngestEachPayloadExactlyOnce(t *testing.T) {
	svc := newTestService(t)

	const k = 20
	var wg sync.WaitGroup
	wg.Add(k)
	for j := 0; j < k; j++ {
		go func(j int) {
			defer wg.Done()
			payload := []byte(fmt.Sprintf("payload-%02d\n", j))
			require.NoError(t, svc.IngestBytes(payload))
		}(j)
	}
	wg.Wait()

	got := readAll(t, svc)
	for j := 0; j < k; j++ {
		want := fmt.Sprintf("payload-%02d\n", j)
		require.Contains(t, got, want)
	}
}

func TestEchoContainsOwnPayloadAfterIngest(t *testing.T) {
	svc := newTestService(t)

	require.NoError(t, svc.IngestBytes([]byte("first\n")))
	require.NoError(t, svc.IngestBytes([]byte("second\n")))

	got := readAll(t, svc)
	require.Equal(t, "first\nsecond\n", got)
}

func TestSeekToMatchesLocateByIndex(t *testing.T) {
	svc := newTestService(t)
	for _, p := range []string{"aa\n", "bb\n", "ccc\n"} {
		require.NoError(t, svc.IngestBytes([]byte(p)))
	}

	pos, err := svc.SeekTo(2, 1)
	require.NoError(t, err)
	require.Equal(t, int64(3+3+1), pos)

	data, _, eof, err := svc.ReadStream(pos)
	require.NoError(t, err)
	require.False(t, eof)
	require.Equal(t, "cc\n", string(data))
}

func TestSeekToInvalidArgumentLeavesServiceUsable(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, svc.IngestBytes([]byte("only\n")))

	_, err := svc.SeekTo(99, 0)
	require.Error(t, err)

	got := readAll(t, svc)
	require.Equal(t, "only\n", got)
}
