package connserver

import (
	"bufio"
	"io"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aesdsocket/aesdsocketd/internal/config"
	"github.com/aesdsocket/aesdsocketd/internal/logsvc"
)

func newTestSetup(t *testing.T) (*logsvc.Service, *Worker) {
	t.Helper()
	cfg := config.Default()
	cfg.ShadowPath = filepath.Join(t.TempDir(), "shadow")
	cfg.RingCapacity = 10

	svc, err := logsvc.New(cfg, zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	return svc, New(svc, zap.NewNop().Sugar(), 1024)
}

// serveOverPipe runs w.Serve on one end of an in-memory net.Pipe and
// returns the client-facing end plus a channel closed when Serve returns.
func serveOverPipe(w *Worker) (client net.Conn, done chan struct{}) {
	server, client := net.Pipe()
	done = make(chan struct{})
	go func() {
		w.Serve(server)
		close(done)
	}()
	return client, done
}

func readAvailable(t *testing.T, r *bufio.Reader, want string) {
	t.Helper()
	buf := make([]byte, len(want))
	_, err := io.ReadFull(r, buf)
	require.NoError(t, err)
	require.Equal(t, want, string(buf))
}

// S1: basic echo.
func TestS1BasicEcho(t *testing.T) {
	_, w := newTestSetup(t)
	client, done := serveOverPipe(w)
	defer func() { client.Close(); <-done }()

	_, err := client.Write([]byte("hello\n"))
	require.NoError(t, err)

	readAvailable(t, bufio.NewReader(client), "hello\n")
}

// S2: multi-entry echo across two connections sharing one service.
func TestS2MultiEntryEcho(t *testing.T) {
	svc, wa := newTestSetup(t)
	wb := New(svc, zap.NewNop().Sugar(), 1024)

	clientA, doneA := serveOverPipe(wa)
	_, err := clientA.Write([]byte("aa\n"))
	require.NoError(t, err)
	readAvailable(t, bufio.NewReader(clientA), "aa\n")
	clientA.Close()
	<-doneA

	clientB, doneB := serveOverPipe(wb)
	defer func() { clientB.Close(); <-doneB }()
	_, err = clientB.Write([]byte("bb\n"))
	require.NoError(t, err)
	readAvailable(t, bufio.NewReader(clientB), "aa\nbb\n")
}

// S3: ring eviction after N+1 entries.
func TestS3RingEviction(t *testing.T) {
	cfg := config.Default()
	cfg.ShadowPath = filepath.Join(t.TempDir(), "shadow")
	cfg.RingCapacity = 10
	svc, err := logsvc.New(cfg, zap.NewNop().Sugar())
	require.NoError(t, err)
	defer svc.Close()

	for i := 1; i <= 11; i++ {
		w := New(svc, zap.NewNop().Sugar(), 1024)
		client, done := serveOverPipe(w)
		_, err := client.Write([]byte{'e', '0' + byte(i/10), '0' + byte(i%10), '\n'})
		require.NoError(t, err)
		client.Close()
		<-done
	}

	// Final worker's echo contains only the last 10 entries.
	w := New(svc, zap.NewNop().Sugar(), 1024)
	client, done := serveOverPipe(w)
	defer func() { client.Close(); <-done }()
	_, err = client.Write([]byte("x\n"))
	require.NoError(t, err)

	r := bufio.NewReader(client)
	buf := make([]byte, 4*10+2)
	_, err = io.ReadFull(r, buf)
	require.NoError(t, err)
	got := string(buf)
	require.NotContains(t, got, "e01\n")
	require.Contains(t, got, "e02\n")
	require.Contains(t, got, "e11\n")
}

// S4/S5: seek command repositions the cursor; invalid seek is a no-op.
func TestS4SeekCommandRepositionsCursor(t *testing.T) {
	cfg := config.Default()
	cfg.ShadowPath = filepath.Join(t.TempDir(), "shadow")
	cfg.RingCapacity = 10
	svc, err := logsvc.New(cfg, zap.NewNop().Sugar())
	require.NoError(t, err)
	defer svc.Close()

	for _, p := range []string{"aaaa\n", "bbbb\n", "ccccc\n"} {
		require.NoError(t, svc.IngestBytes([]byte(p)))
	}

	w := New(svc, zap.NewNop().Sugar(), 1024)
	client, done := serveOverPipe(w)
	defer func() { client.Close(); <-done }()

	_, err = client.Write([]byte("AESDCHAR_IOCSEEKTO:2,1\n"))
	require.NoError(t, err)

	_, err = client.Write([]byte("x\n"))
	require.NoError(t, err)

	r := bufio.NewReader(client)
	want := "cccc\nx\n" // locate_by_index(2,1) == byte 11; echo runs from there through the new "x\n" entry
	buf := make([]byte, len(want))
	_, err = io.ReadFull(r, buf)
	require.NoError(t, err)
	require.Equal(t, want, string(buf))
}

func TestS5InvalidSeekLeavesStateUnchanged(t *testing.T) {
	svc, w := newTestSetup(t)
	require.NoError(t, svc.IngestBytes([]byte("only\n")))

	client, done := serveOverPipe(w)
	defer func() { client.Close(); <-done }()

	_, err := client.Write([]byte("AESDCHAR_IOCSEEKTO:99,0\n"))
	require.NoError(t, err)

	_, err = client.Write([]byte("z\n"))
	require.NoError(t, err)

	r := bufio.NewReader(client)
	buf := make([]byte, len("only\nz\n"))
	_, err = io.ReadFull(r, buf)
	require.NoError(t, err)
	require.Equal(t, "only\nz\n", string(buf))
}

// S6: partial line across chunks commits exactly one entry.
func TestS6PartialLineAcrossChunks(t *testing.T) {
	_, w := newTestSetup(t)
	client, done := serveOverPipe(w)
	defer func() { client.Close(); <-done }()

	_, err := client.Write([]byte("hel"))
	require.NoError(t, err)

	// Give the worker a moment to consume the first chunk before the
	// second arrives, so they are delivered as separate reads.
	time.Sleep(10 * time.Millisecond)

	_, err = client.Write([]byte("lo\n"))
	require.NoError(t, err)

	readAvailable(t, bufio.NewReader(client), "hello\n")
}
