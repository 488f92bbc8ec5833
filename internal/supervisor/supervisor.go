// Package supervisor binds the listen socket, accepts connections,
// tracks them for graceful shutdown, and runs the optional periodic
// timestamp timer.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/aesdsocket/aesdsocketd/internal/aesderr"
	"github.com/aesdsocket/aesdsocketd/internal/config"
	"github.com/aesdsocket/aesdsocketd/internal/connserver"
	"github.com/aesdsocket/aesdsocketd/internal/logsvc"
	"github.com/aesdsocket/aesdsocketd/internal/metrics"
	"github.com/aesdsocket/aesdsocketd/internal/xcmd"
)

// setReuseAddr mirrors the reference server's SO_REUSEADDR setsockopt
// call, letting the supervisor rebind its port immediately after a
// restart instead of waiting out TIME_WAIT. It runs on the raw socket fd
// before bind(2), which is as far as net.ListenConfig's Control hook
// reaches -- the subsequent listen(2) backlog is chosen internally by
// the net package from the OS's somaxconn rather than a caller-supplied
// value, so the reference server's literal backlog of 10 has no direct
// equivalent here.
func setReuseAddr(_, _ string, c syscall.RawConn) error {
	var sockErr error
	if err := c.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	}); err != nil {
		return err
	}
	return sockErr
}

// Supervisor owns the listen socket and the registry of in-flight
// connection workers.
type Supervisor struct {
	cfg *config.Config
	log *zap.SugaredLogger
	svc *logsvc.Service

	workers sync.WaitGroup
}

// New constructs a Supervisor around a freshly created Log Service.
func New(cfg *config.Config, log *zap.SugaredLogger) (*Supervisor, error) {
	svc, err := logsvc.New(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("supervisor: %w", err)
	}
	return &Supervisor{cfg: cfg, log: log, svc: svc}, nil
}

// Run binds the listen socket and blocks until ctx is canceled or a
// SIGINT/SIGTERM is observed, at which point it drains in-flight
// connections and returns nil. A bind/listen failure or other
// unrecoverable error is returned wrapped in aesderr.ErrFatal.
func (s *Supervisor) Run(ctx context.Context) error {
	defer s.svc.Close()

	lc := net.ListenConfig{Control: setReuseAddr}
	listener, err := lc.Listen(ctx, "tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("supervisor: binding %s: %w", s.cfg.ListenAddr, aesderr.ErrFatal)
	}
	s.log.Infow("listening", "addr", listener.Addr())

	wg, ctx := errgroup.WithContext(ctx)

	wg.Go(func() error {
		return s.acceptLoop(ctx, listener)
	})

	wg.Go(func() error {
		err := xcmd.WaitInterrupted(ctx)
		s.log.Infow("caught signal, shutting down", "cause", err)
		return err
	})

	// Closing the listener is what actually unblocks acceptLoop's
	// Accept() call, whether shutdown was triggered by a signal, by the
	// caller canceling ctx directly, or by another errgroup member's
	// error.
	wg.Go(func() error {
		<-ctx.Done()
		listener.Close()
		return nil
	})

	if s.svc.PeriodicTimestampsEnabled() && s.cfg.TimerPeriod > 0 {
		wg.Go(func() error {
			return s.runTimer(ctx)
		})
	}

	if s.cfg.MetricsAddr != "" {
		wg.Go(func() error {
			return s.runMetricsServer(ctx)
		})
	}

	err = wg.Wait()
	s.workers.Wait()

	var interrupted xcmd.Interrupted
	if errors.As(err, &interrupted) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// acceptLoop accepts connections and launches one worker goroutine per
// connection until the listener closes (orderly shutdown) or a fatal
// accept error occurs.
func (s *Supervisor) acceptLoop(ctx context.Context, listener net.Listener) error {
	worker := connserver.New(s.svc, s.log, int(s.cfg.ChunkSize.Bytes()))

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				// Listener was closed as part of orderly shutdown.
				return nil
			default:
				return fmt.Errorf("supervisor: accept: %w", aesderr.ErrFatal)
			}
		}

		metrics.ConnectionsTotal.Inc()
		s.workers.Add(1)
		go func() {
			defer s.workers.Done()
			worker.Serve(conn)
		}()
	}
}

// runTimer ingests a "timestamp:<RFC1123>\n" entry every TimerPeriod
// until ctx is canceled.
func (s *Supervisor) runTimer(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.TimerPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			line := fmt.Sprintf("timestamp:%s\n", now.Format(time.RFC1123))
			if err := s.svc.PeriodicTimestamp([]byte(line)); err != nil {
				s.log.Warnw("periodic timestamp failed", "error", err)
			}
		}
	}
}

// runMetricsServer serves the Prometheus /metrics endpoint until ctx is
// canceled.
func (s *Supervisor) runMetricsServer(ctx context.Context) error {
	reg := prometheus.NewRegistry()
	metrics.MustRegister(reg)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: s.cfg.MetricsAddr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("supervisor: metrics server: %w", aesderr.ErrFatal)
	}
}
