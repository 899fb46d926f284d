package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	platformgrpc "github.com/louisbranch/marketplace/internal/platform/grpc"
	"github.com/louisbranch/marketplace/internal/services/market/api/grpc/inspect"
	"github.com/louisbranch/marketplace/internal/services/market/domain/engine"
	"github.com/louisbranch/marketplace/internal/services/market/domain/ledger"
	"github.com/louisbranch/marketplace/internal/services/market/domain/royalty"
	"github.com/louisbranch/marketplace/internal/services/market/rollup"
	marketsqlite "github.com/louisbranch/marketplace/internal/services/market/storage/sqlite"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
)

// Config holds the runtime settings.
type Config struct {
	RollupURL   string
	JournalPath string
	GRPCAddr    string
	RoyaltyBps  int64
}

// Server hosts the rollup loop and, when configured, the inspect gRPC API.
type Server struct {
	runtime    *Runtime
	loop       *rollup.Loop
	journal    *marketsqlite.Store
	listener   net.Listener
	grpcServer *grpc.Server
	health     *health.Server
	logger     zerolog.Logger
}

// New creates a server from cfg. Nothing is served until Serve.
func New(cfg Config, logger zerolog.Logger) (*Server, error) {
	schedule, err := royalty.NewSchedule(cfg.RoyaltyBps)
	if err != nil {
		return nil, fmt.Errorf("royalty schedule: %w", err)
	}
	client, err := rollup.NewClient(cfg.RollupURL, &http.Client{})
	if err != nil {
		return nil, err
	}
	processor, err := engine.NewProcessor(ledger.NewStore(),
		engine.WithRoyalty(schedule),
		engine.WithLogger(logger.With().Str("component", "processor").Logger()),
	)
	if err != nil {
		return nil, err
	}

	s := &Server{logger: logger}
	runtimeOpts := []RuntimeOption{WithLogger(logger.With().Str("component", "runtime").Logger())}
	if path := strings.TrimSpace(cfg.JournalPath); path != "" {
		journal, err := openJournal(path)
		if err != nil {
			return nil, err
		}
		s.journal = journal
		runtimeOpts = append(runtimeOpts, WithJournal(journal))
	}
	s.runtime, err = NewRuntime(processor, runtimeOpts...)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.loop = &rollup.Loop{
		Client:  client,
		Handler: s.runtime,
		Logger:  logger.With().Str("component", "rollup").Logger(),
	}

	if addr := strings.TrimSpace(cfg.GRPCAddr); addr != "" {
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("listen on %s: %w", addr, err)
		}
		s.listener = listener
		s.grpcServer = grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
		s.health = platformgrpc.NewHealthServer(inspect.ServiceName)
		inspect.Register(s.grpcServer, inspect.NewService(s.runtime))
		platformgrpc.RegisterHealth(s.grpcServer, s.health)
	}
	return s, nil
}

// Runtime returns the shared runtime.
func (s *Server) Runtime() *Runtime {
	return s.runtime
}

// Addr returns the gRPC listener address, or "" when gRPC is disabled.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a server until ctx ends.
func Run(ctx context.Context, cfg Config, logger zerolog.Logger) error {
	server, err := New(cfg, logger)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve runs the rollup loop until ctx ends or the node becomes unreachable.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	defer s.Close()

	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var grpcErr chan error
	if s.grpcServer != nil {
		grpcErr = make(chan error, 1)
		s.logger.Info().Str("addr", s.Addr()).Msg("inspect gRPC listening")
		go func() {
			err := s.grpcServer.Serve(s.listener)
			if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				cancel()
				grpcErr <- fmt.Errorf("serve gRPC: %w", err)
				return
			}
			grpcErr <- nil
		}()
	}

	s.logger.Info().Msg("rollup loop started")
	loopErr := s.loop.Run(loopCtx)

	if s.grpcServer != nil {
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
		if err := <-grpcErr; err != nil {
			return err
		}
	}
	if loopErr != nil {
		return fmt.Errorf("rollup loop: %w", loopErr)
	}
	return nil
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			s.logger.Error().Err(err).Msg("close journal")
		}
		s.journal = nil
	}
}

func openJournal(path string) (*marketsqlite.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}
	store, err := marketsqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return store, nil
}
