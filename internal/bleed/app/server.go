// Package app wires the bleed engine runtime: storage, propagation,
// the MCP operator surface, and the gRPC health lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"bleedengine/internal/bleed/cascade"
	"bleedengine/internal/bleed/engine"
	"bleedengine/internal/bleed/registry"
	"bleedengine/internal/bleed/storage/sqlite"
	"bleedengine/internal/bleed/transform"
	"bleedengine/internal/mcp"
	"bleedengine/internal/platform/config"
)

type serverEnv struct {
	DBPath         string `env:"BLEED_DB_PATH"`
	RewriterURL    string `env:"BLEED_REWRITER_URL"`
	RewriterAPIKey string `env:"BLEED_REWRITER_API_KEY"`
	RewriterModel  string `env:"BLEED_REWRITER_MODEL"`
}

func loadServerEnv() serverEnv {
	var cfg serverEnv
	_ = config.ParseEnv(&cfg)
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = filepath.Join("data", "bleed.db")
	}
	return cfg
}

// Server hosts the engine runtime, its MCP surface, and the gRPC health
// endpoint.
type Server struct {
	listener   net.Listener
	grpcServer *grpc.Server
	health     *health.Server
	store      *sqlite.Store
	engine     *engine.Engine
	mcpServer  *mcp.Server
}

// New creates a configured server listening on the provided port.
func New(port int, version string) (*Server, error) {
	return NewWithAddr(fmt.Sprintf(":%d", port), version)
}

// NewWithAddr creates a configured server for the provided address.
func NewWithAddr(addr, version string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	srvEnv := loadServerEnv()
	store, err := openStore(srvEnv.DBPath)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}

	scheduler := cascade.New(store, registry.New(store), newTransformer(srvEnv))
	eng := engine.New(store, scheduler)

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus("bleedengine", grpc_health_v1.HealthCheckResponse_SERVING)

	return &Server{
		listener:   listener,
		grpcServer: grpcServer,
		health:     healthServer,
		store:      store,
		engine:     eng,
		mcpServer:  mcp.NewServer(eng, version),
	}, nil
}

func openStore(dbPath string) (*sqlite.Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir %s: %w", dir, err)
		}
	}
	store, err := sqlite.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store at %s: %w", dbPath, err)
	}
	return store, nil
}

// newTransformer selects the rewrite collaborator. An API key switches on the
// HTTP collaborator; otherwise rewrites use the deterministic templates.
func newTransformer(srvEnv serverEnv) *transform.Transformer {
	if strings.TrimSpace(srvEnv.RewriterAPIKey) != "" || strings.TrimSpace(srvEnv.RewriterURL) != "" {
		return transform.New(transform.NewHTTPRewriter(transform.HTTPRewriterConfig{
			ResponsesURL: srvEnv.RewriterURL,
			APIKey:       srvEnv.RewriterAPIKey,
			Model:        srvEnv.RewriterModel,
		}))
	}
	return transform.New(transform.TemplateRewriter{})
}

// Addr returns the listener address for the server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Engine exposes the engine facade, mainly for tests.
func (s *Server) Engine() *engine.Engine {
	if s == nil {
		return nil
	}
	return s.engine
}

// Run creates and serves a server until context cancellation.
func Run(ctx context.Context, port int, version string, withMCP bool) error {
	server, err := New(port, version)
	if err != nil {
		return err
	}
	return server.Serve(ctx, withMCP)
}

// Serve runs the gRPC health endpoint, and the MCP stdio surface when
// requested, until context cancellation.
func (s *Server) Serve(ctx context.Context, withMCP bool) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	log.Printf("bleed engine listening at %v", s.listener.Addr())
	group, groupCtx := errgroup.WithContext(ctx)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpcServer.Serve(s.listener)
	}()
	group.Go(func() error {
		<-groupCtx.Done()
		if s.health != nil {
			s.health.Shutdown()
		}
		s.grpcServer.GracefulStop()
		err := <-serveErr
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	})

	if withMCP {
		group.Go(func() error {
			if err := s.mcpServer.Run(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("serve MCP: %w", err)
			}
			return nil
		})
	}
	return group.Wait()
}

// Close releases the listener and storage.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if s.store != nil {
		_ = s.store.Close()
	}
}
