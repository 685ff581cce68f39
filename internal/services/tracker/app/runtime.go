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
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/skylog-dev/skylog/internal/services/tracker/domain/event"
	"github.com/skylog-dev/skylog/internal/services/tracker/ingest"
	"github.com/skylog-dev/skylog/internal/services/tracker/storage/sqlite"
)

// RuntimeConfig holds everything the tracker runtime needs to start.
type RuntimeConfig struct {
	// DBPath is the SQLite database location. Empty means data/skylog.db.
	DBPath string
	// HealthPort is the gRPC health endpoint port. Zero picks an
	// ephemeral port.
	HealthPort int
	// RebuildOnStart wipes and replays every projection before serving.
	RebuildOnStart bool
	// Source feeds the ingest poller. Nil runs the service query-only.
	Source ingest.Source
	// PollInterval and StaleAfter configure the poller. Zero values use
	// the ingest defaults.
	PollInterval time.Duration
	StaleAfter   time.Duration
}

// Runtime hosts the tracker: the SQLite store, the service facade, the
// ingest poller, and a gRPC health endpoint.
type Runtime struct {
	listener   net.Listener
	grpcServer *grpc.Server
	health     *health.Server
	store      *sqlite.Store
	service    *Service
	poller     *ingest.Poller
}

// NewRuntime opens the store, brings the read models current, and prepares
// the poller and health endpoint. Serve starts them.
func NewRuntime(ctx context.Context, cfg RuntimeConfig) (*Runtime, error) {
	store, err := OpenStore(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	service := NewService(StoresFrom(store), nil)

	if cfg.RebuildOnStart {
		if err := service.RebuildAll(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("rebuild projections: %w", err)
		}
	} else if err := service.CatchUp(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("catch up projections: %w", err)
	}

	var poller *ingest.Poller
	if cfg.Source != nil {
		poller = &ingest.Poller{
			Source:     cfg.Source,
			Dispatcher: service.Dispatcher(),
			Interval:   cfg.PollInterval,
			StaleAfter: cfg.StaleAfter,
		}
		if err := poller.Seed(ctx, store); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("seed ingest poller: %w", err)
		}
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.HealthPort))
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("listen on port %d: %w", cfg.HealthPort, err)
	}
	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	return &Runtime{
		listener:   listener,
		grpcServer: grpcServer,
		health:     healthServer,
		store:      store,
		service:    service,
		poller:     poller,
	}, nil
}

// Addr returns the health endpoint listener address.
func (r *Runtime) Addr() string {
	if r == nil || r.listener == nil {
		return ""
	}
	return r.listener.Addr().String()
}

// Service returns the application facade.
func (r *Runtime) Service() *Service {
	if r == nil {
		return nil
	}
	return r.service
}

// Run builds a runtime from the config and serves it until the context ends.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	rt, err := NewRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	return rt.Serve(ctx)
}

// Serve starts the health endpoint and the poller and blocks until the
// context ends or serving fails. Shutdown is graceful: the in-flight
// ingest cycle finishes before Serve returns.
func (r *Runtime) Serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	defer r.closeStore()

	log.Printf("tracker health endpoint listening at %v", r.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- r.grpcServer.Serve(r.listener)
	}()

	pollErr := make(chan error, 1)
	if r.poller != nil {
		go func() {
			pollErr <- r.poller.Run(ctx)
		}()
	} else {
		log.Printf("no feed source configured, running query-only")
	}

	handleErr := func(err error) error {
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve health endpoint: %w", err)
	}

	select {
	case <-ctx.Done():
		if r.health != nil {
			r.health.Shutdown()
		}
		r.grpcServer.GracefulStop()
		err := <-serveErr
		if r.poller != nil {
			<-pollErr
		}
		return handleErr(err)
	case err := <-serveErr:
		return handleErr(err)
	case err := <-pollErr:
		r.grpcServer.GracefulStop()
		<-serveErr
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("ingest poller: %w", err)
		}
		return nil
	}
}

// OpenStore opens the SQLite store at path, creating the file and its
// directory as needed. An empty path uses the default data/skylog.db.
func OpenStore(ctx context.Context, path string) (*sqlite.Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = filepath.Join("data", "skylog.db")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}

	store, err := sqlite.Open(ctx, path, event.NewRegistry())
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	return store, nil
}

// StoresFrom binds every store interface to one SQLite store.
func StoresFrom(store *sqlite.Store) Stores {
	return Stores{
		Events:      store,
		Comments:    store,
		Favourites:  store,
		Aircraft:    store,
		Checkpoints: store,
		Statistics:  store,
	}
}

func (r *Runtime) closeStore() {
	if r == nil || r.store == nil {
		return
	}
	if err := r.store.Close(); err != nil {
		log.Printf("close tracker store: %v", err)
	}
}
