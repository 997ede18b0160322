// Package server wires the questrunner runtime: catalog, storage, combat
// engine client, orchestrator tick loop, gRPC health and the MCP surface.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/louisbranch/questrunner/internal/platform/discovery"
	platformgrpc "github.com/louisbranch/questrunner/internal/platform/grpc"
	"github.com/louisbranch/questrunner/internal/platform/timeouts"
	"github.com/louisbranch/questrunner/internal/services/runner/api/tools"
	"github.com/louisbranch/questrunner/internal/services/runner/domain/combat"
	"github.com/louisbranch/questrunner/internal/services/runner/domain/orchestrator"
	"github.com/louisbranch/questrunner/internal/services/runner/domain/priority"
	"github.com/louisbranch/questrunner/internal/services/runner/domain/quest"
	"github.com/louisbranch/questrunner/internal/services/runner/integration/rotation"
	runnersqlite "github.com/louisbranch/questrunner/internal/services/runner/storage/sqlite"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	defaultTickInterval = 100 * time.Millisecond
	storeWriteTimeout   = 2 * time.Second
)

// Config controls the runtime.
type Config struct {
	Port         int
	DBPath       string
	CatalogDir   string
	OverrideDir  string
	EngineAddr   string
	EngineWait   bool
	DialTimeout  time.Duration
	TickInterval time.Duration
	Settle       time.Duration
	Combat       combat.Settings
	CallerID     string
	CallerName   string
	MCPStdio     bool
}

// Runtime hosts the orchestrator and its supporting services.
type Runtime struct {
	cfg          Config
	listener     net.Listener
	grpcServer   *grpc.Server
	health       *health.Server
	store        *runnersqlite.Store
	catalog      *quest.Registry
	priority     *priority.Store
	orchestrator *orchestrator.Orchestrator
	engineConn   *grpc.ClientConn
	engine       *rotation.Client
	leased       *combat.LeasedRotation
	mcpServer    *mcp.Server

	closeOnce sync.Once
}

// New builds a runtime listening on cfg.Port.
func New(ctx context.Context, cfg Config) (*Runtime, error) {
	return NewWithAddr(ctx, fmt.Sprintf(":%d", cfg.Port), cfg)
}

// NewWithAddr builds a runtime listening on addr.
func NewWithAddr(ctx context.Context, addr string, cfg Config) (rt *Runtime, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaultTickInterval
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = timeouts.GRPCDial
	}

	rt = &Runtime{cfg: cfg}
	defer func() {
		if err != nil {
			rt.Close()
		}
	}()

	if rt.listener, err = net.Listen("tcp", addr); err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	if rt.store, err = openStore(ctx, cfg.DBPath); err != nil {
		return nil, err
	}
	rt.catalog = loadCatalog(cfg.CatalogDir, cfg.OverrideDir)

	rt.priority = priority.NewStore()
	if err := rt.restorePriority(ctx); err != nil {
		return nil, err
	}

	combatCtl, err := rt.buildCombat(ctx)
	if err != nil {
		return nil, err
	}

	rt.orchestrator, err = orchestrator.New(orchestrator.Config{
		Catalog:    rt.catalog,
		Priority:   rt.priority,
		Combat:     combatCtl,
		Interactor: logInteractor{},
		Journal:    rt.store,
		Settle:     cfg.Settle,
		Logf:       log.Printf,
	})
	if err != nil {
		return nil, fmt.Errorf("build orchestrator: %w", err)
	}
	rt.restoreTracks(ctx)

	if cfg.MCPStdio {
		rt.mcpServer, err = tools.NewServer(tools.Deps{
			Orchestrator: rt.orchestrator,
			Catalog:      rt.catalog,
			Priority:     rt.priority,
			Journal:      rt.store,
		})
		if err != nil {
			return nil, fmt.Errorf("build mcp server: %w", err)
		}
	}

	rt.grpcServer = grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	rt.health = health.NewServer()
	grpc_health_v1.RegisterHealthServer(rt.grpcServer, rt.health)
	rt.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	rt.health.SetServingStatus(discovery.ServiceRunner, grpc_health_v1.HealthCheckResponse_SERVING)
	return rt, nil
}

// Addr returns the health listener address.
func (rt *Runtime) Addr() string {
	if rt == nil || rt.listener == nil {
		return ""
	}
	return rt.listener.Addr().String()
}

// Orchestrator returns the quest progress state machine.
func (rt *Runtime) Orchestrator() *orchestrator.Orchestrator { return rt.orchestrator }

// Catalog returns the loaded quest catalog.
func (rt *Runtime) Catalog() *quest.Registry { return rt.catalog }

// Priority returns the manual priority store.
func (rt *Runtime) Priority() *priority.Store { return rt.priority }

// Run builds a runtime and serves it until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	rt, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	return rt.Serve(ctx)
}

// Serve runs the tick loop, the revocation watcher, the health server and,
// when enabled, MCP on stdio. It returns once ctx ends or a server fails.
func (rt *Runtime) Serve(ctx context.Context) error {
	if rt == nil {
		return errors.New("runtime is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer rt.Close()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		rt.tickLoop(runCtx)
	}()
	if rt.leased != nil {
		watchCtx, stopWatch := context.WithCancel(runCtx)
		rt.leased.OnClose(stopWatch)
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := rt.engine.WatchRevocations(watchCtx, rt.leased.Channel(), rt.leased.HandleRevocation, log.Printf)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("combat engine watcher stopped: %v", err)
			}
		}()
	}

	log.Printf("questrunner health listening at %v", rt.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- rt.grpcServer.Serve(rt.listener)
	}()

	mcpErr := make(chan error, 1)
	if rt.mcpServer != nil {
		go func() {
			mcpErr <- rt.mcpServer.Run(runCtx, &mcp.StdioTransport{})
		}()
	}

	var err error
	select {
	case <-ctx.Done():
	case err = <-serveErr:
		if errors.Is(err, grpc.ErrServerStopped) {
			err = nil
		}
		if err != nil {
			err = fmt.Errorf("serve gRPC: %w", err)
		}
	case err = <-mcpErr:
		if err != nil {
			err = fmt.Errorf("serve mcp: %w", err)
		}
	}

	rt.shutdown()
	cancel()
	wg.Wait()
	return err
}

func (rt *Runtime) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(rt.cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rt.orchestrator.Tick(ctx)
		}
	}
}

// shutdown halts automation and drains the health server.
func (rt *Runtime) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer cancel()
	if rt.orchestrator != nil {
		rt.orchestrator.Stop(ctx, "shutdown")
	}
	if rt.leased != nil {
		_ = rt.leased.Close()
	}
	if rt.health != nil {
		rt.health.Shutdown()
	}
	if rt.grpcServer == nil {
		return
	}
	stopped := make(chan struct{})
	go func() {
		rt.grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-ctx.Done():
		rt.grpcServer.Stop()
	}
}

// Close releases runtime resources.
func (rt *Runtime) Close() {
	if rt == nil {
		return
	}
	rt.closeOnce.Do(func() {
		if rt.leased != nil {
			_ = rt.leased.Close()
		}
		if rt.grpcServer != nil {
			rt.grpcServer.Stop()
		}
		if rt.listener != nil {
			_ = rt.listener.Close()
		}
		if rt.engineConn != nil {
			if err := rt.engineConn.Close(); err != nil {
				log.Printf("close combat engine connection: %v", err)
			}
		}
		if rt.store != nil {
			if err := rt.store.Close(); err != nil {
				log.Printf("close questrunner store: %v", err)
			}
		}
	})
}

// buildCombat assembles the combat modules in priority order: the leased
// engine when an address is configured, then the local rotation.
func (rt *Runtime) buildCombat(ctx context.Context) (*combat.Controller, error) {
	local := combat.NewLocalRotation(rt.cfg.Combat)
	addr := strings.TrimSpace(rt.cfg.EngineAddr)
	if rt.cfg.Combat.Module != combat.KindLeased || addr == "" {
		if rt.cfg.Combat.Module == combat.KindLeased {
			log.Printf("combat engine address is empty; leased combat is unavailable")
		}
		return combat.NewController(log.Printf, local), nil
	}

	var err error
	if rt.cfg.EngineWait {
		rt.engineConn, err = platformgrpc.DialWithHealth(ctx, nil, addr, rotation.ServiceName, rt.cfg.DialTimeout, log.Printf, platformgrpc.DefaultClientDialOptions()...)
	} else {
		rt.engineConn, err = platformgrpc.NewLazyClient(addr)
	}
	if err != nil {
		return nil, fmt.Errorf("connect combat engine %s: %w", addr, err)
	}
	rt.engine = rotation.NewClient(rt.engineConn)
	rt.leased = combat.NewLeasedRotation(combat.LeasedConfig{
		Settings:   rt.cfg.Combat,
		Engine:     rt.engine,
		CallerID:   rt.cfg.CallerID,
		CallerName: rt.cfg.CallerName,
		Logf:       log.Printf,
	})
	return combat.NewController(log.Printf, rt.leased, local), nil
}

// restorePriority loads the saved priority list and persists later changes.
func (rt *Runtime) restorePriority(ctx context.Context) error {
	ids, err := rt.store.LoadPriority(ctx)
	if err != nil {
		return fmt.Errorf("load priority quests: %w", err)
	}
	rt.priority.Restore(ids, rt.catalog)
	if dropped := len(ids) - rt.priority.Len(); dropped > 0 {
		log.Printf("priority quests not in catalog dropped: count=%d", dropped)
	}
	store := rt.store
	rt.priority.OnChange(func(ids []quest.ElementID) {
		saveCtx, cancel := context.WithTimeout(context.Background(), storeWriteTimeout)
		defer cancel()
		if err := store.SavePriority(saveCtx, ids); err != nil {
			log.Printf("save priority quests: %v", err)
		}
	})
	return nil
}

// restoreTracks repositions each track from its saved cursor.
func (rt *Runtime) restoreTracks(ctx context.Context) {
	states, err := rt.store.ListTracks(ctx)
	if err != nil {
		log.Printf("load progress tracks: %v", err)
		return
	}
	for _, state := range states {
		if err := rt.orchestrator.Restore(state); err != nil {
			log.Printf("restore track %s: quest=%s err=%v", state.Track, state.QuestID, err)
		}
	}
}

func openStore(ctx context.Context, path string) (*runnersqlite.Store, error) {
	if strings.TrimSpace(path) == "" {
		path = filepath.Join("data", "questrunner.db")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := runnersqlite.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open questrunner sqlite store: %w", err)
	}
	return store, nil
}

type logInteractor struct{}

// Interact logs the request; the game client acknowledges it with a
// step_completed signal.
func (logInteractor) Interact(_ context.Context, dataID uint32) error {
	log.Printf("interaction requested: data_id=%d", dataID)
	return nil
}
