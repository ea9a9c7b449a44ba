package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	pb "github.com/godilite/activation-insights/api/v1"
	"github.com/godilite/activation-insights/internal/aggregate"
	"github.com/godilite/activation-insights/internal/config"
	handler "github.com/godilite/activation-insights/internal/grpc"
	httpapi "github.com/godilite/activation-insights/internal/http"
	"github.com/godilite/activation-insights/internal/repository"
	"github.com/godilite/activation-insights/internal/service"
	"github.com/godilite/activation-insights/pkg/cache"
	grpcsrv "github.com/godilite/activation-insights/pkg/grpc/server"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	logger     *zap.Logger
	dashboard  *service.DashboardService
	cache      *cache.ReadThrough
	grpcServer *grpcsrv.Server
	httpServer *httpapi.Server
}

func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cacher, err := newCacher(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("cache init failed: %w", err)
	}
	rt := cache.NewReadThrough(cacher, cfg.CacheTTL, logger)

	rules := aggregate.DefaultRoleRules()
	if cfg.RoleRulesFile != "" {
		rules, err = aggregate.LoadRoleRules(cfg.RoleRulesFile)
		if err != nil {
			_ = rt.Close()
			return nil, fmt.Errorf("role rules: %w", err)
		}
		logger.Info("Role rules loaded", zap.String("path", cfg.RoleRulesFile), zap.Int("rules", len(rules)))
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Warn("display timezone unavailable, using fixed UTC-3", zap.Error(err))
	}
	snapshotRepo := repository.NewSnapshotRepository(cfg.SnapshotURL, cfg.SnapshotTimeout, logger)
	dashboardService := service.NewDashboardService(snapshotRepo, logger,
		service.WithLocation(loc),
		service.WithRoleRules(rules),
	)
	logger.Info("Dashboard service initialized",
		zap.String("snapshot_url", cfg.SnapshotURL),
		zap.String("timezone", loc.String()))

	grpcHandlers := handler.NewGRPCHandlers(dashboardService, rt, logger)

	grpcServer, err := grpcsrv.New(
		grpcsrv.WithPort(cfg.GRPCPort),
		grpcsrv.WithLogger(logger),
		grpcsrv.WithReflection(cfg.GRPCReflectionEnabled),
		grpcsrv.WithLogging(true),
		grpcsrv.WithRecovery(true),
	)
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("failed to create gRPC server: %w", err)
	}

	grpcServer.RegisterServiceWithHealth(pb.ServiceName, func(r grpc.ServiceRegistrar) {
		pb.RegisterActivationDashboardServer(r, grpcHandlers)
	})

	httpServer, err := httpapi.NewServer(
		httpapi.NewHandlers(dashboardService, rt, logger),
		httpapi.WithPort(cfg.HTTPPort),
		httpapi.WithLogger(logger),
		httpapi.WithAllowOrigins(cfg.CORSAllowOrigins),
	)
	if err != nil {
		_ = grpcServer.Shutdown(ctx)
		_ = rt.Close()
		return nil, fmt.Errorf("failed to create HTTP server: %w", err)
	}

	return &App{
		logger:     logger,
		dashboard:  dashboardService,
		cache:      rt,
		grpcServer: grpcServer,
		httpServer: httpServer,
	}, nil
}

// newCacher picks Redis when an address is configured and an in-process LRU otherwise.
func newCacher(ctx context.Context, cfg *config.Config, logger *zap.Logger) (cache.Cacher, error) {
	if cfg.RedisAddr == "" {
		m, err := cache.NewMemory(cfg.CacheSize)
		if err != nil {
			return nil, err
		}
		logger.Info("Cache client initialized", zap.String("backend", "memory"), zap.Int("size", cfg.CacheSize))
		return m, nil
	}
	c, err := cache.NewRedis(ctx, cache.WithAddress(cfg.RedisAddr))
	if err != nil {
		return nil, err
	}
	logger.Info("Cache client initialized", zap.String("backend", "redis"), zap.String("addr", cfg.RedisAddr))
	return c, nil
}

// GRPCAddr returns the gRPC listening address.
func (a *App) GRPCAddr() net.Addr { return a.grpcServer.Addr() }

// HTTPAddr returns the HTTP listening address.
func (a *App) HTTPAddr() net.Addr { return a.httpServer.Addr() }

// Run serves both transports until ctx is cancelled or one of them fails,
// then shuts everything down within shutdownTimeout.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("application starting",
		zap.String("grpc_addr", a.GRPCAddr().String()),
		zap.String("http_addr", a.HTTPAddr().String()))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(a.grpcServer.Serve)
	g.Go(a.httpServer.Serve)

	g.Go(func() error {
		// warm the snapshot so the first request does not pay for the fetch
		info, err := a.dashboard.EnsureSnapshot(gctx)
		if err != nil {
			a.logger.Warn("initial snapshot load failed", zap.Error(err))
			return nil
		}
		a.logger.Info("initial snapshot loaded",
			zap.String("snapshot_id", info.ID),
			zap.Int("checkins", info.Checkins))
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return a.shutdown()
	})

	err := g.Wait()
	_ = a.logger.Sync()
	return err
}

func (a *App) shutdown() error {
	a.logger.Info("application shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.grpcServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("grpc shutdown: %w", err))
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Error("cache shutdown error", zap.Error(err))
	}

	if ctx.Err() == context.DeadlineExceeded {
		a.logger.Warn("shutdown completed but deadline exceeded")
	} else {
		a.logger.Info("graceful shutdown completed successfully")
	}
	return errors.Join(errs...)
}
