package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/ogurasousui/staffing-grpc-clean-arch/internal/adapters/grpc/handler"
	"github.com/ogurasousui/staffing-grpc-clean-arch/internal/adapters/repository/postgres"
	"github.com/ogurasousui/staffing-grpc-clean-arch/internal/core/assignment"
	"github.com/ogurasousui/staffing-grpc-clean-arch/internal/core/workload"
	"github.com/ogurasousui/staffing-grpc-clean-arch/internal/platform/config"
	pg "github.com/ogurasousui/staffing-grpc-clean-arch/internal/platform/db/postgres"
	"github.com/ogurasousui/staffing-grpc-clean-arch/internal/platform/lock"
	"github.com/ogurasousui/staffing-grpc-clean-arch/internal/platform/logging"
	"github.com/ogurasousui/staffing-grpc-clean-arch/internal/platform/metrics"
	"github.com/ogurasousui/staffing-grpc-clean-arch/internal/platform/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// .env はローカル開発用。存在しなくてもよい
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("failed to load .env: %v", err)
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	slog.SetDefault(logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	dbPool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer dbPool.Close()

	// metrics_addr が未設定なら計測は破棄する
	var assignmentMetrics assignment.Metrics = metrics.NewNop()
	registry := prometheus.NewRegistry()
	if cfg.Server.MetricsAddr != "" {
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		collector, err := metrics.NewPrometheus(registry, "")
		if err != nil {
			return err
		}
		assignmentMetrics = collector
	}

	txManager := pg.NewTransactionManager(dbPool)
	employeeRepo := postgres.NewEmployeeRepository(dbPool)
	assignmentRepo := postgres.NewAssignmentRepository(dbPool)

	workloadSvc := workload.NewService(workload.NewCalculator(employeeRepo, assignmentRepo, txManager))
	assignmentSvc := assignment.NewService(assignmentRepo, employeeRepo, workloadSvc, txManager,
		assignment.WithLocker(lock.NewKeyedMutex()),
		assignment.WithLogger(logger.With("component", "assignment")),
		assignment.WithMetrics(assignmentMetrics),
		assignment.WithOperationTimeout(cfg.Assignment.OperationTimeout),
	)

	grpcServer := server.New(cfg.Server.ListenAddr, handler.NewStaffingGrpcHandler(workloadSvc, assignmentSvc), server.Options{
		Logger:         logger.With("component", "grpc"),
		RequestTimeout: cfg.Server.RequestTimeout,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("gRPC server listening", "addr", cfg.Server.ListenAddr)
		return grpcServer.Run(gctx)
	})

	if cfg.Server.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
		metricsServer := &http.Server{
			Addr:              cfg.Server.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			logger.Info("metrics server listening", "addr", cfg.Server.MetricsAddr)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return metricsServer.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}
