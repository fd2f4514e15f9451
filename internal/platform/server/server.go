package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/ogurasousui/staffing-grpc-clean-arch/internal/adapters/grpc/handler"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Server は gRPC サーバーのライフサイクルを管理します。
type Server struct {
	listenAddr string
	grpcServer *grpc.Server
	health     *health.Server
}

// Options はサーバー構築時の任意設定です。
type Options struct {
	Logger *slog.Logger
	// RequestTimeout が正の値なら、期限のないリクエストにこの期限を付与します。
	RequestTimeout time.Duration
}

// New は StaffingService とヘルスチェックを登録した gRPC サーバーを構築します。
func New(listenAddr string, staffing handler.StaffingServiceServer, o Options, opts ...grpc.ServerOption) *Server {
	logger := o.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	opts = append(opts, grpc.ChainUnaryInterceptor(
		requestIDInterceptor(),
		loggingInterceptor(logger),
		timeoutInterceptor(o.RequestTimeout),
	))

	srv := grpc.NewServer(opts...)
	handler.RegisterStaffingServiceServer(srv, staffing)

	healthServer := health.NewServer()
	healthServer.SetServingStatus(handler.StaffingServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, healthServer)

	return &Server{
		listenAddr: listenAddr,
		grpcServer: srv,
		health:     healthServer,
	}
}

// Run はサーバーを起動し、コンテキストがキャンセルされると GracefulStop します。
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.listenAddr, err)
	}
	return s.Serve(ctx, lis)
}

// Serve は指定された listener で待ち受けます。
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	go func() {
		<-ctx.Done()
		s.GracefulStop()
	}()

	if err := s.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	return nil
}

// GracefulStop はヘルスチェックを NOT_SERVING にしてからサーバーを安全に停止します。
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}
