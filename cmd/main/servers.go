package main

import (
	"context"
	"fmt"
	"net"

	"chart-feed/src/config"
	pb "chart-feed/src/grpc_control"
	"chart-feed/src/interfaces"
	"chart-feed/src/logger"
	"chart-feed/src/session"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

// -----------------------------------------------------------------------------

// runServers runs the HTTP/websocket server and the gRPC control server until
// ctx is cancelled or one of them fails.
func runServers(
	ctx context.Context,
	srv interfaces.IDataExchanger,
	manager *session.Manager,
	recorder interfaces.IRecorder,
	conf *config.Config,
	configPath string,
	appLogger *logger.Logger,
) error {
	g, gctx := errgroup.WithContext(ctx)

	// 1. FastAPIServer
	g.Go(srv.Start)

	// 2. gRPC Control Server
	port := conf.GrpcPort
	if port == 0 {
		port = 50051 // Default fallback
	}
	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", conf.GrpcHost, port))
	if err != nil {
		srv.Stop()
		return fmt.Errorf("failed to listen for gRPC: %w", err)
	}

	grpcServer := grpc.NewServer()
	controlService := pb.NewControlService(conf, manager, srv, recorder, configPath, appLogger.Named("ControlService"))
	pb.RegisterChartControlServer(grpcServer, controlService)

	g.Go(func() error {
		appLogger.Info("Starting gRPC Control Server on %s", lis.Addr())
		return grpcServer.Serve(lis)
	})

	// 3. Teardown on signal or failure
	g.Go(func() error {
		<-gctx.Done()
		grpcServer.GracefulStop()
		return srv.Stop()
	})

	return g.Wait()
}
