package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"alightgram/config"
	"alightgram/gateway"
	"alightgram/handler"
	"alightgram/interceptor"
	"alightgram/pkg/jwt"
	"alightgram/rpc"
	"alightgram/service"
	"alightgram/subscriber"
)

func runServe(ctx context.Context) error {
	cfg, err := config.LoadServiceConfig()
	if err != nil {
		return fmt.Errorf("failed to load service config: %w", err)
	}
	logger := config.NewLogger(cfg.LogLevel, cfg.LogFormat)

	docs, err := openDocuments(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer docs.close()

	store, revocations, err := openRealtime(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	nc, pub, err := openEvents(cfg, logger)
	if err != nil {
		return err
	}
	if nc != nil {
		defer nc.Close()
	}

	host := openMediaHost(cfg, logger)
	suggester := openSuggester(ctx, cfg, logger)
	tokens := jwt.NewManager(cfg.JWTSecret, cfg.AccessTokenTTL)

	// Services
	visibility := service.NewVisibility(docs.projects)
	profiles := service.NewProfileService(docs.users, host, cfg.CanonicalMediaHost, logger)
	identity := service.NewIdentityService(docs.credentials, docs.users, profiles, tokens, revocations, cfg.GoogleClientID, logger)
	social := service.NewSocialService(docs.users, docs.follows, pub, logger)
	presence := service.NewPresenceTracker(store, logger)
	projects := service.NewProjectService(docs.projects, docs.users, visibility, suggester, pub, logger)
	comments := service.NewCommentService(store, docs.users, visibility, pub, logger)
	chat := service.NewChatService(store, docs.users, logger)

	// gRPC
	auth := interceptor.NewAuthInterceptor(tokens, revocations, rpc.PublicMethods)
	auth.AddPublicMethods([]string{
		healthpb.Health_Check_FullMethodName,
		healthpb.Health_Watch_FullMethodName,
		"/grpc.reflection.v1.ServerReflection/ServerReflectionInfo",
		"/grpc.reflection.v1alpha.ServerReflection/ServerReflectionInfo",
	})

	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(auth.Unary()),
		grpc.StreamInterceptor(auth.Stream()),
		grpc.MaxRecvMsgSize(10*1024*1024),
		grpc.MaxSendMsgSize(10*1024*1024),
	)
	rpc.RegisterAuthServiceServer(grpcServer, handler.NewAuthHandler(identity, logger))
	rpc.RegisterProfileServiceServer(grpcServer, handler.NewProfileHandler(profiles, logger))
	rpc.RegisterSocialServiceServer(grpcServer, handler.NewSocialHandler(social, presence, logger))
	rpc.RegisterProjectServiceServer(grpcServer, handler.NewProjectHandler(projects, logger))
	rpc.RegisterCommentServiceServer(grpcServer, handler.NewCommentHandler(comments, logger))
	rpc.RegisterChatServiceServer(grpcServer, handler.NewChatHandler(chat, logger))

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("failed to listen on port %s: %w", cfg.GRPCPort, err)
	}

	// HTTP gateway
	gw := gateway.New(auth, host, profiles, presence, visibility, store, gateway.Config{
		HeartbeatTTL: cfg.PresenceHeartbeatTTL,
		Theme:        cfg.Theme,
	}, logger)
	httpServer := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           gw.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Background workers
	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()
	go presence.RunSweeper(workerCtx, cfg.PresenceSweepInterval)

	var notifications *subscriber.NotificationSubscriber
	if nc != nil {
		notifications = subscriber.NewNotificationSubscriber(workerCtx, nc, store, logger)
		if err := notifications.Start(); err != nil {
			return fmt.Errorf("failed to start notification subscriber: %w", err)
		}
	}

	errCh := make(chan error, 2)
	go func() {
		logger.WithField("port", cfg.GRPCPort).Info("gRPC server listening")
		errCh <- grpcServer.Serve(listener)
	}()
	go func() {
		logger.WithField("port", cfg.HTTPPort).Info("HTTP gateway listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-quit:
		logger.WithField("signal", sig.String()).Info("Shutting down")
	case runErr = <-errCh:
		logger.WithError(runErr).Error("Server stopped unexpectedly")
	}

	healthServer.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("HTTP gateway shutdown incomplete")
	}
	grpcServer.GracefulStop()

	if notifications != nil {
		notifications.Stop()
	}
	stopWorkers()

	logger.Info("alightgram stopped cleanly")
	return runErr
}
