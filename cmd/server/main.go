package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"termchat/internal/auth"
	"termchat/internal/chat"
	"termchat/internal/exec"
	"termchat/internal/exec/language"
	"termchat/internal/exec/observer"
	"termchat/internal/exec/runner"
	"termchat/internal/exec/workspace"
	"termchat/internal/files"
	"termchat/internal/server"
	"termchat/pkg/utils/logger"

	"go.uber.org/zap"
)

const defaultConfigPath = "configs/server.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	flag.Parse()

	appCfg, err := loadAppConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load app config failed: %v\n", err)
		return
	}

	if err := logger.Init(appCfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	userStore, err := auth.NewFileStore(appCfg.Auth.UsersFile)
	if err != nil {
		logger.Error(context.Background(), "init user store failed", zap.Error(err))
		return
	}
	authSvc, err := auth.NewService(userStore, auth.ServiceConfig{
		JWTSecret: []byte(appCfg.Auth.JWTSecret),
		JWTIssuer: appCfg.Auth.JWTIssuer,
		TokenTTL:  appCfg.Auth.TokenTTL,
	})
	if err != nil {
		logger.Error(context.Background(), "init auth service failed", zap.Error(err))
		return
	}

	uploadStore, err := files.NewStore(appCfg.Uploads.Dir, appCfg.Uploads.MaxBytes)
	if err != nil {
		logger.Error(context.Background(), "init upload store failed", zap.Error(err))
		return
	}

	registry, err := language.NewRegistry(language.Defaults(), appCfg.Exec.Languages)
	if err != nil {
		logger.Error(context.Background(), "init language registry failed", zap.Error(err))
		return
	}
	workspaces, err := workspace.NewManager(appCfg.Exec.WorkRoot)
	if err != nil {
		logger.Error(context.Background(), "init workspace manager failed", zap.Error(err))
		return
	}
	worker, err := exec.NewWorker(exec.WorkerConfig{
		Registry:         registry,
		Workspaces:       workspaces,
		Procs:            runner.NewProcessRunner(appCfg.Exec.OutputLimitBytes),
		MaxSourceBytes:   appCfg.Exec.MaxSourceBytes,
		OutputLimitBytes: appCfg.Exec.OutputLimitBytes,
	})
	if err != nil {
		logger.Error(context.Background(), "init execution worker failed", zap.Error(err))
		return
	}
	worker.SetMetricsRecorder(observer.LogRecorder{})
	worker.SetStatusReporter(exec.LogStatusReporter{})
	pool := exec.NewPool(worker, appCfg.Exec.PoolSize)

	httpServer := server.New(appCfg.Server, server.Deps{
		Auth:   authSvc,
		Store:  uploadStore,
		Runner: pool,
		Hub:    chat.NewHub(),
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info(context.Background(), "termchat server started",
			zap.String("addr", appCfg.Server.Addr),
			zap.Strings("languages", registry.IDs()))
		errCh <- httpServer.ListenAndServe()
	}()

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(context.Background(), "http server stopped", zap.Error(err))
		}
	case <-shutdownCtx.Done():
		logger.Info(context.Background(), "shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error(context.Background(), "http server shutdown failed", zap.Error(err))
	}
}
