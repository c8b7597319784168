package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/resolution-tracker/internal/auth"
	"github.com/frahmantamala/resolution-tracker/internal/transport/openapi"
	"github.com/frahmantamala/resolution-tracker/internal/transport/rest"
	"github.com/frahmantamala/resolution-tracker/internal/user"
	"github.com/frahmantamala/resolution-tracker/internal/workflow"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the resolution authority HTTP API`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

var runEscalation bool

func init() {
	httpServerCmd.Flags().BoolVar(&runEscalation, "escalate", false, "also run the auto-accept sweeper in this process")
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	lg := deps.Logger

	if _, err := openapi.Load(context.Background()); err != nil {
		lg.Warn("embedded OpenAPI document is invalid", "error", err)
	}

	checks := map[string]rest.Pinger{"postgres": deps.DB.DB}
	if deps.Redis != nil {
		checks["redis"] = rest.PingFunc(func(ctx context.Context) error {
			return deps.Redis.Ping(ctx).Err()
		})
	}
	router := rest.NewRouter(rest.Handlers{
		Health:         rest.NewHealthHandler(checks),
		Auth:           auth.NewHandler(deps.Auth, lg),
		User:           user.NewHandler(deps.Users),
		Workflow:       workflow.NewHandler(deps.Workflow, lg),
		Users:          deps.Users,
		AllowedOrigins: deps.Config.Server.AllowedOrigins,
	}, lg)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	lg.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if runEscalation {
		go func() {
			if err := deps.Workflow.RunEscalation(ctx); err != nil && ctx.Err() == nil {
				lg.Error("escalation sweeper stopped", "error", err)
			}
		}()
	}

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		lg.Info("Received signal, shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", "error", err)
		}
		if err := deps.Bus.Drain(shutdownCtx); err != nil {
			lg.Warn("pending room updates dropped", "error", err)
		}
		deps.Close()
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			lg.Error("Server failed to start", "error", err)
			deps.Close()
			os.Exit(1)
		}
	}

	lg.Info("Server stopped")
}
