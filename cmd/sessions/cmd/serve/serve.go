package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"audio-sessions/cmd/sessions/cmd/cmdutil"
	"audio-sessions/cmd/sessions/cmd/version"
	"audio-sessions/internal/api/server"
	v1routes "audio-sessions/internal/api/v1/routes"
	"audio-sessions/internal/api/v1/services"
	"audio-sessions/internal/app"
	envconfig "audio-sessions/internal/config"
)

var (
	host string
	port string
)

func init() {
	Cmd.Flags().StringVar(&host, "host", "", "listen host, defaults to server.host")
	Cmd.Flags().StringVarP(&port, "port", "p", "", "listen port, defaults to server.port")
}

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API

- Session routes under /api/v1/sessions
- /health and prometheus /metrics
- Artifact archive routes when archive.endpoint is configured`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := cmdutil.Open(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		cfg := env.Expanded.Server
		if host != "" {
			cfg.Host = host
		}
		if port != "" {
			cfg.Port = port
		}
		if err := envconfig.ValidatePort(cfg.Port, "server"); err != nil {
			return err
		}

		store := env.Orch.Store()
		container := &v1routes.ServiceContainer{
			SessionService: services.NewSessionService(env.Orch, env.Settings, env.Keys, env.Logger),
			ExportService:  services.NewExportService(store),
		}
		if env.Expanded.Archive.Endpoint != "" {
			archiver, err := app.InitializeArchiver(ctx, env.Expanded)
			if err != nil {
				env.Logger.Warn("archive routes disabled", zap.Error(err))
			} else {
				container.ArchiveService = services.NewArchiveService(store, archiver)
			}
		}

		srvCfg := server.DefaultConfig(cfg.Host, cfg.Port, cfg.Environment)
		srvCfg.Version = version.Version()
		srvCfg.CORSOrigins = cfg.CORSOrigins
		srv := server.NewServer(srvCfg, container, env.Registry, env.Logger)
		if err := srv.Start(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "listening on http://%s:%s\n", cfg.Host, cfg.Port)

		sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		select {
		case <-sigCtx.Done():
		case err := <-srv.Done():
			return err
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}
