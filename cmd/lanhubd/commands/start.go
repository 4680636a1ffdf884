package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lanhub/lanhub/internal/discovery"
	"github.com/lanhub/lanhub/internal/logger"
	"github.com/lanhub/lanhub/internal/perms"
	"github.com/lanhub/lanhub/internal/share"
	"github.com/lanhub/lanhub/internal/users"
	"github.com/lanhub/lanhub/pkg/api"
	"github.com/lanhub/lanhub/pkg/config"
	"github.com/lanhub/lanhub/pkg/metrics"
	"github.com/lanhub/lanhub/pkg/server"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the lanhub server",
	Long: `Start the lanhub server with the specified configuration.

Use --config to specify a custom configuration file, or it will use
./lanhub.yaml.

Examples:
  # Start with default config location
  lanhubd start

  # Start with custom config file
  lanhubd start --config /etc/lanhub/config.yaml

  # Start with environment variable overrides
  LANHUB_LOGGING_LEVEL=DEBUG lanhubd start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return fmt.Errorf("configuration file not found: %s (run 'lanhubd init' first)", configFile)
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return err
	}

	logger.Info("configuration loaded", "source", configFile)
	logger.Info("log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)

	sh, err := share.Open(cfg.Share.Path)
	if err != nil {
		return fmt.Errorf("open share: %w", err)
	}
	logger.Info("share opened", logger.KeyPath, cfg.Share.Path)

	userTable, err := users.LoadFile(cfg.Users.File)
	if err != nil {
		return err
	}
	logger.Info("user table loaded", "users", userTable.Len(), logger.KeyPath, cfg.Users.File)

	permTable := perms.New(cfg.Permissions)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		go func() {
			logger.Info("metrics listening", "addr", cfg.Metrics.Listen)
			if err := m.Serve(cfg.Metrics.Listen); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", logger.KeyError, err)
			}
		}()
	}

	master, err := server.New(server.Options{
		BindAddress:     cfg.Server.BindAddress,
		Port:            cfg.Server.Port,
		Share:           sh,
		Users:           userTable,
		Perms:           permTable,
		AcceptWindow:    cfg.Transfer.AcceptWindow,
		MaxTransferSize: cfg.Transfer.MaxSize.Int64(),
		Metrics:         m,
	})
	if err != nil {
		return err
	}
	master.Start()
	defer master.Stop()

	if cfg.Discovery.Enabled {
		responder, err := discovery.New(cfg.Server.Name, cfg.Discovery.AdvertiseIP, cfg.Server.Port)
		if err != nil {
			return fmt.Errorf("start discovery: %w", err)
		}
		defer responder.Close()
		go responder.Serve()
	} else {
		logger.Info("discovery disabled")
	}

	var adminSrv *http.Server
	if cfg.Admin.Enabled {
		adminSrv = &http.Server{
			Addr: cfg.Admin.Listen,
			Handler: api.NewRouter(api.Options{
				ServerName: cfg.Server.Name,
				Master:     master,
				Perms:      permTable,
			}),
		}
		go func() {
			logger.Info("admin API listening", "addr", cfg.Admin.Listen)
			if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("admin API failed", logger.KeyError, err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("server is running, press Ctrl+C to stop")
	<-sigChan
	signal.Stop(sigChan)
	logger.Info("shutdown signal received")

	if adminSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := adminSrv.Shutdown(ctx); err != nil {
			logger.Error("admin API shutdown error", logger.KeyError, err)
		}
	}
	return nil
}
