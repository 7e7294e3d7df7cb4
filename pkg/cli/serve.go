package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cjzdmj1997/parrot-mocker-web/pkg/config"
	"github.com/cjzdmj1997/parrot-mocker-web/pkg/engine"
	"github.com/cjzdmj1997/parrot-mocker-web/pkg/logging"
	"github.com/cjzdmj1997/parrot-mocker-web/pkg/ruleload"
)

// shutdownTimeout is the maximum time to wait for graceful shutdown.
const shutdownTimeout = 10 * time.Second

type serveFlags struct {
	configFile string
	port       int
	logLevel   string
	logFormat  string
	staticDir  string
	rulesFile  string
	watchRules bool
}

var serveFlagVals serveFlags

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the proxy server (foreground)",
	Example: `  # Start with defaults on port 8080
  parrot serve

  # Start with a config file
  parrot serve --config parrot.yaml

  # Preload rules and reload them on change
  parrot serve --rules rules.yaml --watch`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(&serveFlagVals)
	},
}

func initServeCmd() {
	rootCmd.AddCommand(serveCmd)

	f := &serveFlagVals
	serveCmd.Flags().StringVarP(&f.configFile, "config", "c", "", "YAML configuration file")
	serveCmd.Flags().IntVarP(&f.port, "port", "p", 0, "HTTP server port (overrides config)")
	serveCmd.Flags().StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	serveCmd.Flags().StringVar(&f.logFormat, "log-format", "", "log format: text or json")
	serveCmd.Flags().StringVar(&f.staticDir, "static", "", "directory of dashboard assets to serve at /")
	serveCmd.Flags().StringVar(&f.rulesFile, "rules", "", "YAML or JSON file of per-client rules to preload")
	serveCmd.Flags().BoolVar(&f.watchRules, "watch", false, "reload the rules file when it changes")
}

func runServe(f *serveFlags) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}

	log := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: os.Stderr,
	})

	server := engine.NewServer(cfg, engine.WithServerLogger(log))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.RulesFile != "" {
		if err := ruleload.Apply(server.Store(), cfg.RulesFile); err != nil {
			return err
		}
		log.Info("rules preloaded", "path", cfg.RulesFile)

		if cfg.WatchRules {
			watcher := ruleload.NewWatcher(server.Store(), cfg.RulesFile, log)
			go func() {
				if err := watcher.Run(ctx); err != nil {
					log.Error("rules watcher stopped", "error", err)
				}
			}()
		}
	}

	if err := server.Start(); err != nil {
		return err
	}
	log.Info("parrot started", "port", cfg.Port, "version", Version)

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Stop(shutdownCtx)
}

// loadConfig resolves the effective configuration: file first, then flag
// overrides, then validation.
func loadConfig(f *serveFlags) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if f.configFile != "" {
		cfg, err = config.Load(f.configFile)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.Default()
	}

	if f.port > 0 {
		cfg.Port = f.port
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	if f.logFormat != "" {
		cfg.LogFormat = f.logFormat
	}
	if f.staticDir != "" {
		cfg.StaticDir = f.staticDir
	}
	if f.rulesFile != "" {
		cfg.RulesFile = f.rulesFile
	}
	if f.watchRules {
		cfg.WatchRules = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
