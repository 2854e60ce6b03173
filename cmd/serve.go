package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/bleak/internal/config"
	"github.com/conneroisu/bleak/internal/di"
	"github.com/conneroisu/bleak/internal/server"
	"github.com/conneroisu/bleak/internal/watcher"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Start the chat server",
	Long: `Start the chat server. It serves the chat widget at /, renders questions
over a WebSocket at /ws and exposes /api/render, /api/types, /healthz and
/metrics.

The config file and question file are watched and reloaded on change. Open
chat sessions keep the renderer they started with.

Examples:
  bleak serve                         # Serve on localhost:8080
  bleak serve -p 3000                 # Serve on port 3000
  bleak serve --questions flow.yml    # Serve a custom question flow
  bleak serve --open                  # Open the chat page in a browser
  bleak serve --no-watch              # Disable reload on file change`,
	RunE: runServe,
}

var serveNoWatch bool

func init() {
	rootCmd.AddCommand(serveCmd)

	AddStandardFlags(serveCmd, "server")
	serveCmd.Flags().String("questions", "", "Question flow file (YAML or JSON)")
	serveCmd.Flags().Bool("open", false, "Open the chat page in a browser")
	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "Don't reload when the config or question file changes")
	AddFlagValidation(serveCmd, "port", ValidatePort)
	AddFlagValidation(serveCmd, "questions", ValidateFileExists)

	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	viper.BindPFlag("questions.file", serveCmd.Flags().Lookup("questions"))
	viper.BindPFlag("server.open", serveCmd.Flags().Lookup("open"))
}

func runServe(cmd *cobra.Command, args []string) error {
	container, err := newContainer()
	if err != nil {
		return err
	}
	defer shutdownContainer(cmd, container)

	srv, err := server.New(container)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !serveNoWatch {
		fw, err := startReloadWatcher(ctx, container)
		if err != nil {
			container.GetLogger().Warn(ctx, err, "File watching disabled")
		} else {
			defer fw.Stop()
		}
	}

	cfg := container.GetConfig()
	fmt.Fprintf(cmd.OutOrStdout(), "Starting bleak chat server at http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// startReloadWatcher reloads the container when the config file or the
// question file changes.
func startReloadWatcher(ctx context.Context, container *di.ServiceContainer) (*watcher.FileWatcher, error) {
	configPath := configFileUsed()
	flowPath := container.GetConfig().Questions.File
	if configPath == "" && flowPath == "" {
		return nil, fmt.Errorf("no config or question file to watch")
	}

	fw, err := watcher.NewFileWatcher(300*time.Millisecond, container.GetLogger())
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	routes := map[string]func() error{
		configPath: func() error {
			if err := viper.ReadInConfig(); err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return container.Reload(cfg)
		},
	}
	if flowPath != configPath {
		routes[flowPath] = container.ReloadFlow
	}

	fw.AddHandler(watcher.Dispatch(routes))
	if err := fw.WatchFiles(configPath, flowPath); err != nil {
		fw.Stop()
		return nil, err
	}
	if err := fw.Start(ctx); err != nil {
		fw.Stop()
		return nil, err
	}
	return fw, nil
}
