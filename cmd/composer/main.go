package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/keagan/composer/internal/api"
	"github.com/keagan/composer/internal/config"
	"github.com/keagan/composer/internal/ffmpeg"
	"github.com/keagan/composer/internal/logging"
	"github.com/keagan/composer/internal/pipeline"
	"github.com/keagan/composer/pkg/util"
)

var (
	cfgFile    string
	verbose    bool
	outputPath string
	listenAddr string
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

var rootCmd = &cobra.Command{
	Use:   "composer",
	Short: "composer - declarative video timeline renderer",
	Long:  "Composes video, audio and text clips on a timeline and renders them with a single ffmpeg filter graph.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		logging.Init(logging.Options{Level: level, JSON: cfg.LogJSON})

		ctx := config.WithConfig(cmd.Context(), cfg)
		cmd.SetContext(ctx)

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./composer.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	exportCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (overrides the composition and config)")
	compileCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file shown in the command")
	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "listen address (overrides server.addr)")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

// loadComposer reads a composition file and loads its clips into a fresh
// composition
func loadComposer(ctx context.Context, path string) (*pipeline.Composer, *pipeline.Composition, error) {
	cfg := config.FromContext(ctx)

	comp, err := pipeline.LoadComposition(path)
	if err != nil {
		return nil, nil, err
	}

	pipeCfg := pipeline.ConfigFrom(cfg)
	comp.Apply(pipeCfg)

	composer, err := pipeline.NewFromConfig(log.Logger, cfg, pipeCfg)
	if err != nil {
		return nil, nil, err
	}

	if err := composer.Load(ctx, comp.Clips); err != nil {
		return nil, nil, err
	}

	return composer, comp, nil
}

func resolveOutput(comp *pipeline.Composition) string {
	if outputPath != "" {
		return outputPath
	}
	return comp.Output
}

var exportCmd = &cobra.Command{
	Use:   "export [composition file]",
	Short: "Render a composition to a video file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		composer, comp, err := loadComposer(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		logger := logging.WithComponent("cli")

		out, err := composer.Export(cmd.Context(), pipeline.ExportOptions{OutputPath: resolveOutput(comp)})
		if err != nil {
			var renderErr *ffmpeg.RenderError
			if errors.As(err, &renderErr) && renderErr.Diagnostic != "" {
				logger.Error().Str("ffmpeg", renderErr.Diagnostic).Msg("render failed")
			}
			return err
		}

		logger.Info().Str("output", out).Msg("rendered")
		return nil
	},
}

var compileCmd = &cobra.Command{
	Use:   "compile [composition file]",
	Short: "Print the filter graph and ffmpeg command without rendering",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		composer, comp, err := loadComposer(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		plan, err := composer.Plan()
		if err != nil {
			return err
		}
		command, err := composer.Compile(cmd.Context(), pipeline.ExportOptions{OutputPath: resolveOutput(comp)})
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintln(w, "# filter graph")
		fmt.Fprint(w, plan.Graph.Lines())
		fmt.Fprintln(w, "# command")
		fmt.Fprintln(w, command.String())
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve compile and export over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		exec, err := ffmpeg.New(log.Logger, ffmpeg.Options{
			FFmpegPath:  cfg.FFmpeg.BinaryPath,
			FFprobePath: cfg.FFmpeg.ProbePath,
			Threads:     cfg.FFmpeg.Threads,
		})
		if err != nil {
			return err
		}

		addr := cfg.Server.Addr
		if listenAddr != "" {
			addr = listenAddr
		}

		srv := api.NewServer(api.ServerConfig{
			Addr:      addr,
			Pipeline:  pipeline.ConfigFrom(cfg),
			Prober:    exec,
			Renderer:  exec,
			Logger:    log.Logger,
			StartTime: time.Now(),
		})

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		select {
		case err := <-errCh:
			return err
		case <-cmd.Context().Done():
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Config management commands",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := yaml.Marshal(config.FromContext(cmd.Context()))
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the effective configuration to a file (default: ./composer.yaml)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "./composer.yaml"
		if len(args) == 1 {
			path = args[0]
		}
		if util.FileExists(path) {
			return fmt.Errorf("%s already exists", path)
		}

		if err := config.FromContext(cmd.Context()).Save(path); err != nil {
			return err
		}

		logger := logging.WithComponent("cli")
		logger.Info().Str("path", path).Msg("config written")
		return nil
	},
}
