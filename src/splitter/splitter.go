package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/veedubyou/stemsplit/src/splitter/application"
	"github.com/veedubyou/stemsplit/src/splitter/internal/lib/envvar"
	"github.com/veedubyou/stemsplit/src/splitter/internal/separation"
)

const defaultModelsDir = "models/models"

func main() {
	_ = godotenv.Load()

	setupLogs()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogs() {
	log.SetHandler(cli.New(os.Stderr))

	level, err := log.ParseLevel(envvar.GetWithDefault(envvar.LOG_LEVEL, "info"))
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

func rootCmd() *cobra.Command {
	var modelName string
	var modelsDir string
	var parallelEncode bool

	cmd := &cobra.Command{
		Use:   "stemsplit <input-audio> <output-dir>",
		Short: "Split an audio track into stems",
		Long: `Split an audio track into stems with a pretrained separation model.

The output directory receives one file per stem, encoded in the same
codec and container the input arrived in.

Available models: ` + strings.Join(separation.Names(), ", "),
		Args:          cobra.ExactArgs(2),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := separation.Lookup(modelName); err != nil {
				return fmt.Errorf("unknown model %q (available: %s)", modelName, strings.Join(separation.Names(), ", "))
			}

			outputDir := args[1]
			if err := os.MkdirAll(outputDir, os.ModePerm); err != nil {
				return fmt.Errorf("cannot create output directory: %w", err)
			}

			app := application.NewApp(application.Config{
				InputPath:      args[0],
				OutputDir:      outputDir,
				ModelName:      modelName,
				ModelsDir:      modelsDir,
				ParallelEncode: parallelEncode,
			})

			return app.Start(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&modelName, "model-name", "2stems", "Separation model to run")
	cmd.Flags().StringVar(&modelsDir, "models-dir", envvar.GetWithDefault(envvar.MODELS_DIR, defaultModelsDir), "Directory holding the pretrained models")
	cmd.Flags().BoolVar(&parallelEncode, "parallel-encode", false, "Encode the separated tracks concurrently")

	return cmd
}
