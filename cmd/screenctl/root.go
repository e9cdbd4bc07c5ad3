package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fadilmartias/resume-screener/internal/extractor"
	"github.com/fadilmartias/resume-screener/internal/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const app = "screenctl"

// Actual version can be specified in build command.
var version = "unknown"

type rootOptions struct {
	debug bool
	json  bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          app,
		Short:        "screenctl extracts and scores resumes offline, without the HTTP service",
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			_ = godotenv.Load()
		},
	}
	cmd.PersistentFlags().BoolVarP(&opts.debug, "debug", "d", false, "verbose/debug output")
	cmd.PersistentFlags().BoolVarP(&opts.json, "json", "j", false, "json format for logging")

	cmd.AddCommand(
		newExtractCmd(opts),
		newScoreCmd(opts),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Run: func(c *cobra.Command, _ []string) {
				fmt.Fprintf(c.OutOrStdout(), "%s version: %s\n", app, version)
			},
		},
	)
	return cmd
}

// newLogger writes to stderr so stdout stays clean JSON.
func (o *rootOptions) newLogger() (*zap.Logger, error) {
	l, err := logger.New(o.json, o.debug, "stderr")
	if err != nil {
		return nil, fmt.Errorf("creating a logger: %w", err)
	}
	return l, nil
}

func readResume(path, mimeOverride string) ([]byte, string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, "", err
	}
	if info.Size() > extractor.MaxPayloadBytes {
		return nil, "", fmt.Errorf("%w: %s is %d bytes", extractor.ErrPayloadTooLarge, filepath.Base(path), info.Size())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	mimeType := mimeOverride
	if mimeType == "" {
		mimeType = extractor.MIMEFromFilename(path)
	}
	return data, mimeType, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
