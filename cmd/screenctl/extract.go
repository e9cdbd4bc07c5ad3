package main

import (
	"time"

	"github.com/fadilmartias/resume-screener/internal/extractor"
	"github.com/spf13/cobra"
)

type extractOptions struct {
	mime    string
	ocr     bool
	timeout time.Duration
}

func newExtractCmd(root *rootOptions) *cobra.Command {
	opts := &extractOptions{}
	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Extract text and fields from a PDF, DOC or DOCX resume and print them as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := root.newLogger()
			if err != nil {
				return err
			}
			defer log.Sync()

			data, mimeType, err := readResume(args[0], opts.mime)
			if err != nil {
				return err
			}
			ext := extractor.New(
				extractor.WithTimeout(opts.timeout),
				extractor.WithOCR(opts.ocr),
				extractor.WithLogger(log),
			)
			parsed, err := ext.Extract(cmd.Context(), data, mimeType)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), parsed)
		},
	}
	cmd.Flags().StringVar(&opts.mime, "mime", "", "content type of the file (default: from the file extension)")
	cmd.Flags().BoolVar(&opts.ocr, "ocr", false, "run tesseract on PDF pages without a text layer")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 20*time.Second, "extraction timeout")
	return cmd
}
