package extractor

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"os"
	"os/exec"
	"strings"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

type pdfReader struct {
	ocr    bool
	logger *zap.Logger
}

// ReadText returns the embedded text layer. When the layer is empty and OCR is
// enabled, pages are rendered and passed through tesseract.
func (r *pdfReader) ReadText(ctx context.Context, data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("%w: open pdf: %v", ErrUnextractableDocument, err)
	}
	defer doc.Close()

	var buf strings.Builder
	for n := 0; n < doc.NumPage(); n++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := doc.Text(n)
		if err != nil {
			r.logger.Debug("pdf page text failed", zap.Int("page", n+1), zap.Error(err))
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			buf.WriteString(text)
			buf.WriteString("\n\n")
		}
	}

	if countUsable(buf.String()) >= MinUsableRunes || !r.ocr {
		return buf.String(), nil
	}

	r.logger.Info("pdf has no text layer, falling back to OCR", zap.Int("pages", doc.NumPage()))
	return ocrDocument(ctx, doc, r.logger)
}

func ocrDocument(ctx context.Context, doc *fitz.Document, logger *zap.Logger) (string, error) {
	if _, err := exec.LookPath("tesseract"); err != nil {
		return "", fmt.Errorf("%w: tesseract not available: %v", ErrUnextractableDocument, err)
	}

	var fullText bytes.Buffer
	var lastErr error
	for n := 0; n < doc.NumPage(); n++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := ocrPage(ctx, doc, n)
		if err != nil {
			lastErr = fmt.Errorf("page %d: %w", n+1, err)
			logger.Debug("ocr page failed", zap.Error(lastErr))
			continue
		}
		if text != "" {
			fullText.WriteString(text)
			fullText.WriteString("\n\n")
		}
	}

	result := strings.TrimSpace(fullText.String())
	if result == "" && lastErr != nil {
		return "", fmt.Errorf("%w: ocr: %v", ErrUnextractableDocument, lastErr)
	}
	return result, nil
}

func ocrPage(ctx context.Context, doc *fitz.Document, n int) (string, error) {
	img, err := doc.Image(n)
	if err != nil {
		return "", fmt.Errorf("render page: %w", err)
	}

	tmp, err := os.CreateTemp("", "resume-page-*.png")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		return "", fmt.Errorf("encode png: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	out, err := exec.CommandContext(ctx, "tesseract", tmp.Name(), "stdout", "-l", "eng").Output()
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}
