package extractor

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/fadilmartias/resume-screener/internal/model"
	"go.uber.org/zap"
)

const (
	// MaxPayloadBytes is the upload ceiling, checked before any parsing.
	MaxPayloadBytes = 5 << 20
	// MaxStoredTextRunes caps raw_text kept on the application record.
	MaxStoredTextRunes = 5000
	// MinUsableRunes is how many letters or digits a document needs to count as readable.
	MinUsableRunes = 30

	MIMEPDF  = "application/pdf"
	MIMEDOC  = "application/msword"
	MIMEDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	defaultTimeout = 20 * time.Second
)

var (
	ErrUnsupportedFormat     = errors.New("unsupported document format")
	ErrPayloadTooLarge       = errors.New("document exceeds the 5 MiB limit")
	ErrUnextractableDocument = errors.New("no readable text in document")
	ErrExtractionTimeout     = fmt.Errorf("%w: extraction timed out", ErrUnextractableDocument)
)

type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOC  Format = "doc"
	FormatDOCX Format = "docx"
)

// FormatFromMIME maps a declared content type to a supported format.
func FormatFromMIME(declared string) (Format, error) {
	mt, _, err := mime.ParseMediaType(strings.TrimSpace(declared))
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(declared))
	}
	switch mt {
	case MIMEPDF:
		return FormatPDF, nil
	case MIMEDOC:
		return FormatDOC, nil
	case MIMEDOCX:
		return FormatDOCX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, declared)
}

// MIMEFromFilename resolves a content type from the file extension. Used when
// a client declares a generic type such as application/octet-stream.
func MIMEFromFilename(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return MIMEPDF
	case ".doc":
		return MIMEDOC
	case ".docx":
		return MIMEDOCX
	}
	return ""
}

// TextReader turns document bytes into plain text.
type TextReader interface {
	ReadText(ctx context.Context, data []byte) (string, error)
}

type TextReaderFunc func(ctx context.Context, data []byte) (string, error)

func (f TextReaderFunc) ReadText(ctx context.Context, data []byte) (string, error) {
	return f(ctx, data)
}

type Option func(*Extractor)

func WithTimeout(d time.Duration) Option {
	return func(e *Extractor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithOCR enables tesseract OCR for PDFs that carry no text layer.
func WithOCR(enabled bool) Option {
	return func(e *Extractor) {
		e.ocr = enabled
	}
}

// WithReader replaces the text reader for one format.
func WithReader(f Format, r TextReader) Option {
	return func(e *Extractor) {
		e.readers[f] = r
	}
}

type Extractor struct {
	readers map[Format]TextReader
	timeout time.Duration
	ocr     bool
	logger  *zap.Logger
}

func New(opts ...Option) *Extractor {
	e := &Extractor{
		readers: make(map[Format]TextReader, 3),
		timeout: defaultTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if _, ok := e.readers[FormatPDF]; !ok {
		e.readers[FormatPDF] = &pdfReader{ocr: e.ocr, logger: e.logger}
	}
	if _, ok := e.readers[FormatDOCX]; !ok {
		e.readers[FormatDOCX] = TextReaderFunc(readDOCX)
	}
	if _, ok := e.readers[FormatDOC]; !ok {
		e.readers[FormatDOC] = TextReaderFunc(readDOC)
	}
	return e
}

// Extract validates the payload, reads its text and pulls structured fields out
// of it. The result depends only on data and declaredMIME.
func (e *Extractor) Extract(ctx context.Context, data []byte, declaredMIME string) (model.ParsedResume, error) {
	if len(data) > MaxPayloadBytes {
		return model.ParsedResume{}, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(data))
	}
	format, err := FormatFromMIME(declaredMIME)
	if err != nil {
		return model.ParsedResume{}, err
	}
	if len(data) == 0 {
		return model.ParsedResume{}, fmt.Errorf("%w: empty file", ErrUnextractableDocument)
	}

	start := time.Now()
	text, err := e.readWithTimeout(ctx, format, data)
	if err != nil {
		e.logger.Warn("resume text extraction failed",
			zap.String("format", string(format)),
			zap.Int("size", len(data)),
			zap.Error(err),
		)
		return model.ParsedResume{}, err
	}

	text = normalizeText(text)
	if countUsable(text) < MinUsableRunes {
		return model.ParsedResume{}, fmt.Errorf("%w: %s has no text layer", ErrUnextractableDocument, format)
	}

	parsed := ParseText(text)
	e.logger.Debug("resume extracted",
		zap.String("format", string(format)),
		zap.Int("text_length", utf8.RuneCountInString(text)),
		zap.Int("skills", len(parsed.Skills)),
		zap.Duration("took", time.Since(start)),
	)
	return parsed, nil
}

func (e *Extractor) readWithTimeout(ctx context.Context, format Format, data []byte) (string, error) {
	reader, ok := e.readers[format]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("%w: reader panic: %v", ErrUnextractableDocument, r)}
			}
		}()
		text, err := reader.ReadText(ctx, data)
		done <- result{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", ErrExtractionTimeout
		}
		return "", ctx.Err()
	case r := <-done:
		if r.err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return "", ErrExtractionTimeout
			}
			if errors.Is(r.err, ErrUnextractableDocument) {
				return "", r.err
			}
			return "", fmt.Errorf("%w: %v", ErrUnextractableDocument, r.err)
		}
		return r.text, nil
	}
}

// ParseText runs field extraction over already extracted text.
func ParseText(text string) model.ParsedResume {
	return model.ParsedResume{
		RawText:           truncateRunes(text, MaxStoredTextRunes),
		Email:             findEmail(text),
		Phone:             findPhone(text),
		Name:              findName(text),
		Skills:            findSkills(text),
		YearsOfExperience: findYears(text),
	}
}

func normalizeText(s string) string {
	s = strings.ToValidUTF8(s, "")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\x00", "")

	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func countUsable(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
