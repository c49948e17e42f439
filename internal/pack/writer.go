package pack

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/hpungsan/studio/internal/config"
	"github.com/hpungsan/studio/internal/errors"
	"github.com/hpungsan/studio/internal/logging"
)

// EncodingError reports a rune the output encoding cannot represent.
type EncodingError struct {
	Rune     rune
	Encoding string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("Unicode encoding error: Cannot encode character '%c' in %s encoding. "+
		"This is typically caused by emoji or special Unicode characters in the template content.",
		e.Rune, e.Encoding)
}

// ErrorKind implements errors.Classifier.
func (e *EncodingError) ErrorKind() errors.Kind { return errors.KindEncoding }

// Writer writes generated text files in a fixed output encoding.
type Writer struct {
	encoding string
	charmap  *charmap.Charmap // nil for UTF-8
	logger   *slog.Logger
}

// NewWriter returns a Writer for the named encoding (utf-8 or windows-1252).
func NewWriter(encoding string, logger *slog.Logger) (*Writer, error) {
	w := &Writer{encoding: encoding, logger: logging.OrDiscard(logger)}
	switch encoding {
	case "", config.EncodingUTF8:
		w.encoding = config.EncodingUTF8
	case config.EncodingWindows1252:
		w.charmap = charmap.Windows1252
	default:
		return nil, fmt.Errorf("unsupported pack encoding %q", encoding)
	}
	return w, nil
}

// Encoding returns the output encoding name.
func (w *Writer) Encoding() string { return w.encoding }

// Encode converts content to the output encoding.
func (w *Writer) Encode(content string) ([]byte, error) {
	if w.charmap == nil {
		if !utf8.ValidString(content) {
			return nil, &EncodingError{Rune: utf8.RuneError, Encoding: w.encoding}
		}
		return []byte(content), nil
	}
	for _, r := range content {
		if _, ok := w.charmap.EncodeRune(r); !ok {
			return nil, &EncodingError{Rune: r, Encoding: w.encoding}
		}
	}
	return w.charmap.NewEncoder().Bytes([]byte(content))
}

// WriteFile sanitizes and writes content to path, creating parent directories.
// If the sanitized text cannot be encoded it is retried in aggressive mode;
// only a failure after that is returned.
func (w *Writer) WriteFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &errors.KindError{Kind: fsKind(err), Op: "create directory", Path: filepath.Dir(path), Err: err}
	}

	data, err := w.Encode(Sanitize(content))
	if err != nil {
		w.logger.Warn("pack.write.encoding_fallback", "path", path, "error", err)
		data, err = w.Encode(SanitizeAggressive(content))
		if err != nil {
			return &errors.KindError{Kind: errors.KindEncoding, Op: "cannot write file", Path: path, Err: err}
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &errors.KindError{Kind: fsKind(err), Op: "cannot write file", Path: path, Err: err}
	}
	return nil
}

// fsKind maps an OS error onto a Kind, defaulting to KindIO.
func fsKind(err error) errors.Kind {
	if k := errors.KindOf(err); k != errors.KindNone {
		return k
	}
	return errors.KindIO
}
