package convert

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/hpungsan/studio/internal/errors"
	"github.com/hpungsan/studio/internal/model"
)

// SuccessLog is the job log of a successful conversion.
func SuccessLog(target model.Target) string {
	return "Conversion completed successfully!\n\n" +
		fmt.Sprintf("Generated %s template pack\n", target.Label()) +
		"Template files: Ready for download\n" +
		"Based on uploaded image analysis\n\n" +
		"The template pack includes responsive components and styling ready for use."
}

// Summary returns the user-facing headline for a conversion failure.
func Summary(err error) string {
	switch errors.KindOf(err) {
	case errors.KindEncoding:
		return "ENCODING ERROR: The template contains special characters that cannot be processed on Windows. " +
			"This is typically caused by emoji or special Unicode symbols in the generated content."
	case errors.KindFileNotFound:
		return "FILE ERROR: The uploaded image file could not be found or accessed."
	case errors.KindPermission:
		return "PERMISSION ERROR: Unable to write template files. Check file system permissions."
	}
	return "CONVERSION ERROR: " + err.Error()
}

// FailureLog is the job log of a failed conversion: headline, technical
// details, then the error chain and the stage timeline.
func FailureLog(err error, tl *timeline) string {
	var b strings.Builder
	b.WriteString(Summary(err))
	b.WriteString("\n\nTechnical Details:\n")
	b.WriteString(err.Error())
	b.WriteString("\n\nFull Error Log:\n")

	depth := 0
	for e := err; e != nil; e = stderrors.Unwrap(e) {
		fmt.Fprintf(&b, "%s%T: %s\n", strings.Repeat("  ", depth), e, e.Error())
		depth++
	}
	if tl != nil {
		for _, line := range tl.lines {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// timeline records conversion stages with offsets from the start.
type timeline struct {
	start time.Time
	lines []string
}

func newTimeline(start time.Time) *timeline {
	return &timeline{start: start}
}

func (t *timeline) elapsed() time.Duration {
	return time.Since(t.start).Round(time.Millisecond)
}

func (t *timeline) ok(stage string) {
	t.lines = append(t.lines, fmt.Sprintf("[+%s] %s: ok", t.elapsed(), stage))
}

func (t *timeline) fail(stage string, err error) {
	t.lines = append(t.lines, fmt.Sprintf("[+%s] %s: %v", t.elapsed(), stage, err))
}
