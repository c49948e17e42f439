package pack

import (
	"regexp"
	"strings"
)

// ReadmeFile is the name of the README inside every pack.
const ReadmeFile = "README.md"

// RequiredReadmeSections must appear as headings in every generated README.
var RequiredReadmeSections = []string{"Installation", "Usage"}

// ReadmeSection is one README heading and the markdown under it, up to the
// next heading of any level.
type ReadmeSection struct {
	Level   int    `json:"level"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Markdown returns the heading line followed by its content.
func (s ReadmeSection) Markdown() string {
	return strings.Repeat("#", s.Level) + " " + s.Name + "\n" + s.Content
}

// headingPattern matches ATX headings. Trailing spaces are not captured.
var headingPattern = regexp.MustCompile(`(?m)^(#{1,6})\s+([^\n]+?)[ \t]*$`)

// fencePattern matches ``` or ~~~ fence delimiters indented up to three spaces.
var fencePattern = regexp.MustCompile("(?m)^[ ]{0,3}(`{3,}|~{3,})")

// fencedRanges returns [start, end) offsets of fenced code blocks. A fence
// closes only on the same character repeated at least as many times.
func fencedRanges(text string) [][2]int {
	matches := fencePattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) < 2 {
		return nil
	}

	var (
		ranges    [][2]int
		openChar  byte
		openLen   int
		openStart int
		inFence   bool
	)
	for _, m := range matches {
		fence := text[m[2]:m[3]]
		switch {
		case !inFence:
			openChar, openLen, openStart, inFence = fence[0], len(fence), m[0], true
		case fence[0] == openChar && len(fence) >= openLen:
			ranges = append(ranges, [2]int{openStart, m[1]})
			inFence = false
		}
	}
	return ranges
}

func insideFence(pos int, ranges [][2]int) bool {
	for _, r := range ranges {
		if pos >= r[0] && pos < r[1] {
			return true
		}
	}
	return false
}

// ParseReadme splits markdown into its headed sections, ignoring heading-like
// lines inside fenced code blocks. Text before the first heading is dropped.
func ParseReadme(md string) []ReadmeSection {
	all := headingPattern.FindAllStringSubmatchIndex(md, -1)
	if len(all) == 0 {
		return nil
	}
	fences := fencedRanges(md)
	matches := all[:0:0]
	for _, m := range all {
		if !insideFence(m[0], fences) {
			matches = append(matches, m)
		}
	}

	sections := make([]ReadmeSection, 0, len(matches))
	for i, m := range matches {
		contentStart := m[1]
		if contentStart < len(md) && md[contentStart] == '\n' {
			contentStart++
		}
		end := len(md)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		content := ""
		if contentStart < end {
			content = md[contentStart:end]
		}
		sections = append(sections, ReadmeSection{
			Level:   m[3] - m[2],
			Name:    md[m[4]:m[5]],
			Content: content,
		})
	}
	return sections
}

// FindReadmeSection returns the first section whose name matches
// case-insensitively, or nil.
func FindReadmeSection(sections []ReadmeSection, name string) *ReadmeSection {
	want := strings.ToLower(strings.TrimSpace(name))
	for i := range sections {
		if strings.ToLower(strings.TrimSpace(sections[i].Name)) == want {
			return &sections[i]
		}
	}
	return nil
}

// ReadmeSectionNames lists section names in document order.
func ReadmeSectionNames(sections []ReadmeSection) []string {
	names := make([]string, len(sections))
	for i, s := range sections {
		names[i] = s.Name
	}
	return names
}

// MissingReadmeSections returns the RequiredReadmeSections absent from md.
// Empty sections count as missing.
func MissingReadmeSections(md string) []string {
	sections := ParseReadme(md)
	var missing []string
	for _, name := range RequiredReadmeSections {
		s := FindReadmeSection(sections, name)
		if s == nil || strings.TrimSpace(s.Content) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}
