package pack

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/hpungsan/studio/internal/model"
)

func TestParseReadme(t *testing.T) {
	md := "# Title\n\nIntro\n\n## Installation\n\nrun it\n\n```python\n# not a heading\n```\n\n## Usage  \nuse it\n"
	sections := ParseReadme(md)

	got := ReadmeSectionNames(sections)
	want := []string{"Title", "Installation", "Usage"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("names = %v, want %v", got, want)
	}
	if sections[0].Level != 1 || sections[1].Level != 2 {
		t.Errorf("levels = %d, %d", sections[0].Level, sections[1].Level)
	}
	install := sections[1].Content
	if install != "\nrun it\n\n```python\n# not a heading\n```\n\n" {
		t.Errorf("installation content = %q", install)
	}
	if sections[2].Markdown() != "## Usage\nuse it\n" {
		t.Errorf("usage markdown = %q", sections[2].Markdown())
	}
}

func TestParseReadme_UnclosedFence(t *testing.T) {
	md := "## A\n```\n## B\n"
	got := ReadmeSectionNames(ParseReadme(md))
	if !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("names = %v", got)
	}
}

func TestParseReadme_MismatchedFenceStaysOpen(t *testing.T) {
	md := "## A\n````\n```\n## Hidden\n````\n## B\n"
	got := ReadmeSectionNames(ParseReadme(md))
	if !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("names = %v", got)
	}
}

func TestFindReadmeSection(t *testing.T) {
	sections := ParseReadme("## Usage\nx\n")
	if s := FindReadmeSection(sections, " usage "); s == nil || s.Name != "Usage" {
		t.Errorf("FindReadmeSection(usage) = %v", s)
	}
	if s := FindReadmeSection(sections, "Testing"); s != nil {
		t.Errorf("FindReadmeSection(Testing) = %v, want nil", s)
	}
	if ParseReadme("no headings") != nil {
		t.Error("ParseReadme without headings should be nil")
	}
}

func TestMissingReadmeSections(t *testing.T) {
	got := MissingReadmeSections("## Installation\n\n## Usage\nok\n")
	if !reflect.DeepEqual(got, []string{"Installation"}) {
		t.Errorf("missing = %v, want [Installation]", got)
	}
}

func TestGenerate_ReadmeHasRequiredSections(t *testing.T) {
	for _, target := range []model.Target{model.TargetDjango, model.TargetNextJS} {
		t.Run(string(target), func(t *testing.T) {
			dir := t.TempDir()
			img := writePNG(t, dir, 800, 600)
			res, err := Generate(context.Background(), img, target, Options{TempDir: dir})
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			defer res.Cleanup()

			data, err := os.ReadFile(filepath.Join(res.Dir, ReadmeFile))
			if err != nil {
				t.Fatalf("read README: %v", err)
			}
			if missing := MissingReadmeSections(string(data)); len(missing) > 0 {
				t.Errorf("README missing sections %v", missing)
			}
		})
	}
}
