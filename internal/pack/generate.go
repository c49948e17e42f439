// Package pack renders a template pack for a target platform from the
// dimensions of an uploaded image.
package pack

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/hpungsan/studio/internal/errors"
	"github.com/hpungsan/studio/internal/logging"
	"github.com/hpungsan/studio/internal/model"
)

//go:embed templates
var templates embed.FS

// Feature is one entry of the placeholder features section.
type Feature struct {
	Title       string
	Description string
	Icon        string
}

var defaultFeatures = []Feature{
	{Title: "Fast Performance", Description: "Lightning-fast load times for optimal user experience", Icon: "*"},
	{Title: "Reliable", Description: "99.9% uptime guarantee with robust infrastructure", Icon: "+"},
	{Title: "Secure", Description: "Enterprise-grade security to protect your data", Icon: "o"},
}

// file maps an embedded template onto its path inside the pack.
type file struct {
	template string
	output   string
}

type manifest struct {
	dir   string
	files []file
}

var manifests = map[model.Target]manifest{
	model.TargetDjango: {
		dir: "django_pack",
		files: []file{
			{"django/index.html.tmpl", "templates/main/index.html"},
			{"django/header.html.tmpl", "templates/main/partials/header.html"},
			{"django/footer.html.tmpl", "templates/main/partials/footer.html"},
			{"django/custom.css.tmpl", "static/main/css/custom.css"},
			{"django/views.py.tmpl", "views.py"},
			{"django/urls.py.tmpl", "urls.py"},
			{"django/README.md.tmpl", ReadmeFile},
		},
	},
	model.TargetNextJS: {
		dir: "next_pack",
		files: []file{
			{"nextjs/page.tsx.tmpl", "app/(main)/page.tsx"},
			{"nextjs/layout.tsx.tmpl", "app/(main)/layout.tsx"},
			{"nextjs/globals.css.tmpl", "app/(main)/globals.css"},
			{"nextjs/Header.tsx.tmpl", "components/Main/Header.tsx"},
			{"nextjs/Footer.tsx.tmpl", "components/Main/Footer.tsx"},
			{"nextjs/preview.txt.tmpl", "public/main/preview.txt"},
			{"nextjs/README.md.tmpl", ReadmeFile},
		},
	},
}

// Data is the value every pack template is executed against.
type Data struct {
	Target      model.Target
	Width       int
	Height      int
	Aspect      float64
	Layout      Layout
	Sections    []string
	Columns     int
	Features    []Feature
	NavLinks    []string
	FooterLinks []string
}

// Options configure Generate.
type Options struct {
	Encoding string       // output encoding, utf-8 when empty
	TempDir  string       // parent for the generation directory, os.TempDir when empty
	Logger   *slog.Logger // nil discards
}

// Result describes a generated pack.
type Result struct {
	Root       string // temporary root; remove when done
	Dir        string // pack directory inside Root
	Dimensions Dimensions
	Defaulted  bool // image unreadable, default dimensions used
	Layout     Layout
	Files      []string // pack-relative paths, in write order
}

// Cleanup removes the temporary root, ignoring errors.
func (r *Result) Cleanup() {
	if r != nil && r.Root != "" {
		_ = os.RemoveAll(r.Root)
	}
}

// Generate renders the pack for target into a fresh temporary directory.
// An unreadable image never fails generation: DefaultDimensions are used.
func Generate(ctx context.Context, imagePath string, target model.Target, opts Options) (*Result, error) {
	logger := logging.OrDiscard(opts.Logger)

	m, ok := manifests[target]
	if !ok {
		return nil, fmt.Errorf("unknown target %q: must be %s or %s", target, model.TargetDjango, model.TargetNextJS)
	}

	writer, err := NewWriter(opts.Encoding, logger)
	if err != nil {
		return nil, err
	}

	dims, dimErr := ReadDimensions(imagePath)
	if dimErr != nil {
		logger.Warn("pack.image.defaulted", "path", imagePath, "error", dimErr,
			"width", dims.Width, "height", dims.Height)
	}
	layout := SelectLayout(dims.Aspect())
	sections := layout.Sections()

	data := Data{
		Target:      target,
		Width:       dims.Width,
		Height:      dims.Height,
		Aspect:      dims.Aspect(),
		Layout:      layout,
		Sections:    sections,
		Columns:     len(sections),
		Features:    defaultFeatures,
		NavLinks:    []string{"Home", "Features", "Pricing", "Contact"},
		FooterLinks: []string{"About", "Services", "Contact", "Privacy"},
	}

	root, err := os.MkdirTemp(opts.TempDir, "studio-pack-")
	if err != nil {
		return nil, &errors.KindError{Kind: fsKind(err), Op: "create temp directory", Err: err}
	}
	result := &Result{
		Root:       root,
		Dir:        filepath.Join(root, m.dir),
		Dimensions: dims,
		Defaulted:  dimErr != nil,
		Layout:     layout,
	}

	for _, f := range m.files {
		if err := ctx.Err(); err != nil {
			result.Cleanup()
			return nil, err
		}
		content, err := render(f.template, data)
		if err != nil {
			result.Cleanup()
			return nil, err
		}
		if err := writer.WriteFile(filepath.Join(result.Dir, filepath.FromSlash(f.output)), content); err != nil {
			result.Cleanup()
			return nil, err
		}
		result.Files = append(result.Files, f.output)
	}

	logger.Debug("pack.generate.ok", "target", target, "layout", layout,
		"width", dims.Width, "height", dims.Height, "files", len(result.Files))
	return result, nil
}

var funcs = template.FuncMap{"join": strings.Join}

func render(name string, data Data) (string, error) {
	src, err := templates.ReadFile("templates/" + name)
	if err != nil {
		return "", fmt.Errorf("read template %s: %w", name, err)
	}
	tmpl, err := template.New(name).Delims("[[", "]]").Funcs(funcs).Parse(string(src))
	if err != nil {
		return "", fmt.Errorf("parse template %s: %w", name, err)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", name, err)
	}
	return b.String(), nil
}
