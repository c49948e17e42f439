// Package archive zips generated packs and reads them back.
package archive

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/hpungsan/studio/internal/errors"
)

// ZipDir writes every regular file under srcDir into a deflate archive at
// destPath. Entry names are relative to srcDir with forward slashes, in
// sorted order. The archive is written to a temporary file next to destPath
// and renamed into place, so either the full archive exists or nothing does.
// Returns the number of entries written.
func ZipDir(ctx context.Context, srcDir, destPath string) (int, error) {
	files, err := collect(srcDir)
	if err != nil {
		return 0, err
	}

	destDir := filepath.Dir(destPath)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return 0, &errors.KindError{Kind: kindOf(err), Op: "create archive directory", Path: destDir, Err: err}
	}
	tmp, err := os.CreateTemp(destDir, ".archive-*.tmp")
	if err != nil {
		return 0, &errors.KindError{Kind: kindOf(err), Op: "create archive", Path: destPath, Err: err}
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	zw := zip.NewWriter(tmp)
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if err := addFile(zw, srcDir, rel); err != nil {
			return 0, err
		}
	}
	if err := zw.Close(); err != nil {
		return 0, &errors.KindError{Kind: errors.KindIO, Op: "finalize archive", Path: destPath, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return 0, &errors.KindError{Kind: kindOf(err), Op: "close archive", Path: destPath, Err: err}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return 0, &errors.KindError{Kind: kindOf(err), Op: "rename archive", Path: destPath, Err: err}
	}
	committed = true
	return len(files), nil
}

// collect returns the slash-separated relative paths of regular files under root.
func collect(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, &errors.KindError{Kind: kindOf(err), Op: "stat source", Path: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &errors.KindError{Kind: errors.KindIO, Op: "archive source is not a directory", Path: root}
	}

	var files []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, &errors.KindError{Kind: kindOf(err), Op: "walk source", Path: root, Err: err}
	}
	sort.Strings(files)
	return files, nil
}

func addFile(zw *zip.Writer, root, rel string) error {
	full := filepath.Join(root, filepath.FromSlash(rel))
	f, err := os.Open(full)
	if err != nil {
		return &errors.KindError{Kind: kindOf(err), Op: "open", Path: full, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return &errors.KindError{Kind: kindOf(err), Op: "stat", Path: full, Err: err}
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return &errors.KindError{Kind: errors.KindIO, Op: "zip header", Path: full, Err: err}
	}
	hdr.Name = rel
	hdr.Method = zip.Deflate

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return &errors.KindError{Kind: errors.KindIO, Op: "zip entry", Path: rel, Err: err}
	}
	if _, err := io.Copy(w, f); err != nil {
		return &errors.KindError{Kind: kindOf(err), Op: "zip write", Path: rel, Err: err}
	}
	return nil
}

// Extract unpacks src into destDir. Entries that would land outside destDir
// are rejected.
func Extract(src, destDir string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return &errors.KindError{Kind: kindOf(err), Op: "open archive", Path: src, Err: err}
	}
	defer r.Close()

	root, err := filepath.Abs(destDir)
	if err != nil {
		return err
	}
	for _, f := range r.File {
		target, err := safeJoin(root, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return &errors.KindError{Kind: kindOf(err), Op: "mkdir", Path: target, Err: err}
			}
			continue
		}
		if err := extractFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return &errors.KindError{Kind: kindOf(err), Op: "mkdir", Path: filepath.Dir(target), Err: err}
	}
	rc, err := f.Open()
	if err != nil {
		return &errors.KindError{Kind: errors.KindIO, Op: "open entry", Path: f.Name, Err: err}
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return &errors.KindError{Kind: kindOf(err), Op: "create", Path: target, Err: err}
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return &errors.KindError{Kind: kindOf(err), Op: "extract", Path: target, Err: err}
	}
	return out.Close()
}

func safeJoin(root, name string) (string, error) {
	clean := path.Clean(name)
	if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("archive entry %q escapes destination", name)
	}
	return filepath.Join(root, filepath.FromSlash(clean)), nil
}

// ReadFile returns the contents of the named entry.
func ReadFile(src, name string) ([]byte, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return nil, &errors.KindError{Kind: kindOf(err), Op: "open archive", Path: src, Err: err}
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, &errors.KindError{Kind: errors.KindIO, Op: "open entry", Path: name, Err: err}
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, errors.FileNotFound("read archive entry", name)
}

// List returns the entry names of the archive in stored order.
func List(src string) ([]string, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return nil, &errors.KindError{Kind: kindOf(err), Op: "open archive", Path: src, Err: err}
	}
	defer r.Close()

	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	return names, nil
}

func kindOf(err error) errors.Kind {
	if k := errors.KindOf(err); k != errors.KindNone {
		return k
	}
	return errors.KindIO
}
