package ops

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/hpungsan/studio/internal/errors"
)

func TestValidatePath_TraversalRejected(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"parent traversal", "../expenses.csv"},
		{"deep traversal", "../../etc/expenses.csv"},
		{"mid-path traversal", "/tmp/../etc/expenses.csv"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePath(tc.path, PathCheckRead, ".csv")
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got: %v", err)
			}
		})
	}
}

func TestValidatePath_Extension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.XLSX")

	if err := ValidatePath(path, PathCheckWrite, ".xlsx"); err != nil {
		t.Errorf("uppercase extension rejected: %v", err)
	}
	if err := ValidatePath(filepath.Join(dir, "report.txt"), PathCheckWrite, ".xlsx"); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("wrong extension err = %v", err)
	}
}

func TestValidatePath_ReadRequiresFile(t *testing.T) {
	dir := t.TempDir()

	if err := ValidatePath(filepath.Join(dir, "missing.png"), PathCheckRead); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("missing file err = %v, want ErrNotFound", err)
	}
	if err := ValidatePath(dir, PathCheckRead); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("directory err = %v, want ErrInvalidRequest", err)
	}
}

func TestValidatePath_WriteRequiresParent(t *testing.T) {
	dir := t.TempDir()
	if err := ValidatePath(filepath.Join(dir, "nope", "out.xlsx"), PathCheckWrite, ".xlsx"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("missing parent err = %v, want ErrNotFound", err)
	}
}

func TestValidatePath_SymlinkRejected(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "real.csv")
	if err := os.WriteFile(target, []byte("date\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "link.csv")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	if err := ValidatePath(link, PathCheckRead, ".csv"); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("symlink err = %v, want ErrInvalidRequest", err)
	}
	if _, err := OpenForRead(link, ".csv"); err == nil {
		t.Error("OpenForRead followed a symlink")
	}
}

func TestOpenForRead_And_CreateForWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	w, err := CreateForWrite(path, ".csv")
	if err != nil {
		t.Fatalf("CreateForWrite failed: %v", err)
	}
	if _, err := io.WriteString(w, "hello"); err != nil {
		t.Fatal(err)
	}
	w.Close()

	r, err := OpenForRead(path, ".csv")
	if err != nil {
		t.Fatalf("OpenForRead failed: %v", err)
	}
	defer r.Close()
	data, _ := io.ReadAll(r)
	if string(data) != "hello" {
		t.Errorf("read %q", data)
	}
}
