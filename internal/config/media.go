package config

import "path/filepath"

// Media subdirectories, relative to MediaDir. Stored references use these
// slash-separated relative paths.
const (
	UploadsSubdir = "templates/uploads"
	BuildsSubdir  = "templates/builds"
	LibrarySubdir = "templates/library"
	LogosSubdir   = "builder/logos"
)

// MediaPath resolves a stored media reference to an absolute path.
func (c *Config) MediaPath(rel string) string {
	return filepath.Join(c.MediaDir, filepath.FromSlash(rel))
}

// MediaRef joins a media subdirectory and a file name into a stored reference.
func MediaRef(subdir, name string) string {
	return subdir + "/" + name
}
