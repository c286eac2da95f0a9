// Package filesys holds the small file system surfaces the rest of
// multilookup depends on, so that callers can be tested without touching disk.
package filesys

import (
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
)

// ConfigFS is what the config loader needs to read its file.
type ConfigFS interface {
	Open(string) (*os.File, error)
}

// FileOps is what the engine needs for input and output files, plus the
// calls AtomicWrite makes.
type FileOps interface {
	Open(string) (*os.File, error)
	Create(string) (*os.File, error)
	MkdirAll(string, os.FileMode) error
	CreateTemp(string, string) (*os.File, error)
	Rename(string, string) error
	Remove(string) error
	Chmod(string, os.FileMode) error
}

// OS returns a file system implementation that delegates to the standard library.
func OS() OsFS {
	return OsFS{}
}

// OsFS implements ConfigFS and FileOps against the local disk.
type OsFS struct{}

func (OsFS) Stat(p string) (fs.FileInfo, error)           { return os.Stat(p) }
func (OsFS) MkdirAll(p string, m os.FileMode) error       { return os.MkdirAll(p, m) }
func (OsFS) Open(p string) (*os.File, error)              { return os.Open(p) }
func (OsFS) Create(p string) (*os.File, error)            { return os.Create(p) }
func (OsFS) CreateTemp(dir, pat string) (*os.File, error) { return os.CreateTemp(dir, pat) }
func (OsFS) Rename(old, newName string) error             { return os.Rename(old, newName) }
func (OsFS) Remove(p string) error                        { return os.Remove(p) }
func (OsFS) Chmod(p string, m os.FileMode) error          { return os.Chmod(p, m) }

var (
	_ ConfigFS = OsFS{}
	_ FileOps  = OsFS{}
)

// AtomicWrite persists data to dst so that readers see either the old file
// or the complete new one:
//
//  1. temp file in the same dir
//  2. fsync(temp) + close
//  3. chmod(temp, perm)
//  4. rename(temp, dst)
//
// The temp file is removed on failure; a failed removal is reported
// alongside the original error.
func AtomicWrite(fsys FileOps, dst string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(dst)
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := fsys.CreateTemp(dir, ".multilookup-*")
	if err != nil {
		return err
	}
	if _, err = tmp.Write(data); err == nil {
		err = tmp.Sync()
	}
	err = multierr.Append(err, tmp.Close())
	if err == nil {
		err = fsys.Chmod(tmp.Name(), perm)
	}
	if err == nil {
		err = fsys.Rename(tmp.Name(), dst)
	}
	if err != nil {
		return multierr.Append(err, fsys.Remove(tmp.Name()))
	}
	return nil
}
