// Package vault provides rooted filesystem access to the note store.
//
// Every tool path is vault-relative; escapes above the root are rejected
// before any I/O happens.
package vault

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	errs "github.com/scribe-ai/scribe/internal/errors"
)

// Vault is a directory tree holding the user's notes.
type Vault struct {
	root string
}

// Open opens the vault rooted at dir, which must exist.
func Open(dir string) (*Vault, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeConfigInvalid, "invalid vault root", errs.CategorySystem)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeConfigInvalid, "vault root not accessible", errs.CategorySystem)
	}
	if !info.IsDir() {
		return nil, errs.System(errs.CodeConfigInvalid, "vault root is not a directory: "+abs)
	}
	return &Vault{root: abs}, nil
}

// Root returns the vault's absolute root directory.
func (v *Vault) Root() string {
	return v.root
}

// Resolve converts a vault-relative path to an absolute one, rejecting
// anything that would land outside the root.
func (v *Vault) Resolve(rel string) (string, error) {
	rel = strings.TrimSpace(rel)
	rel = strings.TrimPrefix(rel, "/")
	abs := filepath.Clean(filepath.Join(v.root, filepath.FromSlash(rel)))

	inside, err := filepath.Rel(v.root, abs)
	if err != nil || inside == ".." || strings.HasPrefix(inside, ".."+string(filepath.Separator)) {
		return "", errs.Permanent(errs.CodePathOutsideVault, "path escapes the vault: "+rel)
	}
	return abs, nil
}

// ReadFile reads a vault-relative file.
func (v *Vault) ReadFile(rel string) (string, error) {
	abs, err := v.Resolve(rel)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errs.Wrap(err, errs.CodeFileNotFound, "note not found: "+rel, errs.CategoryPermanent)
		}
		return "", errs.Wrap(err, errs.CodeFileReadFailed, "failed to read "+rel, errs.CategorySystem)
	}
	return string(data), nil
}

// WriteFile writes a vault-relative file, creating parent folders.
func (v *Vault) WriteFile(rel, content string) error {
	abs, err := v.Resolve(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return errs.Wrap(err, errs.CodeFileWriteFailed, "failed to create folder for "+rel, errs.CategorySystem)
	}
	if err := os.WriteFile(abs, []byte(content), 0644); err != nil {
		return errs.Wrap(err, errs.CodeFileWriteFailed, "failed to write "+rel, errs.CategorySystem)
	}
	return nil
}

// Exists reports whether a vault-relative file exists.
func (v *Vault) Exists(rel string) bool {
	abs, err := v.Resolve(rel)
	if err != nil {
		return false
	}
	_, err = os.Stat(abs)
	return err == nil
}

// Entry is one listing result. Dir entries carry a trailing slash in Path.
type Entry struct {
	Path  string
	IsDir bool
}

// List lists the folder at rel. With recursive set it walks the whole
// subtree; otherwise only direct children are returned.
func (v *Vault) List(rel string, recursive bool) ([]Entry, error) {
	abs, err := v.Resolve(rel)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	if !recursive {
		items, err := os.ReadDir(abs)
		if err != nil {
			return nil, errs.Wrap(err, errs.CodeFileReadFailed, "failed to list "+rel, errs.CategorySystem)
		}
		for _, it := range items {
			entries = append(entries, listEntry(rel, it.Name(), it.IsDir()))
		}
		return entries, nil
	}

	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == abs {
			return nil
		}
		sub, rerr := filepath.Rel(v.root, path)
		if rerr != nil {
			return rerr
		}
		entries = append(entries, listEntry("", filepath.ToSlash(sub), d.IsDir()))
		return nil
	})
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeFileReadFailed, "failed to list "+rel, errs.CategorySystem)
	}
	return entries, nil
}

// WalkFiles visits every regular file under rel with its vault-relative
// path. Used by the search tools.
func (v *Vault) WalkFiles(rel string, fn func(relPath string) error) error {
	abs, err := v.Resolve(rel)
	if err != nil {
		return err
	}
	return filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		sub, rerr := filepath.Rel(v.root, path)
		if rerr != nil {
			return rerr
		}
		return fn(filepath.ToSlash(sub))
	})
}

func listEntry(base, name string, isDir bool) Entry {
	p := name
	if base != "" && base != "." {
		p = strings.TrimSuffix(base, "/") + "/" + name
	}
	if isDir {
		p += "/"
	}
	return Entry{Path: p, IsDir: isDir}
}
