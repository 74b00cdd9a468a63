// Package fsutil provides the filesystem helpers the registry relies
// on: recursive removal that copes with read-only content and directory
// creation that honors extended permission bits.
package fsutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Remove deletes path recursively. When the first attempt fails, the
// tree is walked once to force owner write bits onto everything before
// retrying, which handles read-only artifacts left inside entry
// directories. A path that does not exist is not an error.
func Remove(path string) error {
	if err := os.RemoveAll(path); err == nil {
		return nil
	}
	_ = filepath.WalkDir(path, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		_ = os.Chmod(p, info.Mode().Perm()|0o200)
		return nil
	})
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

// MakeDirs creates path and any missing parents, tolerating directories
// that already exist. Mode bits beyond the plain permissions (setgid,
// setuid, sticky) are applied to the final directory afterwards since
// MkdirAll strips them.
func MakeDirs(path string, perm os.FileMode) error {
	if err := os.MkdirAll(path, perm.Perm()); err != nil {
		return fmt.Errorf("create dir %s: %w", path, err)
	}
	if perm&(os.ModeSetgid|os.ModeSetuid|os.ModeSticky) != 0 {
		if err := os.Chmod(path, perm); err != nil {
			return fmt.Errorf("chmod %s: %w", path, err)
		}
	}
	return nil
}
