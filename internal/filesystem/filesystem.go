// Package filesystem abstracts the file operations used to overlay commit content into worktrees.
package filesystem

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// FileSystem describes the file operations required by the branch syncer.
type FileSystem interface {
	Lstat(path string) (fs.FileInfo, error)
	MkdirAll(path string, permissions fs.FileMode) error
	MkdirTemp(directory string, pattern string) (string, error)
	WriteFile(path string, data []byte, permissions fs.FileMode) error
	Symlink(target string, path string) error
	Remove(path string) error
	RemoveAll(path string) error
}

// OSFileSystem implements FileSystem using the operating system primitives.
type OSFileSystem struct{}

// Lstat retrieves file metadata without following symbolic links.
func (OSFileSystem) Lstat(path string) (fs.FileInfo, error) {
	return os.Lstat(path)
}

// MkdirAll ensures a directory hierarchy exists with the provided permissions.
func (OSFileSystem) MkdirAll(path string, permissions fs.FileMode) error {
	return os.MkdirAll(path, permissions)
}

// MkdirTemp creates a uniquely named directory.
func (OSFileSystem) MkdirTemp(directory string, pattern string) (string, error) {
	return os.MkdirTemp(directory, pattern)
}

// WriteFile writes data to a file and applies the permissions even when the file already existed.
func (OSFileSystem) WriteFile(path string, data []byte, permissions fs.FileMode) error {
	if writeError := os.WriteFile(path, data, permissions); writeError != nil {
		return writeError
	}
	return os.Chmod(path, permissions)
}

// Symlink creates path as a symbolic link to target.
func (OSFileSystem) Symlink(target string, path string) error {
	return os.Symlink(target, path)
}

// Remove deletes a file or an empty directory.
func (OSFileSystem) Remove(path string) error {
	return os.Remove(path)
}

// RemoveAll deletes a path and any children.
func (OSFileSystem) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// ReplaceWithFile writes data at path, first removing whatever non-directory entry occupies it.
func ReplaceWithFile(fileSystem FileSystem, path string, data []byte, permissions fs.FileMode) error {
	if removeError := removeExisting(fileSystem, path); removeError != nil {
		return removeError
	}
	if directoryError := fileSystem.MkdirAll(filepath.Dir(path), 0o755); directoryError != nil {
		return directoryError
	}
	return fileSystem.WriteFile(path, data, permissions)
}

// ReplaceWithSymlink points path at target, first removing whatever entry occupies it.
func ReplaceWithSymlink(fileSystem FileSystem, path string, target string) error {
	if removeError := removeExisting(fileSystem, path); removeError != nil {
		return removeError
	}
	if directoryError := fileSystem.MkdirAll(filepath.Dir(path), 0o755); directoryError != nil {
		return directoryError
	}
	return fileSystem.Symlink(target, path)
}

// RemoveIfExists deletes path recursively and treats a missing path as success.
func RemoveIfExists(fileSystem FileSystem, path string) error {
	if _, statError := fileSystem.Lstat(path); statError != nil {
		if errors.Is(statError, fs.ErrNotExist) {
			return nil
		}
		return statError
	}
	return fileSystem.RemoveAll(path)
}

func removeExisting(fileSystem FileSystem, path string) error {
	info, statError := fileSystem.Lstat(path)
	if statError != nil {
		if errors.Is(statError, fs.ErrNotExist) {
			return nil
		}
		return statError
	}
	if info.IsDir() {
		return fileSystem.RemoveAll(path)
	}
	return fileSystem.Remove(path)
}
