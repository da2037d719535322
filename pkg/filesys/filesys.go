// Package filesys provides the small set of file system operations the
// store actually needs: creating the data directory tree, copying a
// file (used when replicating the header store and staging merged run
// files), and checking whether a path exists.
package filesys

import (
	stderrors "errors"
	"os"

	"github.com/posdb/chessposdb/pkg/errors"
)

var ErrIsNotDir = stderrors.New("path isn't a directory")

// CreateDir creates a directory at the specified path with the given permissions.
//
// If 'force' is false and the path already exists, it returns nil
// without touching the path and without checking that it is a
// directory; any other os.Stat failure except "not exist" is returned
// as is.
//
// If 'force' is true and the existing path is a file (not a directory),
// it returns ErrIsNotDir.
func CreateDir(dirPath string, permission os.FileMode, force bool) error {
	// Get file information for the given path.
	stat, err := os.Stat(dirPath)
	// If 'force' is false and the path exists
	// return the error (indicating the directory already exists).
	if !force && !os.IsNotExist(err) {
		return err
	}

	// If the path exists and it's not a directory, return an error.
	if stat != nil && !stat.IsDir() {
		return ErrIsNotDir
	}

	// Create all necessary parent directories if they don't exist, with the specified permissions.
	if err := os.MkdirAll(dirPath, permission); err != nil {
		return errors.ClassifyDirectoryCreationError(err, dirPath)
	}

	// Change the permissions of the newly created directory to 0755 (rwxr-xr-x).
	return os.Chmod(dirPath, 0755)
}

// CopyFile copies a single file from `sourcePath` to `destPath`.
// It reads the entire content of the source file into memory and then writes it to the destination.
// The destination file will have default permissions (0644).
func CopyFile(sourcePath, destPath string) error {
	// Read the entire content of the source file.
	input, err := os.ReadFile(sourcePath)
	if err != nil {
		return err
	}
	// Write the content to the destination file with permissions 0644 (rw-r--r--).
	return os.WriteFile(destPath, input, 0644)
}

// Exists checks if a file or directory at the given `file` path exists.
// It returns true if the file/directory exists, false if it does not,
// and an error if there's any other issue checking its status.
func Exists(file string) (bool, error) {
	_, err := os.Stat(file)
	if err == nil {
		return true, nil // Path exists.
	}
	// If the error indicates that the file does not exist, return false.
	if stderrors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}
