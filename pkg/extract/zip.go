package extract

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/helalist/hela/pkg/logging"
)

// ZipFile extracts a zip archive of the given size to destPath.
func ZipFile(reader io.ReaderAt, destPath string, size int64, overwrite bool) error {
	err := os.MkdirAll(destPath, 0755)
	if err != nil {
		return fmt.Errorf("error creating destination directory: %w", err)
	}

	zipReader, err := zip.NewReader(reader, size)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return fmt.Errorf("error creating zip reader: %w", err)
	}

	logger := logging.GetLogger()
	for _, file := range zipReader.File {
		if err := guardAgainstZipSlip(file.Name, destPath); err != nil {
			return err
		}
		logger.Debug().
			Str("name", file.Name).
			Str("perms", fmt.Sprintf("%o", file.Mode().Perm())).
			Msg("Zip: Entry")
		if err := handleFileFromZip(file, destPath, overwrite); err != nil {
			return fmt.Errorf("error extracting file: %w", err)
		}
	}
	return nil
}

// ZipStream spools a zip stream to a temporary file, which zip needs for random access, and
// extracts it.
func ZipStream(reader io.Reader, destPath string, overwrite bool) error {
	spool, err := os.CreateTemp("", "hela-zip-")
	if err != nil {
		return fmt.Errorf("error creating spool file: %w", err)
	}
	defer func() {
		spool.Close()
		os.Remove(spool.Name())
	}()

	size, err := io.Copy(spool, reader)
	if err != nil {
		return fmt.Errorf("error spooling zip archive: %w", err)
	}
	return ZipFile(spool, destPath, size, overwrite)
}

func handleFileFromZip(file *zip.File, outputDir string, overwrite bool) error {
	target := filepath.Join(outputDir, file.Name)
	switch {
	case file.FileInfo().IsDir():
		return extractDir(file, target)
	case file.FileInfo().Mode().IsRegular():
		return extractFile(file, target, overwrite)
	default:
		return fmt.Errorf("unsupported file type (not dir or regular): %s (%d)", file.Name, file.FileInfo().Mode().Type())
	}
}

func extractDir(file *zip.File, target string) error {
	err := os.MkdirAll(target, 0755)
	if err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}
	return applyPermissions(target, file.Mode().Perm())
}

func extractFile(file *zip.File, target string, overwrite bool) error {
	err := os.MkdirAll(filepath.Dir(target), 0755)
	if err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	zipFile, err := file.Open()
	if err != nil {
		return fmt.Errorf("error opening file: %w", err)
	}
	defer zipFile.Close()

	openFlags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if overwrite {
		openFlags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	out, err := os.OpenFile(target, openFlags, 0644)
	if err != nil {
		return fmt.Errorf("error creating file: %w", err)
	}
	defer out.Close()

	_, err = io.Copy(out, zipFile)
	if err != nil {
		return fmt.Errorf("error copying file: %w", err)
	}
	return applyPermissions(target, file.Mode().Perm())
}

func applyPermissions(filepath string, fileMode fs.FileMode) error {
	// Do not apply setuid/gid/sticky bits.
	return os.Chmod(filepath, cleanFileMode(fileMode))
}
