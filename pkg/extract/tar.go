package extract

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/helalist/hela/pkg/logging"
)

var ErrZipSlip = errors.New("archive contains file outside of target directory")
var ErrEmptyHeaderName = errors.New("tar file contains entry with empty name")

// pendingLink is a link entry held back until every regular file of the archive is on disk.
type pendingLink struct {
	hard bool
	// target is the link text for a symlink and the archive path of the source for a hard link.
	target string
	path   string
}

type tarUnpacker struct {
	destDir   string
	overwrite bool
	links     []pendingLink
	logger    zerolog.Logger
}

// TarFile extracts a tar stream, optionally compressed in any format Decompress recognizes, into
// destDir. Links are created after all regular files so that hard link targets exist.
func TarFile(reader io.Reader, destDir string, overwrite bool) error {
	start := time.Now()
	u := &tarUnpacker{destDir: destDir, overwrite: overwrite, logger: logging.GetLogger()}

	decompressed, err := Decompress(reader)
	if err != nil {
		return fmt.Errorf("error detecting compression: %w", err)
	}
	if closer, ok := decompressed.(io.Closer); ok {
		defer closer.Close()
	}

	tr := tar.NewReader(decompressed)
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil && !errors.Is(err, tar.ErrInsecurePath) {
			return err
		}
		if err := u.unpack(header, tr); err != nil {
			return err
		}
	}
	if err := u.linkAll(); err != nil {
		return fmt.Errorf("error creating links: %w", err)
	}

	u.logger.Debug().
		Str("extractor", "tar").
		Str("dest", destDir).
		Dur("elapsed", time.Since(start)).
		Msg("Extract")
	return nil
}

func (u *tarUnpacker) unpack(header *tar.Header, body io.Reader) error {
	if err := guardAgainstZipSlip(header.Name, u.destDir); err != nil {
		return err
	}
	path := filepath.Join(u.destDir, header.Name)
	mode := cleanFileMode(os.FileMode(header.Mode))

	switch header.Typeflag {
	case tar.TypeDir:
		u.logger.Trace().Str("path", path).Stringer("mode", mode).Msg("Tar: directory")
		return os.MkdirAll(path, mode)
	case tar.TypeReg:
		u.logger.Trace().Str("path", path).Stringer("mode", mode).Msg("Tar: file")
		return u.writeFile(path, mode, body)
	case tar.TypeLink:
		if err := guardAgainstZipSlip(header.Linkname, u.destDir); err != nil {
			return err
		}
		u.links = append(u.links, pendingLink{hard: true, target: header.Linkname, path: path})
		return nil
	case tar.TypeSymlink:
		u.links = append(u.links, pendingLink{target: header.Linkname, path: path})
		return nil
	default:
		return fmt.Errorf("unsupported file type for %s, typeflag %q", header.Name, header.Typeflag)
	}
}

func (u *tarUnpacker) writeFile(path string, mode os.FileMode, body io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	flags := os.O_CREATE | os.O_WRONLY
	if u.overwrite {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("error closing file %s: %w", path, err)
	}
	return nil
}

func (u *tarUnpacker) linkAll() error {
	for _, l := range u.links {
		if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
			return err
		}
		if u.overwrite {
			if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("error removing existing file %s: %w", l.path, err)
			}
		}
		if l.hard {
			source := filepath.Join(u.destDir, l.target)
			u.logger.Trace().Str("source", source).Str("path", l.path).Msg("Tar: hard link")
			if err := os.Link(source, l.path); err != nil {
				return fmt.Errorf("error creating hard link from %s to %s: %w", source, l.path, err)
			}
			continue
		}
		u.logger.Trace().Str("target", l.target).Str("path", l.path).Msg("Tar: symlink")
		if err := os.Symlink(l.target, l.path); err != nil {
			return fmt.Errorf("error creating symlink from %s to %s: %w", l.target, l.path, err)
		}
	}
	return nil
}

// guardAgainstZipSlip rejects entry names that resolve outside destDir.
func guardAgainstZipSlip(name, destDir string) error {
	if name == "" {
		return ErrEmptyHeaderName
	}
	destAbs, err := filepath.Abs(destDir)
	if err != nil {
		return fmt.Errorf("error getting absolute path of %s: %w", destDir, err)
	}
	target, err := filepath.Abs(filepath.Join(destDir, name))
	if err != nil {
		return fmt.Errorf("error getting absolute path of %s: %w", name, err)
	}
	if target != destAbs && !strings.HasPrefix(target, destAbs+string(filepath.Separator)) {
		return fmt.Errorf("%w: `%s` outside of `%s`", ErrZipSlip, target, destAbs)
	}
	return nil
}

func cleanFileMode(mode os.FileMode) os.FileMode {
	return mode &^ (os.ModeSticky | os.ModeSetuid | os.ModeSetgid)
}
