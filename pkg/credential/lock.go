//go:build !windows

package credential

import (
	"fmt"
	"os"
	"syscall"

	"github.com/helalist/hela/pkg/logging"
)

// fileLock is an advisory flock held while the credentials file is rewritten, so concurrent
// logins from several shells do not interleave their writes.
type fileLock struct {
	file *os.File
	fd   int
}

func newFileLock(path string) (*fileLock, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, err
	}
	return &fileLock{file: file, fd: int(file.Fd())}, nil
}

func (l *fileLock) Acquire() error {
	logger := logging.GetLogger()
	funcs := []func() error{
		func() error {
			err := syscall.Flock(l.fd, syscall.LOCK_EX|syscall.LOCK_NB)
			if err != nil {
				logger.Debug().
					Err(err).
					Str("lock", l.file.Name()).
					Msg("Waiting on credentials lock")
				err = syscall.Flock(l.fd, syscall.LOCK_EX)
			}
			return err
		},
		l.writePID,
		l.file.Sync,
	}
	return executeFuncs(funcs)
}

func (l *fileLock) Release() error {
	funcs := []func() error{
		func() error { return syscall.Flock(l.fd, syscall.LOCK_UN) },
		l.file.Close,
	}
	return executeFuncs(funcs)
}

func (l *fileLock) writePID() error {
	if err := l.file.Truncate(0); err != nil {
		return err
	}
	_, err := l.file.WriteAt([]byte(fmt.Sprintf("%d", os.Getpid())), 0)
	return err
}

func executeFuncs(funcs []func() error) error {
	for _, fn := range funcs {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}
