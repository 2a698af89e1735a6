package irc

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrTranscriptLocked is returned by Transcript.Append when another process
// holds the transcript lock.  The line is not written.
var ErrTranscriptLocked = errors.New("transcript is locked by another process")

// Transcript appends raw received lines to a file.  The file is opened and
// closed for every line, under an advisory lock so that several clients can
// share it.  Append never waits for the lock.
type Transcript struct {
	path     string
	dirReady bool
}

func NewTranscript(path string) *Transcript {
	return &Transcript{path: path}
}

// DefaultTranscriptPath is log.txt in the per-user application directory.
func DefaultTranscriptPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "kathy", "log.txt"), nil
}

func (t *Transcript) Path() string {
	return t.path
}

// Append writes raw unmodified at the end of the transcript, creating the file
// and its directory if needed.
func (t *Transcript) Append(raw []byte) (err error) {
	if !t.dirReady {
		err = os.MkdirAll(filepath.Dir(t.path), 0755)
		if err != nil {
			return
		}
		t.dirReady = true
	}

	lock := flock.New(t.path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return
	}
	if !locked {
		return ErrTranscriptLocked
	}
	defer lock.Unlock()

	f, err := os.OpenFile(t.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}

	_, err = f.Write(raw)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}

	return
}
