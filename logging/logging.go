package logging

import (
	"io"
	"log"
	"os"
	"sync"
)

// RotatingWriter is a size-capped log file with one ".old" backup.
// Writes past the cap swap the current file out rather than truncating,
// so a crash right after rotation still leaves recent history on disk.
type RotatingWriter struct {
	mu   sync.Mutex
	file *os.File
	path string
	size int64
	cap  int64
}

// Setup routes the stdlib logger to stdout plus a rotating file.
func Setup(logPath string) (*RotatingWriter, error) {
	rw := &RotatingWriter{
		path: logPath,
		cap:  4 << 20, // 4MB
	}
	if err := rw.open(); err != nil {
		return nil, err
	}

	log.SetOutput(io.MultiWriter(os.Stdout, rw))
	return rw, nil
}

func (w *RotatingWriter) open() error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	w.file = f
	w.size = 0
	if info, err := f.Stat(); err == nil {
		w.size = info.Size()
	}
	return nil
}

func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.size+int64(len(p)) > w.cap {
		w.file.Close()
		os.Rename(w.path, w.path+".old")
		if err := w.open(); err != nil {
			return 0, err
		}
	}

	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
