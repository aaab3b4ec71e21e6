// Package fbdev owns the framebuffer device handle. Writes always start
// at offset zero and never exceed the configured frame size.
package fbdev

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/fbdash/fbdash/internal/consts"
	"github.com/fbdash/fbdash/internal/errors"
	"github.com/fbdash/fbdash/internal/exc"
	"github.com/fbdash/fbdash/internal/logx"
)

const chmodTimeout = 5 * time.Second

// Writer holds exclusive write access to one framebuffer device for the
// controller's lifetime.
type Writer struct {
	dev       *os.File
	path      string
	frameSize int
	logger    *slog.Logger

	// diagnostics only, never consulted for correctness
	framesWritten uint64
	bytesWritten  uint64
}

// Open acquires the device. Device permissions are relaxed first on a
// best-effort basis; a chmod failure only matters if the subsequent
// open fails too. An unopenable device is an unrecoverable startup
// condition for the caller.
func Open(path string, frameSize int, logger *slog.Logger) (*Writer, error) {
	if frameSize <= 0 {
		return nil, errors.Errorf(`invalid frame size %d`, frameSize)
	}
	if _, err := exc.RunPrivileged(context.Background(), chmodTimeout, `chmod`, `666`, path); err != nil {
		logx.Debug(`device chmod failed`, logger, `device`, path, `cause`, err)
	}
	dev, err := os.OpenFile(path, os.O_RDWR, os.ModeDevice)
	if err != nil {
		return nil, errors.New(err)
	}
	// advisory only, but keeps a second controller instance out
	if err := unix.Flock(int(dev.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		dev.Close()
		return nil, errors.WrapPrefix(err, `locking `+path, 1)
	}
	logx.Info(`framebuffer opened`, logger, `device`, path, `frameSize`, frameSize)
	return &Writer{dev: dev, path: path, frameSize: frameSize, logger: logger}, nil
}

// Write puts one encoded frame on the device: seek to offset zero,
// write min(len(b), frameSize) bytes, flush. I/O errors are surfaced to
// the caller; there is no retry here.
func (w *Writer) Write(b []byte) error {
	if w == nil || w.dev == nil {
		return errors.New(consts.ErrDeviceNotOpen)
	}
	if len(b) > w.frameSize {
		b = b[:w.frameSize]
	}
	if _, err := w.dev.Seek(0, io.SeekStart); err != nil {
		return errors.New(err)
	}
	n, err := w.dev.Write(b)
	if err != nil {
		return errors.New(err)
	}
	if n < len(b) {
		return errors.New(consts.ErrDeviceShortWrite)
	}
	if err := w.dev.Sync(); err != nil {
		// some fbdev drivers reject fsync; the write itself went through
		logx.Debug(`device sync failed`, w.logger, `cause`, err)
	}
	w.framesWritten++
	w.bytesWritten += uint64(n)
	return nil
}

// Close releases the device. Safe to call more than once.
func (w *Writer) Close() error {
	if w == nil || w.dev == nil {
		return nil
	}
	dev := w.dev
	w.dev = nil
	err := errors.Join(unix.Flock(int(dev.Fd()), unix.LOCK_UN), dev.Close())
	logx.Info(`framebuffer closed`, w.logger, `device`, w.path,
		`framesWritten`, w.framesWritten, `bytesWritten`, w.bytesWritten)
	if err != nil {
		return errors.New(err)
	}
	return nil
}

// FramesWritten returns the count of frames written since Open.
func (w *Writer) FramesWritten() uint64 {
	if w == nil {
		return 0
	}
	return w.framesWritten
}

// BytesWritten returns the count of bytes written since Open.
func (w *Writer) BytesWritten() uint64 {
	if w == nil {
		return 0
	}
	return w.bytesWritten
}
