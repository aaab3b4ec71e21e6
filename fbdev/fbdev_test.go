package fbdev_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fbdash/fbdash/fbdev"
	"github.com/fbdash/fbdash/frame"
)

func tempDevice(t *testing.T, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), `fb`)
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
	return path
}

func TestOpenMissingDevice(t *testing.T) {
	_, err := fbdev.Open(filepath.Join(t.TempDir(), `nope`), 16, nil)
	assert.Error(t, err)
}

func TestWriteTruncatesToFrameSize(t *testing.T) {
	const frameSize = 8
	path := tempDevice(t, frameSize)
	w, err := fbdev.Open(path, frameSize, nil)
	require.NoError(t, err)
	defer w.Close()

	payload := bytes.Repeat([]byte{0xAB}, frameSize*2)
	require.NoError(t, w.Write(payload))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload[:frameSize], got)
	assert.EqualValues(t, 1, w.FramesWritten())
	assert.EqualValues(t, frameSize, w.BytesWritten())
}

func TestWriteAlwaysStartsAtOffsetZero(t *testing.T) {
	const frameSize = 4
	path := tempDevice(t, frameSize)
	w, err := fbdev.Open(path, frameSize, nil)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Write([]byte{1, 2, 3, 4}))
	require.NoError(t, w.Write([]byte{9, 8, 7, 6}))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 8, 7, 6}, got)
	assert.EqualValues(t, 2, w.FramesWritten())
}

func TestWriteAfterClose(t *testing.T) {
	path := tempDevice(t, 4)
	w, err := fbdev.Open(path, 4, nil)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.Error(t, w.Write([]byte{1}))
	assert.NoError(t, w.Close(), `close must be idempotent`)
}

// Two cycles with identical encoded bytes must hit the device at most
// once when gated by the change detector.
func TestWriteSuppressionAcrossCycles(t *testing.T) {
	const frameSize = 8
	path := tempDevice(t, frameSize)
	w, err := fbdev.Open(path, frameSize, nil)
	require.NoError(t, err)
	defer w.Close()

	var cd frame.ChangeDetector
	encoded := bytes.Repeat([]byte{0x55}, frameSize)
	for cycle := 0; cycle < 2; cycle++ {
		d := frame.Fingerprint(encoded)
		if cd.ShouldWrite(d, false) {
			require.NoError(t, w.Write(encoded))
			cd.MarkWritten(d)
		}
	}
	assert.EqualValues(t, 1, w.FramesWritten())
}
