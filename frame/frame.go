// Package frame converts composed RGB rasters into the device's native
// RGB565 byte layout and detects frames identical to the last write.
package frame

import (
	"crypto/sha256"
	"image"

	"github.com/fbdash/fbdash/internal/consts"
)

// EncodeRGB565 packs img into 16-bit RGB565 words, row-major,
// little-endian. The output length is exactly 2*w*h bytes. The
// transform is lossy: 3/2/3 low bits of R/G/B are truncated, no
// dithering.
func EncodeRGB565(img *image.RGBA) []byte {
	if img == nil {
		return nil
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := make([]byte, w*h*consts.BytesPerPixel)
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := img.Pix[(y-bounds.Min.Y)*img.Stride:]
		for x := 0; x < w; x++ {
			r := uint16(row[x*4])
			g := uint16(row[x*4+1])
			b := uint16(row[x*4+2])
			packed := (r&0xF8)<<8 | (g&0xFC)<<3 | b>>3
			out[i] = byte(packed)
			out[i+1] = byte(packed >> 8)
			i += 2
		}
	}
	return out
}

// Digest is a content fingerprint of one encoded frame.
type Digest [sha256.Size]byte

// Fingerprint digests encoded frame bytes. Determinism is what matters
// here, not cryptographic strength.
func Fingerprint(b []byte) Digest {
	return sha256.Sum256(b)
}

// ChangeDetector suppresses writes of frames whose encoded bytes equal
// the last successfully written frame.
type ChangeDetector struct {
	last    Digest
	written bool
}

// ShouldWrite reports whether a frame with digest d needs writing. The
// first frame after construction always does.
func (c *ChangeDetector) ShouldWrite(d Digest, force bool) bool {
	if c == nil {
		return true
	}
	return force || !c.written || d != c.last
}

// MarkWritten records d as the digest of the last successful write.
func (c *ChangeDetector) MarkWritten(d Digest) {
	if c == nil {
		return
	}
	c.last = d
	c.written = true
}
