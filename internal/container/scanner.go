// Package container locates and unpacks the compressed game-state block of
// a Civilization VI save file.
//
// A save starts with the ASCII signature "CIV6", followed by an uncompressed
// header made of tagged chunks and then one or more framed compressed
// blocks. Each block opens with four framing bytes and a zlib header and is
// closed by a deflate sync-flush marker. Inside a block the encoder
// interleaves four stray bytes after every 64 KiB of payload.
package container

import (
	"github.com/dyuri/civ6map/internal/model"
	"github.com/dyuri/civ6map/internal/scan"
)

// Magic is the save file signature
var Magic = []byte("CIV6")

// Block markers
var (
	ZlibHeader  = []byte{0x78, 0x9C}
	StartMarker = []byte{0x00, 0x00, 0x01, 0x00, ZlibHeader[0], ZlibHeader[1]}
	StopMarker  = []byte{0x00, 0x00, 0xFF, 0xFF}
)

const (
	// framingLen is the number of leading start-marker bytes that are not
	// part of the compressed payload
	framingLen = 4

	// SegmentSize is the payload run between two framing gaps
	SegmentSize = 65536

	// GapSize is the number of stray bytes following each full segment
	GapSize = 4
)

// CheckMagic verifies the CIV6 signature
func CheckMagic(raw []byte) error {
	if len(raw) < len(Magic) || string(raw[:len(Magic)]) != string(Magic) {
		if len(raw) >= len(Magic) {
			return model.ErrBadMagic.With("got %q", raw[:len(Magic)])
		}
		return model.ErrBadMagic.With("file is %d bytes", len(raw))
	}
	return nil
}

// FindBlock returns the next framed compressed block whose start marker lies
// at or after from. The stop marker is searched from the start marker on.
// ok is false when either marker is missing.
func FindBlock(raw []byte, from int) (b model.Block, ok bool) {
	start := scan.IndexFrom(raw, StartMarker, from)
	if start < 0 {
		return model.Block{}, false
	}
	stop := scan.IndexFrom(raw, StopMarker, start)
	if stop < 0 {
		return model.Block{}, false
	}
	return model.Block{Start: start, Stop: stop}, true
}

// FindBlocks returns every framed block in raw, in file order
func FindBlocks(raw []byte) []model.Block {
	var blocks []model.Block
	from := 0
	for {
		b, ok := FindBlock(raw, from)
		if !ok {
			return blocks
		}
		blocks = append(blocks, b)
		from = b.Stop
	}
}

// Deframe extracts the compressed payload of b from raw and removes the
// periodic framing gaps. The zlib header stays as the first two bytes.
func Deframe(raw []byte, b model.Block) []byte {
	lo := b.Start + framingLen
	hi := b.Stop + len(StopMarker)
	if hi > len(raw) {
		hi = len(raw)
	}
	if lo >= hi {
		return []byte{}
	}
	return DeframePayload(raw[lo:hi])
}

// DeframePayload copies payload in SegmentSize runs, dropping the GapSize
// bytes that follow each run. A short final run is copied in full.
func DeframePayload(payload []byte) []byte {
	out := make([]byte, 0, DeframedLen(len(payload)))
	for off := 0; off < len(payload); off += SegmentSize + GapSize {
		end := min(off+SegmentSize, len(payload))
		out = append(out, payload[off:end]...)
	}
	return out
}

// DeframedLen returns the length DeframePayload produces for n input bytes
func DeframedLen(n int) int {
	const stride = SegmentSize + GapSize
	return n/stride*SegmentSize + min(n%stride, SegmentSize)
}
