package container

import (
	"bytes"

	"github.com/dyuri/civ6map/internal/model"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Header chunk tags (little-endian uint32 words)
var (
	tagSeparator = []byte{0x01, 0x00, 0x00, 0x00}
	tagVersion   = []byte{0x20, 0x00, 0x00, 0x00}
	tagPair      = []byte{0x02, 0x00, 0x00, 0x00}
	zeroWord     = []byte{0x00, 0x00, 0x00, 0x00}
)

// pairLen is the size of a 0x02 chunk including its tag
const pairLen = 12

// ChunkWalker walks the uncompressed header of a save container
type ChunkWalker struct {
	raw     []byte
	end     int
	decoder *encoding.Decoder // Titles are stored in Windows-1252
}

// NewChunkWalker creates a walker over raw. The walk stops at the first
// compressed block, or at the end of raw when there is none.
func NewChunkWalker(raw []byte) *ChunkWalker {
	end := len(raw)
	if b, ok := FindBlock(raw, 0); ok {
		end = b.Start
	}
	return &ChunkWalker{
		raw:     raw,
		end:     end,
		decoder: charmap.Windows1252.NewDecoder(),
	}
}

// WalkChunks returns the header chunks of a save container
func WalkChunks(raw []byte) ([]model.Chunk, error) {
	if err := CheckMagic(raw); err != nil {
		return nil, err
	}
	return NewChunkWalker(raw).Walk(), nil
}

// Walk reads chunks from just past the signature up to the compressed data.
// Unknown layouts never fail the walk; they end up as named chunks.
func (w *ChunkWalker) Walk() []model.Chunk {
	var chunks []model.Chunk
	pos := len(Magic)

	for pos+4 <= w.end {
		word := w.raw[pos : pos+4]

		switch {
		case bytes.Equal(word, tagSeparator), bytes.Equal(word, zeroWord):
			pos += 4

		case bytes.Equal(word, tagVersion):
			start := pos
			pos = w.wordsUntilSeparator(pos + 4)
			chunks = append(chunks, model.Chunk{
				Offset: start,
				Kind:   model.ChunkVersion,
				Data:   w.raw[start+4 : pos],
			})

		case bytes.Equal(word, tagPair):
			start := pos
			pos = min(pos+pairLen, w.end)
			chunks = append(chunks, model.Chunk{
				Offset: start,
				Kind:   model.ChunkPair,
				Data:   w.raw[start+4 : pos],
			})

		default:
			start := pos
			title := w.raw[pos:w.end]
			if nul := bytes.IndexByte(title, 0); nul >= 0 {
				title = title[:nul]
				pos += nul + 1
			} else {
				pos = w.end
			}
			dataStart := pos
			pos = w.wordsUntilSeparator(pos)
			chunks = append(chunks, model.Chunk{
				Offset: start,
				Kind:   model.ChunkNamed,
				Title:  w.decodeTitle(title),
				Data:   w.raw[dataStart:pos],
			})
		}
	}

	return chunks
}

// wordsUntilSeparator skips 4-byte words until a separator tag or the end
func (w *ChunkWalker) wordsUntilSeparator(pos int) int {
	for pos+4 <= w.end && !bytes.Equal(w.raw[pos:pos+4], tagSeparator) {
		pos += 4
	}
	if pos > w.end {
		return w.end
	}
	return pos
}

func (w *ChunkWalker) decodeTitle(b []byte) string {
	s, err := w.decoder.Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(s)
}
