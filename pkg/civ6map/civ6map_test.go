package civ6map

import (
	"bytes"
	"encoding/binary"
	"testing"

	civbin "github.com/dyuri/civ6map/internal/binary"
	"github.com/dyuri/civ6map/internal/container"
	"github.com/dyuri/civ6map/internal/model"
	"github.com/klauspost/compress/flate"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietDecoder() *Decoder {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewDecoder(&Options{Log: logger})
}

// compressBlock encodes data as an on-disk block payload: zlib header,
// sync-flushed deflate data, and a 4-byte gap after every 64 KiB.
func compressBlock(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.Write(container.ZlibHeader)
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Flush())

	payload := buf.Bytes()
	var framed []byte
	for off := 0; off < len(payload); off += container.SegmentSize {
		end := min(off+container.SegmentSize, len(payload))
		framed = append(framed, payload[off:end]...)
		if end < len(payload) {
			framed = append(framed, 0x00, 0x00, 0x01, 0x10)
		}
	}
	return framed
}

func buildSave(t *testing.T, streams ...[]byte) []byte {
	t.Helper()
	raw := []byte("CIV6")
	raw = append(raw, 0x20, 0x00, 0x00, 0x00, 0x0C, 0x00, 0x00, 0x00)
	raw = append(raw, 0x01, 0x00, 0x00, 0x00)
	for _, s := range streams {
		raw = append(raw, container.StartMarker[:4]...)
		raw = append(raw, compressBlock(t, s)...)
		raw = append(raw, 0x07, 0x00, 0x00, 0x00)
	}
	return raw
}

func record(f1, f2, f3, owner byte) []byte {
	length := civbin.RecordLength(f1, f2, f3)
	rec := make([]byte, length)
	rec[49] = f3
	rec[51] = f1
	if f1&1 != 0 {
		rec[75] = f2
	}
	if f3&0x40 != 0 {
		rec[length-5] = owner
	}
	return rec
}

func mapStream(prefix []byte, count int, rec func(i int) []byte) []byte {
	buf := append([]byte{}, prefix...)
	buf = append(buf, civbin.MapMarker...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(count))
	for i := 0; i < count; i++ {
		buf = append(buf, rec(i)...)
	}
	return buf
}

func minimal(int) []byte { return record(0, 0, 0, 0) }

// noise returns deterministic, poorly compressible bytes
func noise(n int) []byte {
	b := make([]byte, n)
	x := uint32(2463534242)
	for i := range b {
		x ^= x << 13
		x ^= x >> 17
		x ^= x << 5
		b[i] = byte(x >> 24)
	}
	return b
}

func TestDecodeMinimalDuelMap(t *testing.T) {
	stream := mapStream([]byte("header"), 1144, minimal)

	res, err := quietDecoder().Decode(buildSave(t, stream))
	require.NoError(t, err)

	assert.Equal(t, stream, res.Stream)
	assert.Equal(t, 44, res.Grid.Width)
	assert.Equal(t, 26, res.Grid.Height)
	assert.Equal(t, "Duel", res.Size.Name)
	require.Len(t, res.Grid.Tiles, 1144)
	for _, tile := range res.Grid.Tiles {
		require.Equal(t, model.ColorNeutral, tile.Color)
	}
	assert.Len(t, res.Attempts, 1)
}

func TestDecodeSkipsBlockWithoutMap(t *testing.T) {
	settings := bytes.Repeat([]byte("GAME_SPEED_STANDARD\x00"), 50)
	stream := mapStream(nil, 1144, func(i int) []byte {
		if i == 0 {
			return record(0, 0, 0x40, 7)
		}
		return minimal(i)
	})

	res, err := quietDecoder().Decode(buildSave(t, settings, stream))
	require.NoError(t, err)

	require.Len(t, res.Attempts, 2)
	assert.False(t, res.Attempts[0].HasMap)
	assert.True(t, res.Attempts[1].HasMap)
	assert.Equal(t, model.ColorRed, res.Grid.At(0, 25).Color)
}

func TestDecodeLargeFramedBlock(t *testing.T) {
	// Noise pushes the compressed block over several 64 KiB segments
	stream := mapStream(noise(200000), 6996, func(i int) []byte {
		switch i % 5 {
		case 0:
			return record(1, 1, 0x40, byte(i%3))
		case 1:
			return record(2, 0, 0, 0)
		case 2:
			return record(1, 0, 0x40, 7)
		default:
			return minimal(i)
		}
	})

	raw := buildSave(t, stream)
	blocks, err := Blocks(raw)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	require.Greater(t, blocks[0].PayloadLen(), 2*(container.SegmentSize+container.GapSize))

	res, err := quietDecoder().Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, stream, res.Stream)
	assert.Equal(t, 106, res.Grid.Width)
	assert.Equal(t, 66, res.Grid.Height)

	// Tile 0 (owner 0) sits bottom-left; tile 2 is owned by 7
	assert.Equal(t, model.ColorBlue, res.Grid.At(0, 65).Color)
	assert.Equal(t, model.ColorNeutral, res.Grid.At(1, 65).Color)
	assert.Equal(t, model.ColorRed, res.Grid.At(2, 65).Color)
	assert.Equal(t, len(res.Stream), res.Grid.End)
}

func TestDecodeTruncatedRecord(t *testing.T) {
	stream := mapStream(nil, 1144, minimal)
	stream = stream[:len(stream)-10]

	_, err := quietDecoder().Decode(buildSave(t, stream))
	assert.ErrorIs(t, err, ErrTruncatedRecord)
}

func TestDecodeUnrecognizedSize(t *testing.T) {
	stream := mapStream(nil, 1200, minimal)

	_, err := quietDecoder().Decode(buildSave(t, stream))
	assert.ErrorIs(t, err, ErrUnrecognizedMapSize)
}

func TestDecodeErrors(t *testing.T) {
	_, err := quietDecoder().Decode([]byte("CIV5 save"))
	assert.ErrorIs(t, err, ErrBadMagic)

	_, err = quietDecoder().Decode([]byte("CIV6 with nothing compressed"))
	assert.ErrorIs(t, err, ErrNoCompressedBlock)

	_, err = quietDecoder().Decode(buildSave(t, []byte("no map"), []byte("still no map")))
	assert.ErrorIs(t, err, ErrNoMapInAnyBlock)

	var e *Error
	assert.ErrorAs(t, err, &e)
	assert.Equal(t, "no_map", e.Code)
}

func TestExtractAndDecodeSeparately(t *testing.T) {
	stream := mapStream([]byte{1, 2, 3}, 2280, minimal)

	got, err := ExtractMapStream(buildSave(t, stream))
	require.NoError(t, err)
	require.Equal(t, stream, got)

	grid, err := DecodeMap(got)
	require.NoError(t, err)
	assert.Equal(t, 60, grid.Width)
	assert.Equal(t, 38, grid.Height)

	img := RenderMap(grid)
	assert.Equal(t, 60*20+20, img.Bounds().Dx())
	assert.Equal(t, 38*20+20, img.Bounds().Dy())
}

func TestDecodeWithPalette(t *testing.T) {
	stream := mapStream(nil, 1144, func(i int) []byte {
		return record(0, 0, 0x40, 3)
	})

	p := civbin.DefaultPalette()
	p.Owners[3] = model.Color{R: 1, G: 2, B: 3}
	d := NewDecoder(&Options{Palette: p, Log: quietDecoder().log})

	grid, err := d.DecodeMap(stream)
	require.NoError(t, err)
	assert.Equal(t, model.Color{R: 1, G: 2, B: 3}, grid.At(10, 10).Color)
}

func TestChunks(t *testing.T) {
	chunks, err := Chunks(buildSave(t, []byte("x")))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, model.ChunkVersion, chunks[0].Kind)
}
