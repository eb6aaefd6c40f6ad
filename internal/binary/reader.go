package binary

import (
	"encoding/binary"
	"fmt"

	"github.com/dyuri/civ6map/internal/model"
	"github.com/dyuri/civ6map/internal/scan"
)

// MapMarker precedes the tile-count field of the map table
var MapMarker = []byte{
	0x0E, 0x00, 0x00, 0x00,
	0x0F, 0x00, 0x00, 0x00,
	0x06, 0x00, 0x00, 0x00,
}

const (
	// tileCountOffset is the position of the tile count relative to the marker
	tileCountOffset = 12

	// mapHeaderLen is the marker plus the tile count; records follow it
	mapHeaderLen = 16
)

// Reader decodes the map table of a decompressed game-state stream
type Reader struct {
	data       []byte
	endian     binary.ByteOrder // Civ VI uses little-endian
	palette    *Palette
	decodeTile TileDecoder
}

// NewReader creates a map reader over a decompressed stream
func NewReader(data []byte) *Reader {
	return &Reader{
		data:       data,
		endian:     binary.LittleEndian,
		palette:    DefaultPalette(),
		decodeTile: DecodeTile,
	}
}

// SetPalette replaces the colors assigned to tiles
func (r *Reader) SetPalette(p *Palette) {
	if p != nil {
		r.palette = p
	}
}

// SetTileDecoder replaces the tile record rule, for format variants
func (r *Reader) SetTileDecoder(d TileDecoder) {
	if d != nil {
		r.decodeTile = d
	}
}

// MapHeader describes the map table found in the stream
type MapHeader struct {
	Offset    int // Offset of the map marker
	TileCount int // Tile count as stored
	Width     int // Tiles per row
	Height    int // Number of rows
}

// RecordsOffset returns where the first tile record starts
func (h *MapHeader) RecordsOffset() int {
	return h.Offset + mapHeaderLen
}

// ReadHeader locates the map table and reads its dimensions.
// The marker can also appear earlier in the stream by chance; the real map
// table is always the last occurrence.
func (r *Reader) ReadHeader() (*MapHeader, error) {
	off := scan.LastIndex(r.data, MapMarker)
	if off < 0 {
		return nil, model.ErrMapNotFound.With("searched %d bytes", len(r.data))
	}

	countAt := off + tileCountOffset
	if countAt+4 > len(r.data) {
		return nil, model.ErrTruncatedRecord.With("tile count at 0x%x past end of stream (0x%x)", countAt, len(r.data))
	}
	count := int(r.endian.Uint32(r.data[countAt : countAt+4]))

	width, height, err := TilesToDimensions(count)
	if err != nil {
		return nil, err
	}

	return &MapHeader{
		Offset:    off,
		TileCount: count,
		Width:     width,
		Height:    height,
	}, nil
}

// Parse reads the whole map table and returns the tile grid
func (r *Reader) Parse() (*model.MapGrid, error) {
	h, err := r.ReadHeader()
	if err != nil {
		return nil, fmt.Errorf("read map header: %w", err)
	}

	grid := model.NewMapGrid(h.Width, h.Height)
	grid.Offset = h.Offset
	grid.TileCount = h.TileCount

	cursor := h.RecordsOffset()
	for i := 0; i < h.TileCount; i++ {
		length, attrs, err := r.decodeTile(r.data, cursor)
		if err != nil {
			return nil, fmt.Errorf("read tile %d: %w", i, err)
		}
		if length <= 0 {
			return nil, fmt.Errorf("read tile %d: invalid record length %d", i, length)
		}

		x, y := TileCoords(i, h.Width, h.Height)
		grid.Set(model.Tile{
			Index:  i,
			X:      x,
			Y:      y,
			Length: length,
			Owned:  attrs.Owned,
			Owner:  attrs.Owner,
			Color:  r.palette.TileColor(attrs),
		})

		cursor += length
	}
	grid.End = cursor

	return grid, nil
}

// TileCoords maps a record index to image coordinates.
// Rows are stored bottom to top.
func TileCoords(index, width, height int) (x, y int) {
	return index % width, height - index/width - 1
}
