package binary

import (
	"fmt"

	"github.com/dyuri/civ6map/internal/model"
	"github.com/dyuri/civ6map/internal/scan"
)

// ReadFog reads the per-tile visibility table.
//
// The table is located by the first occurrence of the map's 4-byte tile
// count at or after from, and holds one byte per tile in record order.
// A non-zero byte marks a revealed tile.
func (r *Reader) ReadFog(h *MapHeader, from int) (*model.FogGrid, error) {
	countAt := h.Offset + tileCountOffset
	count := r.data[countAt : countAt+4]

	idx := scan.IndexFrom(r.data, count, from)
	if idx < 0 {
		return nil, model.ErrNoFogTable.With("tile count %d not found after 0x%x", h.TileCount, from)
	}

	start := idx + len(count)
	if start+h.TileCount > len(r.data) {
		return nil, model.ErrTruncatedRecord.With(
			"visibility table at 0x%x needs %d bytes, stream ends at 0x%x", start, h.TileCount, len(r.data))
	}

	fog := &model.FogGrid{
		Width:    h.Width,
		Height:   h.Height,
		Offset:   start,
		Revealed: make([]bool, h.Width*h.Height),
	}
	for i := 0; i < h.TileCount; i++ {
		x, y := TileCoords(i, h.Width, h.Height)
		fog.Revealed[y*h.Width+x] = r.data[start+i] != 0
	}

	return fog, nil
}

// ParseFog reads the map header and then the visibility table
func (r *Reader) ParseFog() (*model.FogGrid, error) {
	h, err := r.ReadHeader()
	if err != nil {
		return nil, fmt.Errorf("read map header: %w", err)
	}
	return r.ReadFog(h, 0)
}
