package text

import (
	"fmt"
	"io"
	"sort"

	"github.com/dyuri/civ6map/internal/model"
)

// Writer handles writing decoded maps in text formats
type Writer struct {
	w io.Writer
}

// NewWriter creates a new text format writer
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Summary describes a decoded save for the plain-text report
type Summary struct {
	Path       string
	SizeName   string
	Grid       *model.MapGrid
	StreamSize int
}

// WriteSummary outputs map dimensions and tile ownership counts
func (w *Writer) WriteSummary(s Summary) error {
	g := s.Grid
	if _, err := fmt.Fprintf(w.w, "Map: %s\n", s.Path); err != nil {
		return err
	}
	fmt.Fprintf(w.w, "Size: %s (%dx%d, %d tiles)\n", s.SizeName, g.Width, g.Height, g.TileCount)
	fmt.Fprintf(w.w, "Map table: 0x%x-0x%x of %d byte stream\n", g.Offset, g.End, s.StreamSize)

	counts := g.OwnerCounts()
	owned := 0
	owners := make([]int, 0, len(counts))
	for o, n := range counts {
		owners = append(owners, int(o))
		owned += n
	}
	sort.Ints(owners)

	fmt.Fprintf(w.w, "Owned tiles: %d\n", owned)
	for _, o := range owners {
		fmt.Fprintf(w.w, "  owner %3d: %d\n", o, counts[uint8(o)])
	}

	return nil
}

// ownerGlyphs label owned tiles by ownership index
const ownerGlyphs = "0123456789abcdefghijklmnopqrstuvwxyz"

// WriteASCII draws the map with one character per tile.
// Unowned tiles are '.', owned tiles show their ownership index (or '*'
// beyond 35). Even rows are indented by one column like the image renderer.
func (w *Writer) WriteASCII(g *model.MapGrid) error {
	line := make([]byte, 0, g.Width*2+2)
	for y := 0; y < g.Height; y++ {
		line = line[:0]
		if y%2 == 0 {
			line = append(line, ' ')
		}
		for x := 0; x < g.Width; x++ {
			line = append(line, tileGlyph(g.At(x, y)), ' ')
		}
		line[len(line)-1] = '\n'
		if _, err := w.w.Write(line); err != nil {
			return err
		}
	}
	return nil
}

func tileGlyph(t model.Tile) byte {
	if !t.Owned {
		return '.'
	}
	if int(t.Owner) < len(ownerGlyphs) {
		return ownerGlyphs[t.Owner]
	}
	return '*'
}
