package model

import "fmt"

// MapGrid is the decoded world map in a format-agnostic way.
// Tiles are stored in image order: row 0 is the top row of the rendered map.
type MapGrid struct {
	Width     int    // Tiles per row
	Height    int    // Number of rows
	TileCount int    // Tile count as stored in the map header
	Offset    int    // Offset of the map marker in the decompressed stream
	End       int    // Offset just past the last tile record
	Tiles     []Tile // Width*Height tiles, indexed by y*Width+x
}

// Tile holds the visual attributes decoded from one tile record
type Tile struct {
	Index  int   // Position in the stream (record order)
	X      int   // Column in image space
	Y      int   // Row in image space (0 = top)
	Length int   // Record length in bytes
	Owned  bool  // Ownership flag (bit 6 of the +49 flag byte)
	Owner  uint8 // Ownership/civilization index, valid when Owned
	Color  Color // Display color
}

// NewMapGrid creates an empty grid with room for width*height tiles
func NewMapGrid(width, height int) *MapGrid {
	return &MapGrid{
		Width:     width,
		Height:    height,
		TileCount: width * height,
		Tiles:     make([]Tile, width*height),
	}
}

// At returns the tile at image coordinates (x, y)
func (g *MapGrid) At(x, y int) Tile {
	return g.Tiles[y*g.Width+x]
}

// Set stores a tile at its own image coordinates
func (g *MapGrid) Set(t Tile) {
	g.Tiles[t.Y*g.Width+t.X] = t
}

// OwnerCounts returns the number of owned tiles per ownership index
func (g *MapGrid) OwnerCounts() map[uint8]int {
	counts := make(map[uint8]int)
	for _, t := range g.Tiles {
		if t.Owned {
			counts[t.Owner]++
		}
	}
	return counts
}

// Color represents an RGB color
type Color struct {
	R byte // Red (0-255)
	G byte // Green (0-255)
	B byte // Blue (0-255)
}

// Hex returns the color as #rrggbb
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseHexColor parses #rrggbb (the leading # is optional)
func ParseHexColor(s string) (Color, error) {
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	if len(s) != 6 {
		return Color{}, fmt.Errorf("invalid color %q: want #rrggbb", s)
	}
	var c Color
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return c, nil
}

// Standard map colors
var (
	ColorNeutral = Color{128, 128, 128} // Unowned tile
	ColorRed     = Color{255, 0, 0}
	ColorBlue    = Color{0, 0, 255}
	ColorGreen   = Color{0, 255, 0}
	ColorWhite   = Color{255, 255, 255}
)

// FogGrid holds per-tile visibility, in the same image order as MapGrid
type FogGrid struct {
	Width    int
	Height   int
	Offset   int    // Offset of the visibility table in the decompressed stream
	Revealed []bool // Width*Height entries, indexed by y*Width+x
}

// Block is a framed compressed block located in a save container
type Block struct {
	Start int // Offset of the 6-byte start marker
	Stop  int // Offset of the 4-byte stop marker
}

// PayloadLen returns the length of the framed payload range [Start+4, Stop+4)
func (b Block) PayloadLen() int {
	return b.Stop - b.Start
}

// ChunkKind classifies a header chunk of a save container
type ChunkKind int

const (
	ChunkVersion ChunkKind = iota // 0x20 tagged blob
	ChunkPair                     // 0x02 tagged fixed-size entry
	ChunkNamed                    // NUL-terminated title followed by data words
)

func (k ChunkKind) String() string {
	switch k {
	case ChunkVersion:
		return "version"
	case ChunkPair:
		return "pair"
	case ChunkNamed:
		return "named"
	}
	return "unknown"
}

// Chunk is one entry of the uncompressed header that precedes the game state
type Chunk struct {
	Offset int       // Offset of the chunk tag in the container
	Kind   ChunkKind // Chunk classification
	Title  string    // Decoded title for named chunks
	Data   []byte    // Raw chunk payload
}
