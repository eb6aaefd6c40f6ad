package binary

import "github.com/dyuri/civ6map/internal/model"

// Palette assigns display colors to tiles
type Palette struct {
	Owners  map[uint8]model.Color // Colors for known ownership indexes
	Other   model.Color           // Owned by any other index
	Neutral model.Color           // Not owned
}

// DefaultPalette returns the stock colors: player 0 blue, player 1 green,
// index 7 red, any other owner white and unowned tiles gray.
//
// Only indexes 0, 1 and 7 have been identified; whether every other index
// should share one color across game versions is unconfirmed.
func DefaultPalette() *Palette {
	return &Palette{
		Owners: map[uint8]model.Color{
			0: model.ColorBlue,
			1: model.ColorGreen,
			7: model.ColorRed,
		},
		Other:   model.ColorWhite,
		Neutral: model.ColorNeutral,
	}
}

// OwnerColor returns the color for an ownership index
func (p *Palette) OwnerColor(owner uint8) model.Color {
	if c, ok := p.Owners[owner]; ok {
		return c
	}
	return p.Other
}

// TileColor returns the color for decoded tile attributes
func (p *Palette) TileColor(a TileAttrs) model.Color {
	if !a.Owned {
		return p.Neutral
	}
	return p.OwnerColor(a.Owner)
}

// OwnerColor returns the default palette color for an ownership index
func OwnerColor(owner uint8) model.Color {
	return DefaultPalette().OwnerColor(owner)
}
