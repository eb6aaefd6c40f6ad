package binary

import "github.com/dyuri/civ6map/internal/model"

// MapSize is one supported map size
type MapSize struct {
	Name   string
	Tiles  int
	Width  int
	Height int
}

// MapSizes lists every map size the game ships with, smallest first
var MapSizes = []MapSize{
	{"Duel", 1144, 44, 26},
	{"Tiny", 2280, 60, 38},
	{"Small", 3404, 74, 46},
	{"Standard", 4536, 84, 54},
	{"Large", 5760, 96, 60},
	{"Huge", 6996, 106, 66},
}

// TilesToDimensions returns the map width and height for a tile count.
// Counts outside MapSizes fail with ErrUnrecognizedMapSize.
func TilesToDimensions(tiles int) (width, height int, err error) {
	s, ok := LookupSize(tiles)
	if !ok {
		return 0, 0, model.ErrUnrecognizedMapSize.With("%d tiles", tiles)
	}
	return s.Width, s.Height, nil
}

// LookupSize returns the MapSizes entry for a tile count
func LookupSize(tiles int) (MapSize, bool) {
	for _, s := range MapSizes {
		if s.Tiles == tiles {
			return s, true
		}
	}
	return MapSize{}, false
}
