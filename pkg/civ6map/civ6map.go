// Package civ6map provides functions for reading the world map out of
// Civilization VI save files.
//
// This package can be used as a library to recover the decompressed
// game-state stream, decode the tile map and rasterize it.
//
// Example usage:
//
//	raw, _ := os.ReadFile("game.Civ6Save")
//
//	stream, err := civ6map.ExtractMapStream(raw)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	grid, err := civ6map.DecodeMap(stream)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	img := civ6map.RenderMap(grid)
package civ6map

import (
	"fmt"
	"image"

	"github.com/dyuri/civ6map/internal/binary"
	"github.com/dyuri/civ6map/internal/container"
	"github.com/dyuri/civ6map/internal/inflate"
	"github.com/dyuri/civ6map/internal/model"
	"github.com/dyuri/civ6map/internal/render"
	"github.com/sirupsen/logrus"
)

// Options configures a Decoder
type Options struct {
	// Palette assigns tile colors. Nil means the default palette.
	Palette *binary.Palette

	// Log receives progress messages. Nil means the logrus standard logger.
	Log logrus.FieldLogger
}

// Decoder runs the save decoding pipeline
type Decoder struct {
	palette *binary.Palette
	log     logrus.FieldLogger
}

// NewDecoder creates a decoder. opts may be nil.
func NewDecoder(opts *Options) *Decoder {
	d := &Decoder{
		palette: binary.DefaultPalette(),
		log:     logrus.StandardLogger(),
	}
	if opts != nil {
		if opts.Palette != nil {
			d.palette = opts.Palette
		}
		if opts.Log != nil {
			d.log = opts.Log
		}
	}
	return d
}

// Result is everything decoded from one save file
type Result struct {
	Stream   []byte            // Decompressed game-state block holding the map
	Grid     *model.MapGrid    // Decoded map
	Size     binary.MapSize    // Matching map size entry
	Attempts []inflate.Attempt // Candidate blocks tried, in file order
}

// ExtractMapStream returns the decompressed game-state block that holds
// the map.
//
// Example:
//
//	raw, _ := os.ReadFile("game.Civ6Save")
//	stream, err := ExtractMapStream(raw)
func ExtractMapStream(raw []byte) ([]byte, error) {
	return NewDecoder(nil).ExtractMapStream(raw)
}

// DecodeMap decodes the map table of a decompressed stream
func DecodeMap(stream []byte) (*model.MapGrid, error) {
	return NewDecoder(nil).DecodeMap(stream)
}

// Decode runs the whole pipeline on a save file
func Decode(raw []byte) (*Result, error) {
	return NewDecoder(nil).Decode(raw)
}

// ExtractMapStream returns the decompressed game-state block that holds
// the map
func (d *Decoder) ExtractMapStream(raw []byte) ([]byte, error) {
	stream, _, err := d.extract(raw)
	return stream, err
}

func (d *Decoder) extract(raw []byte) ([]byte, []inflate.Attempt, error) {
	x := inflate.NewExtractor()
	x.Log = d.log

	stream, err := x.Extract(raw)
	if err != nil {
		return nil, x.Attempts, err
	}
	d.log.WithFields(logrus.Fields{
		"blocks": len(x.Attempts),
		"bytes":  len(stream),
	}).Debug("game-state stream extracted")

	return stream, x.Attempts, nil
}

// DecodeMap decodes the map table of a decompressed stream
func (d *Decoder) DecodeMap(stream []byte) (*model.MapGrid, error) {
	r := binary.NewReader(stream)
	r.SetPalette(d.palette)

	grid, err := r.Parse()
	if err != nil {
		return nil, err
	}
	d.log.WithFields(logrus.Fields{
		"width":  grid.Width,
		"height": grid.Height,
		"offset": grid.Offset,
		"end":    grid.End,
	}).Debug("map decoded")

	return grid, nil
}

// Decode runs the whole pipeline on a save file
func (d *Decoder) Decode(raw []byte) (*Result, error) {
	stream, attempts, err := d.extract(raw)
	if err != nil {
		return nil, fmt.Errorf("extract map stream: %w", err)
	}

	grid, err := d.DecodeMap(stream)
	if err != nil {
		return nil, fmt.Errorf("decode map: %w", err)
	}

	size, _ := binary.LookupSize(grid.TileCount)
	return &Result{
		Stream:   stream,
		Grid:     grid,
		Size:     size,
		Attempts: attempts,
	}, nil
}

// DecodeFog reads the per-tile visibility table of a decompressed stream
func DecodeFog(stream []byte) (*model.FogGrid, error) {
	return binary.NewReader(stream).ParseFog()
}

// Chunks lists the uncompressed header chunks of a save file
func Chunks(raw []byte) ([]model.Chunk, error) {
	return container.WalkChunks(raw)
}

// Blocks lists the framed compressed blocks of a save file
func Blocks(raw []byte) ([]model.Block, error) {
	if err := container.CheckMagic(raw); err != nil {
		return nil, err
	}
	return container.FindBlocks(raw), nil
}

// RenderMap rasterizes a map grid: one 20px block per tile, even rows
// shifted right by 10px
func RenderMap(grid *model.MapGrid) image.Image {
	return render.Map(grid)
}

// RenderFog rasterizes a visibility table as 20px black/white blocks
func RenderFog(fog *model.FogGrid) image.Image {
	return render.Fog(fog)
}

// Error kinds
type Error = model.Error

// Common errors
var (
	ErrBadMagic            = model.ErrBadMagic
	ErrNoCompressedBlock   = model.ErrNoCompressedBlock
	ErrNoMapInAnyBlock     = model.ErrNoMapInAnyBlock
	ErrMapNotFound         = model.ErrMapNotFound
	ErrUnrecognizedMapSize = model.ErrUnrecognizedMapSize
	ErrTruncatedRecord     = model.ErrTruncatedRecord
	ErrNoFogTable          = model.ErrNoFogTable
)
