// Package render rasterizes decoded map grids.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
	"github.com/dyuri/civ6map/internal/model"
)

// Tile block geometry. Every tile owns a BlockSize square; the colored part
// spans [blockInset, blockEnd) on both axes.
const (
	BlockSize  = 20
	blockInset = 3
	blockEnd   = 17

	// rowShift is the horizontal offset applied to every other row, which
	// approximates the hex grid
	rowShift = 10

	marginX = 5
	marginY = 10
)

// Background is the canvas color outside tile blocks
var Background = color.RGBA{0, 0, 0, 255}

// MapBounds returns the canvas size for a width x height map
func MapBounds(width, height int) image.Rectangle {
	return image.Rect(0, 0, width*BlockSize+BlockSize, height*BlockSize+BlockSize)
}

// TileOrigin returns the top-left pixel of the colored part of tile (x, y).
// Even rows are shifted right by half a block.
func TileOrigin(x, y int) image.Point {
	shift := 0
	if y%2 == 0 {
		shift = rowShift
	}
	return image.Point{
		X: x*BlockSize + blockInset + marginX + shift,
		Y: y*BlockSize + blockInset + marginY,
	}
}

// Map draws one colored block per tile
func Map(grid *model.MapGrid) *image.RGBA {
	img := image.NewRGBA(MapBounds(grid.Width, grid.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{Background}, image.Point{}, draw.Src)

	side := blockEnd - blockInset
	for _, t := range grid.Tiles {
		p := TileOrigin(t.X, t.Y)
		block := image.Rect(p.X, p.Y, p.X+side, p.Y+side)
		draw.Draw(img, block, &image.Uniform{rgba(t.Color)}, image.Point{}, draw.Src)
	}

	return img
}

// Fog draws the visibility table as full blocks: revealed white, hidden black
func Fog(fog *model.FogGrid) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fog.Width*BlockSize, fog.Height*BlockSize))

	for y := 0; y < fog.Height; y++ {
		for x := 0; x < fog.Width; x++ {
			c := color.RGBA{0, 0, 0, 255}
			if fog.Revealed[y*fog.Width+x] {
				c = color.RGBA{255, 255, 255, 255}
			}
			block := image.Rect(x*BlockSize, y*BlockSize, (x+1)*BlockSize, (y+1)*BlockSize)
			draw.Draw(img, block, &image.Uniform{c}, image.Point{}, draw.Src)
		}
	}

	return img
}

// Scale resizes img by factor with nearest-neighbor sampling so tile edges
// stay sharp. A factor of 1 returns img unchanged.
func Scale(img image.Image, factor float64) image.Image {
	if factor == 1 || factor <= 0 {
		return img
	}
	b := img.Bounds()
	w := int(float64(b.Dx()) * factor)
	h := int(float64(b.Dy()) * factor)
	if w < 1 || h < 1 {
		return img
	}
	return transform.Resize(img, w, h, transform.NearestNeighbor)
}

// EncoderFor picks an image encoder from a file name extension.
// PNG is used when the extension is unknown.
func EncoderFor(path string) imgio.Encoder {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return imgio.JPEGEncoder(95)
	case ".bmp":
		return imgio.BMPEncoder()
	default:
		return imgio.PNGEncoder()
	}
}

// Save writes img to path, encoded according to its extension
func Save(path string, img image.Image) error {
	if err := imgio.Save(path, img, EncoderFor(path)); err != nil {
		return fmt.Errorf("save image %s: %w", path, err)
	}
	return nil
}

// WritePNG encodes img as PNG to w
func WritePNG(w io.Writer, img image.Image) error {
	return imgio.PNGEncoder()(w, img)
}

func rgba(c model.Color) color.RGBA {
	return color.RGBA{c.R, c.G, c.B, 255}
}
