package text

import (
	"fmt"
	"io"

	"github.com/dyuri/civ6map/internal/model"
)

// xpmChars are the single-character pixel codes: printable ASCII without
// space, quote and backslash
const xpmChars = "!#$%&'()*+,-./0123456789:;<=>?@ABCDEFGHIJKLMNOPQRSTUVWXYZ[]^_`abcdefghijklmnopqrstuvwxyz{|}~"

// xpmImage is an indexed image ready for XPM encoding
type xpmImage struct {
	width   int
	height  int
	palette []model.Color
	data    []int // palette index per pixel, -1 for transparent
}

// newXPMImage indexes the grid colors, one pixel per tile. With hex set,
// every tile is two pixels wide and even rows are shifted right by one
// pixel; uncovered pixels are transparent.
func newXPMImage(g *model.MapGrid, hex bool) *xpmImage {
	img := &xpmImage{width: g.Width, height: g.Height}
	if hex {
		img.width = g.Width*2 + 1
	}
	img.data = make([]int, img.width*img.height)
	for i := range img.data {
		img.data[i] = -1
	}

	index := make(map[model.Color]int)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			c := g.At(x, y).Color
			idx, ok := index[c]
			if !ok {
				idx = len(img.palette)
				index[c] = idx
				img.palette = append(img.palette, c)
			}

			if !hex {
				img.data[y*img.width+x] = idx
				continue
			}
			px := x * 2
			if y%2 == 0 {
				px++
			}
			img.data[y*img.width+px] = idx
			img.data[y*img.width+px+1] = idx
		}
	}

	return img
}

// WriteXPM writes the map as an XPM image named name
func (w *Writer) WriteXPM(g *model.MapGrid, name string, hex bool) error {
	img := newXPMImage(g, hex)

	codes, err := xpmCodes(len(img.palette) + 1)
	if err != nil {
		return err
	}
	transparent := codes[len(img.palette)]

	ew := &errWriter{w: w.w}
	ew.printf("/* XPM */\nstatic char *%s[] = {\n", name)
	ew.printf("\"%d %d %d %d\",\n", img.width, img.height, len(codes), len(codes[0]))
	for i, c := range img.palette {
		ew.printf("\"%s c %s\",\n", codes[i], c.Hex())
	}
	ew.printf("\"%s c None\",\n", transparent)

	for y := 0; y < img.height && ew.err == nil; y++ {
		ew.printf("\"")
		for x := 0; x < img.width; x++ {
			idx := img.data[y*img.width+x]
			if idx < 0 {
				ew.printf("%s", transparent)
			} else {
				ew.printf("%s", codes[idx])
			}
		}
		sep := ","
		if y == img.height-1 {
			sep = ""
		}
		ew.printf("\"%s\n", sep)
	}

	ew.printf("};\n")
	return ew.err
}

// errWriter keeps the first write error and skips every later write
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

// xpmCodes returns n pixel codes, switching to two characters per pixel
// when a single character is not enough
func xpmCodes(n int) ([]string, error) {
	if n <= len(xpmChars) {
		codes := make([]string, n)
		for i := range codes {
			codes[i] = xpmChars[i : i+1]
		}
		return codes, nil
	}

	if n > len(xpmChars)*len(xpmChars) {
		return nil, fmt.Errorf("too many colors for XPM encoding: %d", n)
	}
	codes := make([]string, 0, n)
	for _, c1 := range []byte(xpmChars) {
		for _, c2 := range []byte(xpmChars) {
			codes = append(codes, string([]byte{c1, c2}))
			if len(codes) == n {
				return codes, nil
			}
		}
	}
	return codes, nil
}
