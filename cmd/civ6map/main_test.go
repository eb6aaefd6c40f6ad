package main

import (
	"os"
	"path/filepath"
	"testing"

	civbin "github.com/dyuri/civ6map/internal/binary"
	"github.com/dyuri/civ6map/internal/model"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}

	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestCountMarkers(t *testing.T) {
	var stream []byte
	if n := countMarkers(stream); n != 0 {
		t.Errorf("empty stream: got %d markers, want 0", n)
	}

	stream = append(stream, 0xAA)
	stream = append(stream, civbin.MapMarker...)
	stream = append(stream, 0xBB, 0xCC)
	stream = append(stream, civbin.MapMarker...)
	if n := countMarkers(stream); n != 2 {
		t.Errorf("got %d markers, want 2", n)
	}
}

func TestValidatorResults(t *testing.T) {
	v := newValidator(true)
	if v.hasErrors() || v.hasWarnings() {
		t.Fatal("new validator should be clean")
	}

	v.warning("owner %d", 3)
	if !v.hasWarnings() || v.hasErrors() {
		t.Error("expected one warning and no errors")
	}
	if v.warnings[0] != "owner 3" {
		t.Errorf("warning = %q, want %q", v.warnings[0], "owner 3")
	}

	v.error("bad")
	if !v.hasErrors() {
		t.Error("expected an error")
	}
}

func TestWriteTextMap(t *testing.T) {
	grid := model.NewMapGrid(2, 1)
	grid.Set(model.Tile{X: 0, Y: 0, Color: model.ColorNeutral})
	grid.Set(model.Tile{X: 1, Y: 0, Owned: true, Owner: 1, Color: model.ColorGreen})

	path := filepath.Join(t.TempDir(), "map.txt")
	if err := writeTextMap(path, grid, "ascii", false); err != nil {
		t.Fatalf("writeTextMap failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if want := " . 1\n"; string(data) != want {
		t.Errorf("output = %q, want %q", data, want)
	}
}

func TestOpenOutputReportsCloseError(t *testing.T) {
	f, closeOutput, err := openOutput(filepath.Join(t.TempDir(), "map.xpm"))
	if err != nil {
		t.Fatalf("openOutput failed: %v", err)
	}

	// A second close fails, as a failed flush on close would
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := closeOutput(); err == nil {
		t.Error("expected close error to be returned")
	}
}

func TestOpenOutputStdout(t *testing.T) {
	f, closeOutput, err := openOutput("")
	if err != nil {
		t.Fatalf("openOutput failed: %v", err)
	}
	if f != os.Stdout {
		t.Error("empty path should select stdout")
	}
	if err := closeOutput(); err != nil {
		t.Errorf("closing stdout output: %v", err)
	}
}
