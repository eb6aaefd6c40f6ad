package inflate

import (
	"bytes"

	"github.com/dyuri/civ6map/internal/binary"
	"github.com/dyuri/civ6map/internal/container"
	"github.com/dyuri/civ6map/internal/model"
	"github.com/sirupsen/logrus"
)

type state int

const (
	stateSearching state = iota
	stateDecompressing
	stateVerifying
	stateFound
	stateExhausted
)

// Attempt records what happened to one candidate block
type Attempt struct {
	Block    model.Block
	Inflated int   // Decoded bytes
	Consumed int   // Compressed bytes consumed
	Err      error // Non-fatal step error, if any
	HasMap   bool  // Whether the decoded bytes contain the map marker
}

// Extractor runs the scan/inflate/verify loop over a save container until a
// block containing a map is found.
type Extractor struct {
	// Inflate decodes one de-framed block. Defaults to the package Inflate.
	Inflate func([]byte) (Result, error)

	// Verify reports whether decoded bytes hold a map. Defaults to a search
	// for the map marker.
	Verify func([]byte) bool

	// Log receives per-block progress. Defaults to the logrus standard logger.
	Log logrus.FieldLogger

	// Attempts lists the candidate blocks tried by the last Run, in order
	Attempts []Attempt
}

// NewExtractor creates an extractor with the default steps
func NewExtractor() *Extractor {
	return &Extractor{
		Inflate: Inflate,
		Verify:  ContainsMap,
		Log:     logrus.StandardLogger(),
	}
}

// ContainsMap reports whether data holds the map marker
func ContainsMap(data []byte) bool {
	return bytes.Contains(data, binary.MapMarker)
}

// Extract checks the container signature and returns the first decompressed
// block that contains a map
func Extract(raw []byte) ([]byte, error) {
	return NewExtractor().Extract(raw)
}

// Extract checks the container signature and runs the extraction loop
func (x *Extractor) Extract(raw []byte) ([]byte, error) {
	if err := container.CheckMagic(raw); err != nil {
		return nil, err
	}
	return x.Run(raw)
}

// Run walks the candidate blocks of raw without checking its signature.
//
// Blocks that fail to decompress, or decompress without a map, are skipped.
// The loop ends with ErrNoCompressedBlock when raw has no block at all and
// with ErrNoMapInAnyBlock when every block was rejected.
func (x *Extractor) Run(raw []byte) ([]byte, error) {
	x.defaults()
	x.Attempts = x.Attempts[:0]

	var (
		st      = stateSearching
		from    int
		block   model.Block
		payload []byte
		res     Result
		stepErr error
	)

	for {
		switch st {
		case stateSearching:
			b, ok := container.FindBlock(raw, from)
			if !ok {
				st = stateExhausted
				continue
			}
			block = b
			payload = container.Deframe(raw, b)
			st = stateDecompressing

		case stateDecompressing:
			res, stepErr = x.Inflate(payload)
			st = stateVerifying

		case stateVerifying:
			attempt := Attempt{
				Block:    block,
				Inflated: len(res.Data),
				Consumed: res.Consumed,
				Err:      stepErr,
				HasMap:   x.Verify(res.Data),
			}
			x.Attempts = append(x.Attempts, attempt)

			entry := x.Log.WithFields(logrus.Fields{
				"offset":   block.Start,
				"stop":     block.Stop,
				"payload":  len(payload),
				"consumed": res.Consumed,
				"inflated": len(res.Data),
			})
			if stepErr != nil {
				entry = entry.WithError(stepErr)
			}

			if attempt.HasMap {
				entry.Debug("map found in compressed block")
				st = stateFound
				continue
			}
			entry.Debug("compressed block has no map, skipping")
			from = block.Stop
			st = stateSearching

		case stateFound:
			return res.Data, nil

		case stateExhausted:
			if len(x.Attempts) == 0 {
				return nil, model.ErrNoCompressedBlock.With("no start/stop marker pair in %d bytes", len(raw))
			}
			return nil, model.ErrNoMapInAnyBlock.With("%d candidate block(s) tried", len(x.Attempts))
		}
	}
}

func (x *Extractor) defaults() {
	if x.Inflate == nil {
		x.Inflate = Inflate
	}
	if x.Verify == nil {
		x.Verify = ContainsMap
	}
	if x.Log == nil {
		x.Log = logrus.StandardLogger()
	}
}
