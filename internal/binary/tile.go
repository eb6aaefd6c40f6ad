package binary

import "github.com/dyuri/civ6map/internal/model"

// Tile record layout. Offsets are relative to the record start.
const (
	baseRecordLen = 55

	offFlagOwned  = 49 // bit 6: record carries an ownership block
	offFlagExtA   = 51 // bit 0: 24-byte extension, bit 1: 44-byte extension
	offFlagExtB   = 75 // bit 0: 20 more bytes, only meaningful with ExtA bit 0
	ownerFromTail = 5  // ownership index position, counted back from the record end

	extA1Len  = 24
	extBLen   = 20
	extA2Len  = 44
	ownedLen  = 17
	ownedMask = 0x40
)

// TileAttrs are the attributes decoded from one tile record
type TileAttrs struct {
	Owned bool
	Owner uint8
}

// TileDecoder decodes the record starting at cursor and returns its length.
// Reading past the end of data must fail with ErrTruncatedRecord.
type TileDecoder func(data []byte, cursor int) (length int, attrs TileAttrs, err error)

// RecordLength computes a tile record length from its flag bytes:
// f1 at +51, f2 at +75 and f3 at +49.
func RecordLength(f1, f2, f3 byte) int {
	length := baseRecordLen

	if f1&1 != 0 {
		length += extA1Len
		if f2&1 != 0 {
			length += extBLen
		}
	} else if f1&2 != 0 {
		length += extA2Len
	}

	if f3&ownedMask != 0 {
		length += ownedLen
	}

	return length
}

// DecodeTile is the tile record rule used by current save versions.
// The +75 flag is only read when the +51 flag selects the extension it
// lives in, so every read stays inside the record.
func DecodeTile(data []byte, cursor int) (int, TileAttrs, error) {
	f3, err := byteAt(data, cursor, offFlagOwned)
	if err != nil {
		return 0, TileAttrs{}, err
	}
	f1, err := byteAt(data, cursor, offFlagExtA)
	if err != nil {
		return 0, TileAttrs{}, err
	}
	var f2 byte
	if f1&1 != 0 {
		if f2, err = byteAt(data, cursor, offFlagExtB); err != nil {
			return 0, TileAttrs{}, err
		}
	}

	length := RecordLength(f1, f2, f3)
	if cursor+length > len(data) {
		return 0, TileAttrs{}, model.ErrTruncatedRecord.With(
			"record at 0x%x needs %d bytes, stream ends at 0x%x", cursor, length, len(data))
	}

	var attrs TileAttrs
	if f3&ownedMask != 0 {
		attrs.Owned = true
		attrs.Owner = data[cursor+length-ownerFromTail]
	}

	return length, attrs, nil
}

func byteAt(data []byte, cursor, off int) (byte, error) {
	pos := cursor + off
	if pos < 0 || pos >= len(data) {
		return 0, model.ErrTruncatedRecord.With(
			"flag at 0x%x (record 0x%x +%d) past end of stream (0x%x)", pos, cursor, off, len(data))
	}
	return data[pos], nil
}
