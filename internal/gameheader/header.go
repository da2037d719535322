// Package gameheader implements the append-only game header store
// (spec §4.7's "header resolution", original_source's
// IndexedGameHeaderStorage/PackedGameHeader): a byte-appended blob of
// encoded game metadata plus a parallel index of the byte offset each
// record starts at, so a query result's game index can be turned back
// into an Event/White/Black/Result/Date/Eco/PlyCount record in O(1).
//
// Rather than PackedGameHeader's fixed 768-byte packed-string slots —
// a C++ trick to keep the record trivially copyable and in-place
// mutable — records here are length-prefixed and purely append-only,
// since nothing in this system ever mutates a header after writing it.
package gameheader

import (
	"encoding/binary"
	"fmt"

	"github.com/posdb/chessposdb/internal/enums"
)

// UnknownPlyCount is the sentinel meaning "ply count not recorded",
// matching PackedGameHeader::unknownPlyCount.
const UnknownPlyCount uint16 = 0xFFFF

// Header is one game's header record.
type Header struct {
	GameIndex uint64
	Result    enums.Result
	Date      string // free-form PGN date, e.g. "1992.11.04" or "1992.??.??"
	Eco       string // e.g. "C60"
	PlyCount  uint16 // UnknownPlyCount if not recorded
	Event     string
	White     string
	Black     string
}

// Location is where addGame placed a header: the byte offset it
// starts at in the header blob, and the index (game id) it was
// assigned.
type Location struct {
	Offset uint64
	Index  uint64
}

func encode(h Header) []byte {
	buf := make([]byte, 0, 64+len(h.Event)+len(h.White)+len(h.Black))
	var tmp [8]byte

	binary.LittleEndian.PutUint64(tmp[:], h.GameIndex)
	buf = append(buf, tmp[:]...)
	buf = append(buf, byte(h.Result))
	binary.LittleEndian.PutUint16(tmp[:2], h.PlyCount)
	buf = append(buf, tmp[:2]...)
	buf = appendShortString(buf, h.Date)
	buf = appendShortString(buf, h.Eco)
	buf = appendLongString(buf, h.Event)
	buf = appendLongString(buf, h.White)
	buf = appendLongString(buf, h.Black)
	return buf
}

func decode(b []byte) (Header, int, error) {
	var h Header
	if len(b) < 11 {
		return h, 0, fmt.Errorf("gameheader: record truncated")
	}
	h.GameIndex = binary.LittleEndian.Uint64(b[0:8])
	h.Result = enums.Result(b[8])
	h.PlyCount = binary.LittleEndian.Uint16(b[9:11])
	off := 11

	var err error
	var n int
	if h.Date, n, err = readShortString(b[off:]); err != nil {
		return h, 0, err
	}
	off += n
	if h.Eco, n, err = readShortString(b[off:]); err != nil {
		return h, 0, err
	}
	off += n
	if h.Event, n, err = readLongString(b[off:]); err != nil {
		return h, 0, err
	}
	off += n
	if h.White, n, err = readLongString(b[off:]); err != nil {
		return h, 0, err
	}
	off += n
	if h.Black, n, err = readLongString(b[off:]); err != nil {
		return h, 0, err
	}
	off += n

	return h, off, nil
}

func appendShortString(buf []byte, s string) []byte {
	if len(s) > 255 {
		s = s[:255]
	}
	buf = append(buf, byte(len(s)))
	return append(buf, s...)
}

func readShortString(b []byte) (string, int, error) {
	if len(b) < 1 {
		return "", 0, fmt.Errorf("gameheader: truncated short string length")
	}
	n := int(b[0])
	if len(b) < 1+n {
		return "", 0, fmt.Errorf("gameheader: truncated short string body")
	}
	return string(b[1 : 1+n]), 1 + n, nil
}

func appendLongString(buf []byte, s string) []byte {
	if len(s) > 65535 {
		s = s[:65535]
	}
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], uint16(len(s)))
	buf = append(buf, tmp[:]...)
	return append(buf, s...)
}

func readLongString(b []byte) (string, int, error) {
	if len(b) < 2 {
		return "", 0, fmt.Errorf("gameheader: truncated long string length")
	}
	n := int(binary.LittleEndian.Uint16(b[0:2]))
	if len(b) < 2+n {
		return "", 0, fmt.Errorf("gameheader: truncated long string body")
	}
	return string(b[2 : 2+n]), 2 + n, nil
}
