package format

import (
	"encoding/binary"
	"fmt"

	"github.com/posdb/chessposdb/internal/key"
)

// smearRecordCount is how many 20-byte physical records db_delta_smeared
// splits one logical entry across: count (64-bit), total Elo (64-bit),
// and the first/last game index pair (spec §3, "64-bit total Elo,
// 64-bit count via smeared entries").
const smearRecordCount = 3

// smearIsFirstBit reuses Word2's leftover bit (the one that, for
// non-reverse-move formats, extends the hash — see internal/key) as
// the "is-first" flag spec §3 describes: db_delta_smeared always has a
// reverse move, so that bit is never needed for hash extension here.
const smearIsFirstBit = uint32(1) << 31

// MarshalSmeared serializes e as smearRecordCount physical records of
// f.EntrySize bytes each, all sharing e.Key, distinguished by the
// "is-first" flag on the first record (spec §3).
func MarshalSmeared(f *Format, e Entry) ([][]byte, error) {
	if !f.Smeared {
		return nil, fmt.Errorf("format: %s is not smeared", f.Key)
	}

	records := make([][]byte, smearRecordCount)
	payloads := [smearRecordCount]uint64{
		e.Count,
		uint64(e.EloDiff),
		uint64(uint32(e.FirstRef))<<32 | uint64(uint32(e.LastRef)),
	}

	for i := 0; i < smearRecordCount; i++ {
		buf := make([]byte, f.EntrySize)
		binary.NativeEndian.PutUint64(buf[0:8], e.Key.Hash)

		word2 := e.Key.Word2 &^ smearIsFirstBit
		if i == 0 {
			word2 |= smearIsFirstBit
		}
		binary.NativeEndian.PutUint32(buf[8:12], word2)
		binary.NativeEndian.PutUint64(buf[12:20], payloads[i])

		records[i] = buf
	}
	return records, nil
}

// UnmarshalSmearedPartial decodes just the key from a single smeared
// physical record, masking out the is-first flag so every record of
// one logical entry's sequence compares equal — this is what
// equal_range's bracketing search needs, without reading the other two
// records of the sequence.
func UnmarshalSmearedPartial(f *Format, record []byte) (key.Key, error) {
	if !f.Smeared {
		return key.Key{}, fmt.Errorf("format: %s is not smeared", f.Key)
	}
	hash := binary.NativeEndian.Uint64(record[0:8])
	word2 := binary.NativeEndian.Uint32(record[8:12]) &^ smearIsFirstBit
	return key.Key{Hash: hash, Word2: word2}, nil
}

// IsFirstSmearRecord reports whether a raw physical record (already
// known to belong to a smeared format) is the first record of its
// logical entry's sequence.
func IsFirstSmearRecord(buf []byte) bool {
	word2 := binary.NativeEndian.Uint32(buf[8:12])
	return word2&smearIsFirstBit != 0
}

// UnmarshalSmeared reconstructs one logical entry from exactly
// smearRecordCount consecutive physical records sharing a key (spec
// §3, "reading consecutive physical entries with matching key until
// is-first toggles").
func UnmarshalSmeared(f *Format, records [][]byte) (Entry, error) {
	if !f.Smeared {
		return Entry{}, fmt.Errorf("format: %s is not smeared", f.Key)
	}
	if len(records) != smearRecordCount {
		return Entry{}, fmt.Errorf("format: %s needs %d smeared records, got %d", f.Key, smearRecordCount, len(records))
	}

	hash := binary.NativeEndian.Uint64(records[0][0:8])
	word2 := binary.NativeEndian.Uint32(records[0][8:12]) &^ smearIsFirstBit

	for i, rec := range records {
		if binary.NativeEndian.Uint64(rec[0:8]) != hash {
			return Entry{}, fmt.Errorf("format: smeared record %d has mismatched hash", i)
		}
	}

	count := binary.NativeEndian.Uint64(records[0][12:20])
	eloDiff := int64(binary.NativeEndian.Uint64(records[1][12:20]))
	refsPacked := binary.NativeEndian.Uint64(records[2][12:20])

	return Entry{
		Key:         key.Key{Hash: hash, Word2: word2},
		Count:       count,
		HasEloDiff:  true,
		EloDiff:     eloDiff,
		HasFirstRef: true,
		FirstRef:    uint64(uint32(refsPacked >> 32)),
		HasLastRef:  true,
		LastRef:     uint64(uint32(refsPacked)),
	}, nil
}
