package format

import (
	"encoding/binary"
	"fmt"

	"github.com/posdb/chessposdb/internal/key"
)

// Entry is the position-database's central record (spec §3). Not
// every field is meaningful for every format — Format.Capabilities
// says which ones a given on-disk schema actually carries.
type Entry struct {
	Key key.Key

	Count uint64

	HasEloDiff bool
	EloDiff    int64

	HasFirstRef bool
	FirstRef    uint64

	HasLastRef bool
	LastRef    uint64
}

// Combine merges two full-equal entries' statistics into one (spec
// §3/§4.1, "a combine(other) that merges stats into the earlier record
// (sums count and eloDiff; min/max game-ref)"). The receiver is treated
// as the earlier record.
func (e Entry) Combine(other Entry) Entry {
	result := e
	result.Count += other.Count

	if e.HasEloDiff || other.HasEloDiff {
		result.HasEloDiff = true
		result.EloDiff = e.EloDiff + other.EloDiff
	}

	if e.HasFirstRef || other.HasFirstRef {
		result.HasFirstRef = true
		result.FirstRef = minRef(e.FirstRef, other.FirstRef, e.HasFirstRef, other.HasFirstRef)
	}
	if e.HasLastRef || other.HasLastRef {
		result.HasLastRef = true
		result.LastRef = maxRef(e.LastRef, other.LastRef, e.HasLastRef, other.HasLastRef)
	}

	return result
}

func minRef(a, b uint64, aok, bok bool) uint64 {
	switch {
	case aok && bok:
		if a < b {
			return a
		}
		return b
	case aok:
		return a
	default:
		return b
	}
}

func maxRef(a, b uint64, aok, bok bool) uint64 {
	switch {
	case aok && bok:
		if a > b {
			return a
		}
		return b
	case aok:
		return a
	default:
		return b
	}
}

// Marshal serializes e as one non-smeared physical record of
// f.EntrySize bytes. Smeared formats (db_delta_smeared) use
// MarshalSmeared instead.
func (e Entry) Marshal(f *Format) ([]byte, error) {
	if f.Smeared {
		return nil, fmt.Errorf("format: %s entries are smeared, use MarshalSmeared", f.Key)
	}

	buf := make([]byte, f.EntrySize)
	offset := 0

	binary.NativeEndian.PutUint64(buf[offset:], e.Key.Hash)
	offset += 8

	if f.Capabilities.HasReverseMove {
		binary.NativeEndian.PutUint32(buf[offset:], e.Key.Word2)
		offset += 4
	}

	switch {
	case f.Key == Beta.Key:
		// Beta shares one 64-bit slot between count and the packed
		// first-game offset (spec §3, "packed count/game-reference").
		ref, hasRef := e.FirstRef, e.HasFirstRef
		slot := NewPackedCountRef(e.Count, ref, hasRef)
		binary.NativeEndian.PutUint64(buf[offset:], slot.Encode())
		offset += 8
	case f.PartitionedByLevelResult:
		// db_alpha: plain fixed-width fields, no shared slot.
		binary.NativeEndian.PutUint32(buf[offset:], uint32(e.Count))
		offset += 4
		binary.NativeEndian.PutUint32(buf[offset:], uint32(e.FirstRef))
		offset += 4
		binary.NativeEndian.PutUint32(buf[offset:], uint32(e.LastRef))
		offset += 4
	case f.Key == Delta.Key:
		binary.NativeEndian.PutUint32(buf[offset:], uint32(e.Count))
		offset += 4
		binary.NativeEndian.PutUint32(buf[offset:], uint32(e.FirstRef))
		offset += 4
		binary.NativeEndian.PutUint32(buf[offset:], uint32(e.LastRef))
		offset += 4
		binary.NativeEndian.PutUint64(buf[offset:], uint64(e.EloDiff))
		offset += 8
	default:
		// db_epsilon: count only.
		binary.NativeEndian.PutUint64(buf[offset:], e.Count)
		offset += 8
	}

	if offset != f.EntrySize {
		return nil, fmt.Errorf("format: %s marshaled %d bytes, want %d", f.Key, offset, f.EntrySize)
	}
	return buf, nil
}

// Unmarshal parses one non-smeared physical record of f.EntrySize
// bytes back into an Entry.
func Unmarshal(f *Format, buf []byte) (Entry, error) {
	if f.Smeared {
		return Entry{}, fmt.Errorf("format: %s entries are smeared, use UnmarshalSmeared", f.Key)
	}
	if len(buf) != f.EntrySize {
		return Entry{}, fmt.Errorf("format: %s entry is %d bytes, want %d", f.Key, len(buf), f.EntrySize)
	}

	var e Entry
	offset := 0

	hash := binary.NativeEndian.Uint64(buf[offset:])
	offset += 8

	var word2 uint32
	if f.Capabilities.HasReverseMove {
		word2 = binary.NativeEndian.Uint32(buf[offset:])
		offset += 4
	}
	e.Key = key.Key{Hash: hash, Word2: word2}

	switch {
	case f.Key == Beta.Key:
		raw := binary.NativeEndian.Uint64(buf[offset:])
		offset += 8
		slot := DecodePackedCountRef(raw, f.FirstGameRefKind != GameRefNone)
		e.Count = slot.Count()
		if ref, ok := slot.Ref(); ok {
			e.FirstRef, e.HasFirstRef = ref, true
		}
	case f.PartitionedByLevelResult:
		e.Count = uint64(binary.NativeEndian.Uint32(buf[offset:]))
		offset += 4
		e.FirstRef = uint64(binary.NativeEndian.Uint32(buf[offset:]))
		e.HasFirstRef = f.FirstGameRefKind != GameRefNone
		offset += 4
		e.LastRef = uint64(binary.NativeEndian.Uint32(buf[offset:]))
		e.HasLastRef = f.LastGameRefKind != GameRefNone
		offset += 4
	case f.Key == Delta.Key:
		e.Count = uint64(binary.NativeEndian.Uint32(buf[offset:]))
		offset += 4
		e.FirstRef = uint64(binary.NativeEndian.Uint32(buf[offset:]))
		e.HasFirstRef = true
		offset += 4
		e.LastRef = uint64(binary.NativeEndian.Uint32(buf[offset:]))
		e.HasLastRef = true
		offset += 4
		e.EloDiff = int64(binary.NativeEndian.Uint64(buf[offset:]))
		e.HasEloDiff = true
		offset += 8
	default:
		e.Count = binary.NativeEndian.Uint64(buf[offset:])
		offset += 8
	}

	return e, nil
}
