package format

// PackedCountRef is the packed count/game-reference slot of spec §3:
// "a 6-bit length prefix gives the number of bits used for count; the
// remainder holds the offset; if count grows to consume all bits, the
// offset becomes the sentinel 'invalid'." It shares one 64-bit slot
// between a position's hit count and a reference (index or byte
// offset) into one game that produced it.
type PackedCountRef struct {
	// countBits is how many of the 58 payload bits are allocated to
	// Count; the remaining 58-countBits bits hold Ref.
	countBits uint8
	count     uint64
	ref       uint64
	refValid  bool
}

const (
	packedLengthPrefixBits = 6
	packedPayloadBits      = 64 - packedLengthPrefixBits
)

// NewPackedCountRef builds a slot holding count and, if it fits
// alongside count in the 58 payload bits, ref.
func NewPackedCountRef(count uint64, ref uint64, hasRef bool) PackedCountRef {
	p := PackedCountRef{count: count}
	p.countBits = bitsNeeded(count)
	if p.countBits > packedPayloadBits {
		p.countBits = packedPayloadBits
	}
	if hasRef {
		p.setRef(ref)
	}
	return p
}

func bitsNeeded(v uint64) uint8 {
	var n uint8
	for v > 0 {
		n++
		v >>= 1
	}
	return n
}

// setRef stores ref if there is room for it beside the current count
// width; otherwise the offset becomes invalid, per spec.
func (p *PackedCountRef) setRef(ref uint64) {
	remaining := packedPayloadBits - p.countBits
	if remaining == 0 || bitsNeeded(ref) > remaining {
		p.refValid = false
		p.ref = 0
		return
	}
	p.ref = ref
	p.refValid = true
}

// Count returns the slot's count.
func (p PackedCountRef) Count() uint64 { return p.count }

// Ref returns the slot's reference and whether it is valid (spec §3,
// "the offset becomes the sentinel 'invalid'" once count consumes all
// bits).
func (p PackedCountRef) Ref() (uint64, bool) { return p.ref, p.refValid }

// refAggregate picks which of two refs survives a combine: keepMin
// selects the smaller (used for a first-game reference, "oldest
// wins"); !keepMin selects the larger (used for a last-game
// reference, "newest wins") — spec §3, "combining two such values
// takes the element-wise max offset (oldest wins for first, newest for
// last)".
func refAggregate(a, b uint64, aValid, bValid, keepMin bool) (uint64, bool) {
	switch {
	case aValid && bValid:
		if keepMin == (a < b) {
			return a, true
		}
		return b, true
	case aValid:
		return a, true
	case bValid:
		return b, true
	default:
		return 0, false
	}
}

// Combine merges two packed slots the way a run merge or query
// attribution combine does: counts sum (spec §3, "sums count"), and if
// the new total needs more bits than the payload allows, the
// reference is dropped ("when sums overflow the current bit width, the
// offset is dropped"). keepMin selects first-game vs. last-game
// aggregation semantics.
func (p PackedCountRef) Combine(other PackedCountRef, keepMin bool) PackedCountRef {
	total := p.count + other.count
	ref, valid := refAggregate(p.ref, other.ref, p.refValid, other.refValid, keepMin)

	result := PackedCountRef{count: total}
	result.countBits = bitsNeeded(total)
	if result.countBits > packedPayloadBits {
		result.countBits = packedPayloadBits
	}
	if valid {
		result.setRef(ref)
	}
	return result
}

// Encode packs the slot into its on-disk 64-bit representation: the
// top 6 bits hold countBits, the next countBits bits hold Count, and
// the remaining low bits hold Ref (zero if invalid).
func (p PackedCountRef) Encode() uint64 {
	var raw uint64
	raw |= uint64(p.countBits) << packedPayloadBits
	refBits := packedPayloadBits - uint(p.countBits)
	raw |= (p.count & maskOf(p.countBits)) << refBits
	if p.refValid {
		raw |= p.ref & maskOf(uint8(refBits))
	}
	return raw
}

// DecodePackedCountRef unpacks a slot previously produced by Encode.
// refValidHint tells the decoder whether this slot's format carries a
// reference at all (e.g. db_epsilon's count-only slot never does).
func DecodePackedCountRef(raw uint64, refValidHint bool) PackedCountRef {
	countBits := uint8(raw >> packedPayloadBits)
	refBits := packedPayloadBits - uint(countBits)
	count := (raw >> refBits) & maskOf(countBits)

	p := PackedCountRef{countBits: countBits, count: count}
	if refValidHint && refBits > 0 {
		p.ref = raw & maskOf(uint8(refBits))
		p.refValid = true
	}
	return p
}

func maskOf(bits uint8) uint64 {
	if bits == 0 {
		return 0
	}
	if bits >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << bits) - 1
}
