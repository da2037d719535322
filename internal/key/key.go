// Package key implements the position-database sort key (spec §3/§4.1,
// component C1). Rather than generating five distinct key types — one
// per format — a single Key carries every format's bits, and the
// internal/format package describes which bits a given format actually
// populates (spec §9 design note (a), "compile-time capability
// detection" read as a Go capability descriptor instead of five
// generated types; see the top-level SPEC_FULL.md section D).
package key

// reverseMoveBits is how many bits of Word2 the reverse-move payload
// occupies (spec §3, "at most 27 bits for the reverse-move payload").
const reverseMoveBits = 27

// NullReverseMove is the reserved code meaning "no reverse move is
// known for this position" (spec §3, "Null reverse move uses a
// reserved code").
const NullReverseMove uint32 = (1 << reverseMoveBits) - 1

// Key is the sortable prefix of a position entry. Hash is the
// zobrist-derived fingerprint (folded with level/result in its low 4
// bits for formats that don't carry a reverse move — see TrueHash).
// Word2 packs, from its high bit down: one extra hash bit, the 27-bit
// reverse move, 2 bits of level, 2 bits of result. Because Word2 is
// compared as a plain uint32, a lexicographic (Hash, Word2) comparison
// is automatically dominated by hash, then reverse move, then level,
// then result — exactly the order spec §3 requires.
type Key struct {
	Hash  uint64
	Word2 uint32
}

const (
	word2ResultBits = 2
	word2LevelBits  = 2
	word2LevelShift = word2ResultBits
	word2MoveShift  = word2LevelShift + word2LevelBits
	word2HashShift  = word2MoveShift + reverseMoveBits

	word2ResultMask = (uint32(1) << word2ResultBits) - 1
	word2LevelMask  = (uint32(1) << word2LevelBits) - 1
	word2MoveMask   = (uint32(1) << reverseMoveBits) - 1
)

// New packs a key from its logical fields. reverseMove must already be
// encoded into at most 27 bits (NullReverseMove for "none"); level and
// result must fit in 2 bits each. highHashBit extends Hash by one bit
// for formats that don't have room for the full fingerprint elsewhere.
func New(hash uint64, highHashBit bool, reverseMove uint32, level, result uint8) Key {
	var w2 uint32
	if highHashBit {
		w2 |= 1 << word2HashShift
	}
	w2 |= (reverseMove & word2MoveMask) << word2MoveShift
	w2 |= (uint32(level) & word2LevelMask) << word2LevelShift
	w2 |= uint32(result) & word2ResultMask
	return Key{Hash: hash, Word2: w2}
}

// ReverseMove extracts the packed reverse-move payload.
func (k Key) ReverseMove() uint32 {
	return (k.Word2 >> word2MoveShift) & word2MoveMask
}

// HasReverseMove reports whether the key's reverse move is the real
// thing rather than the null sentinel.
func (k Key) HasReverseMove() bool {
	return k.ReverseMove() != NullReverseMove
}

// Level extracts the packed level bits.
func (k Key) Level() uint8 {
	return uint8((k.Word2 >> word2LevelShift) & word2LevelMask)
}

// Result extracts the packed result bits.
func (k Key) Result() uint8 {
	return uint8(k.Word2 & word2ResultMask)
}

// highHashBit extracts the extra hash bit folded into Word2's top bit.
func (k Key) highHashBit() uint32 {
	return k.Word2 >> word2HashShift
}

// TrueHash returns Hash as-is. For formats that fold level and result
// into Hash's own low 4 bits (spec.md's beta/epsilon formats; see
// format.BuildKey and SPEC_FULL.md section D), those bits are part of
// the returned value: no masking happens at this layer.
func (k Key) TrueHash() uint64 {
	return k.Hash
}

// Less implements the full total order: (hash, reverse-move, level,
// result), dominated by hash per spec §3/§4.1.
func (k Key) Less(other Key) bool {
	if k.Hash != other.Hash {
		return k.Hash < other.Hash
	}
	return k.Word2 < other.Word2
}

// Compare returns -1, 0 or 1 following the full total order, for use
// by binary search and sort routines that want a three-way result.
func (k Key) Compare(other Key) int {
	switch {
	case k.Hash < other.Hash:
		return -1
	case k.Hash > other.Hash:
		return 1
	case k.Word2 < other.Word2:
		return -1
	case k.Word2 > other.Word2:
		return 1
	default:
		return 0
	}
}

// EqualFull implements the "full" equivalence relation: every field
// equal. Used by merge de-duplication (spec §3).
func (k Key) EqualFull(other Key) bool {
	return k.Hash == other.Hash && k.Word2 == other.Word2
}

// EqualWithReverseMove implements the "with-reverse-move" equivalence:
// hash and reverse move equal, level/result ignored. Used to match
// continuations (spec §3).
func (k Key) EqualWithReverseMove(other Key) bool {
	if k.Hash != other.Hash {
		return false
	}
	const mask = ^uint32(0) &^ ((uint32(1) << word2MoveShift) - 1)
	return k.Word2&mask == other.Word2&mask
}

// EqualWithoutReverseMove implements the "without-reverse-move"
// equivalence: hash equal (including the extra hash bit folded into
// Word2's top bit), reverse move/level/result ignored. Used to match
// every occurrence of a position — transpositions and continuations
// alike (spec §3).
func (k Key) EqualWithoutReverseMove(other Key) bool {
	return k.Hash == other.Hash && k.highHashBit() == other.highHashBit()
}

// CompareWithoutReverseMove orders keys the way the range index does:
// hash (plus the extra folded hash bit) only. This is the order
// equal_range searches against, because retraction/transposition
// queries need every reverse-move variant of a hash in one contiguous
// range (spec §4.2).
func (k Key) CompareWithoutReverseMove(other Key) int {
	if k.Hash != other.Hash {
		if k.Hash < other.Hash {
			return -1
		}
		return 1
	}
	a, b := k.highHashBit(), other.highHashBit()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// WithoutReverseMovePrefix zeroes out every Word2 bit below the extra
// hash bit, producing the key that equal_range's underlying order
// treats as the start of a hash's contiguous run.
func (k Key) WithoutReverseMovePrefix() Key {
	return Key{Hash: k.Hash, Word2: k.Word2 & (uint32(1) << word2HashShift)}
}
