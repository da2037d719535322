package chess

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// zobrist tables: one entry per (piece, square), sixteen for castling
// rights (one per castling-rights mask), eight for en passant file, one
// for side to move. Rather
// than seeding from an arbitrary PRNG, every slot's value is the
// xxhash of a slot-identifying string, so the table is reproducible
// byte-for-byte across builds and platforms without shipping a
// generated table (spec domain-stack wiring: xxhash seeds the
// reference zobrist table).
var (
	zobristPiece    [64][2][7]uint64
	zobristCastle   [16]uint64
	zobristEPFile   [8]uint64
	zobristSideMove uint64
)

func seed(label string) uint64 {
	return xxhash.Sum64String(label)
}

func init() {
	for sq := 0; sq < 64; sq++ {
		for c := 0; c < 2; c++ {
			for pt := Pawn; pt <= King; pt++ {
				zobristPiece[sq][c][pt] = seed(fmt.Sprintf("piece/%d/%d/%d", sq, c, pt))
			}
		}
	}
	for i := range zobristCastle {
		zobristCastle[i] = seed(fmt.Sprintf("castle/%d", i))
	}
	for f := range zobristEPFile {
		zobristEPFile[f] = seed(fmt.Sprintf("epfile/%d", f))
	}
	zobristSideMove = seed("sidetomove")
}

// Hash computes the zobrist fingerprint of p, matching spec §2's
// requirement that two positions with the same reachable-move set
// hash identically. Castling rights and the en passant file are
// folded in because they change which moves are legal, even though
// the board array is otherwise the same.
func (p *Position) Hash() uint64 {
	var h uint64
	for sq := Square(0); sq < 64; sq++ {
		pc := p.board[sq]
		if pc == NoPiece {
			continue
		}
		h ^= zobristPiece[sq][pc.Color()][pc.Type()]
	}
	h ^= zobristCastle[p.Castle]
	if p.EnPassant != NoSquare {
		h ^= zobristEPFile[p.EnPassant.File()]
	}
	if p.SideToMove == Black {
		h ^= zobristSideMove
	}
	return h
}
