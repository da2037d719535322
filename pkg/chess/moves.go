package chess

// MoveFlag distinguishes move kinds that need special board handling
// beyond "piece moves from one square to another".
type MoveFlag uint8

const (
	Normal MoveFlag = iota
	DoublePawnPush
	EnPassantCapture
	KingsideCastle
	QueensideCastle
	PromoteKnight
	PromoteBishop
	PromoteRook
	PromoteQueen
)

// IsPromotion reports whether flag is one of the four promotion flags.
func (f MoveFlag) IsPromotion() bool { return f >= PromoteKnight }

// PromotedType returns the piece type a promotion flag promotes to.
func (f MoveFlag) PromotedType() PieceType {
	switch f {
	case PromoteKnight:
		return Knight
	case PromoteBishop:
		return Bishop
	case PromoteRook:
		return Rook
	case PromoteQueen:
		return Queen
	default:
		return NoPieceType
	}
}

// Move is a single chess move, resolved against the position it was
// generated from.
type Move struct {
	From, To Square
	Piece    Piece
	Capture  Piece
	Flag     MoveFlag
}

var knightOffsets = [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
var kingOffsets = [8][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
var bishopDirs = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
var rookDirs = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

func onBoard(file, rank int) bool { return file >= 0 && file < 8 && rank >= 0 && rank < 8 }

// isAttacked reports whether sq is attacked by any piece of color by.
func (p *Position) isAttacked(sq Square, by Color) bool {
	f, r := sq.File(), sq.Rank()

	for _, d := range knightOffsets {
		nf, nr := f+d[0], r+d[1]
		if onBoard(nf, nr) {
			pc := p.board[NewSquare(nf, nr)]
			if pc.Color() == by && pc.Type() == Knight {
				return true
			}
		}
	}
	for _, d := range kingOffsets {
		nf, nr := f+d[0], r+d[1]
		if onBoard(nf, nr) {
			pc := p.board[NewSquare(nf, nr)]
			if pc.Color() == by && pc.Type() == King {
				return true
			}
		}
	}

	pawnRankDelta := -1
	if by == White {
		pawnRankDelta = 1
	}
	for _, df := range [2]int{-1, 1} {
		nf, nr := f+df, r-pawnRankDelta
		if onBoard(nf, nr) {
			pc := p.board[NewSquare(nf, nr)]
			if pc.Color() == by && pc.Type() == Pawn {
				return true
			}
		}
	}

	if p.slidingAttacks(sq, by, bishopDirs, Bishop, Queen) {
		return true
	}
	if p.slidingAttacks(sq, by, rookDirs, Rook, Queen) {
		return true
	}
	return false
}

func (p *Position) slidingAttacks(sq Square, by Color, dirs [4][2]int, matchOne, matchTwo PieceType) bool {
	f, r := sq.File(), sq.Rank()
	for _, d := range dirs {
		nf, nr := f+d[0], r+d[1]
		for onBoard(nf, nr) {
			pc := p.board[NewSquare(nf, nr)]
			if pc != NoPiece {
				if pc.Color() == by && (pc.Type() == matchOne || pc.Type() == matchTwo) {
					return true
				}
				break
			}
			nf += d[0]
			nr += d[1]
		}
	}
	return false
}

// PseudoLegalMoves generates every move for the side to move, ignoring
// whether it leaves its own king in check.
func (p *Position) PseudoLegalMoves() []Move {
	var moves []Move
	us := p.SideToMove
	for sq := Square(0); sq < 64; sq++ {
		pc := p.board[sq]
		if pc == NoPiece || pc.Color() != us {
			continue
		}
		switch pc.Type() {
		case Pawn:
			p.genPawnMoves(sq, &moves)
		case Knight:
			p.genStepMoves(sq, pc, knightOffsets[:], &moves)
		case King:
			p.genStepMoves(sq, pc, kingOffsets[:], &moves)
			p.genCastles(&moves)
		case Bishop:
			p.genSlideMoves(sq, pc, bishopDirs[:], &moves)
		case Rook:
			p.genSlideMoves(sq, pc, rookDirs[:], &moves)
		case Queen:
			p.genSlideMoves(sq, pc, bishopDirs[:], &moves)
			p.genSlideMoves(sq, pc, rookDirs[:], &moves)
		}
	}
	return moves
}

// LegalMoves filters PseudoLegalMoves down to moves that don't leave
// the mover's own king in check.
func (p *Position) LegalMoves() []Move {
	pseudo := p.PseudoLegalMoves()
	legal := make([]Move, 0, len(pseudo))
	us := p.SideToMove
	for _, m := range pseudo {
		next := p.Clone()
		next.Apply(m)
		if !next.InCheck(us) {
			legal = append(legal, m)
		}
	}
	return legal
}

func (p *Position) genStepMoves(sq Square, pc Piece, offsets [][2]int, moves *[]Move) {
	f, r := sq.File(), sq.Rank()
	for _, d := range offsets {
		nf, nr := f+d[0], r+d[1]
		if !onBoard(nf, nr) {
			continue
		}
		to := NewSquare(nf, nr)
		target := p.board[to]
		if target != NoPiece && target.Color() == pc.Color() {
			continue
		}
		*moves = append(*moves, Move{From: sq, To: to, Piece: pc, Capture: target})
	}
}

func (p *Position) genSlideMoves(sq Square, pc Piece, dirs [][2]int, moves *[]Move) {
	f, r := sq.File(), sq.Rank()
	for _, d := range dirs {
		nf, nr := f+d[0], r+d[1]
		for onBoard(nf, nr) {
			to := NewSquare(nf, nr)
			target := p.board[to]
			if target != NoPiece {
				if target.Color() != pc.Color() {
					*moves = append(*moves, Move{From: sq, To: to, Piece: pc, Capture: target})
				}
				break
			}
			*moves = append(*moves, Move{From: sq, To: to, Piece: pc})
			nf += d[0]
			nr += d[1]
		}
	}
}

func (p *Position) genPawnMoves(sq Square, moves *[]Move) {
	us := p.SideToMove
	pc := p.board[sq]
	f, r := sq.File(), sq.Rank()
	dir, startRank, promoRank := 1, 1, 7
	if us == Black {
		dir, startRank, promoRank = -1, 6, 0
	}

	nr := r + dir
	if onBoard(f, nr) {
		oneStep := NewSquare(f, nr)
		if p.board[oneStep] == NoPiece {
			p.addPawnAdvance(sq, oneStep, pc, promoRank, moves)
			if r == startRank {
				twoStep := NewSquare(f, nr+dir)
				if p.board[twoStep] == NoPiece {
					*moves = append(*moves, Move{From: sq, To: twoStep, Piece: pc, Flag: DoublePawnPush})
				}
			}
		}
	}

	for _, df := range [2]int{-1, 1} {
		nf := f + df
		if !onBoard(nf, nr) {
			continue
		}
		to := NewSquare(nf, nr)
		target := p.board[to]
		if target != NoPiece && target.Color() != us {
			p.addPawnCapture(sq, to, pc, target, promoRank, moves)
		} else if to == p.EnPassant && p.EnPassant != NoSquare {
			*moves = append(*moves, Move{From: sq, To: to, Piece: pc, Flag: EnPassantCapture})
		}
	}
}

func (p *Position) addPawnAdvance(from, to Square, pc Piece, promoRank int, moves *[]Move) {
	if to.Rank() == promoRank {
		for _, f := range [4]MoveFlag{PromoteQueen, PromoteRook, PromoteBishop, PromoteKnight} {
			*moves = append(*moves, Move{From: from, To: to, Piece: pc, Flag: f})
		}
		return
	}
	*moves = append(*moves, Move{From: from, To: to, Piece: pc})
}

func (p *Position) addPawnCapture(from, to Square, pc, capture Piece, promoRank int, moves *[]Move) {
	if to.Rank() == promoRank {
		for _, f := range [4]MoveFlag{PromoteQueen, PromoteRook, PromoteBishop, PromoteKnight} {
			*moves = append(*moves, Move{From: from, To: to, Piece: pc, Capture: capture, Flag: f})
		}
		return
	}
	*moves = append(*moves, Move{From: from, To: to, Piece: pc, Capture: capture})
}

func (p *Position) genCastles(moves *[]Move) {
	us := p.SideToMove
	rank := 0
	kingside, queenside := WhiteKingside, WhiteQueenside
	if us == Black {
		rank = 7
		kingside, queenside = BlackKingside, BlackQueenside
	}
	ksq := NewSquare(4, rank)
	if p.board[ksq] != NewPiece(us, King) || p.isAttacked(ksq, us.Opposite()) {
		return
	}

	if p.Castle&kingside != 0 &&
		p.board[NewSquare(5, rank)] == NoPiece && p.board[NewSquare(6, rank)] == NoPiece &&
		!p.isAttacked(NewSquare(5, rank), us.Opposite()) && !p.isAttacked(NewSquare(6, rank), us.Opposite()) {
		*moves = append(*moves, Move{From: ksq, To: NewSquare(6, rank), Piece: p.board[ksq], Flag: KingsideCastle})
	}
	if p.Castle&queenside != 0 &&
		p.board[NewSquare(1, rank)] == NoPiece && p.board[NewSquare(2, rank)] == NoPiece && p.board[NewSquare(3, rank)] == NoPiece &&
		!p.isAttacked(NewSquare(2, rank), us.Opposite()) && !p.isAttacked(NewSquare(3, rank), us.Opposite()) {
		*moves = append(*moves, Move{From: ksq, To: NewSquare(2, rank), Piece: p.board[ksq], Flag: QueensideCastle})
	}
}

// Apply plays m on p in place. The caller is responsible for legality
// (LegalMoves / ParseSAN only ever hand back moves that passed
// PseudoLegalMoves's generation rules).
func (p *Position) Apply(m Move) {
	us := p.SideToMove
	p.set(m.From, NoPiece)

	switch {
	case m.Flag == EnPassantCapture:
		capSq := NewSquare(m.To.File(), m.From.Rank())
		p.set(capSq, NoPiece)
		p.set(m.To, m.Piece)
	case m.Flag.IsPromotion():
		p.set(m.To, NewPiece(us, m.Flag.PromotedType()))
	case m.Flag == KingsideCastle:
		rank := m.From.Rank()
		p.set(m.To, m.Piece)
		p.set(NewSquare(5, rank), NewPiece(us, Rook))
		p.set(NewSquare(7, rank), NoPiece)
	case m.Flag == QueensideCastle:
		rank := m.From.Rank()
		p.set(m.To, m.Piece)
		p.set(NewSquare(3, rank), NewPiece(us, Rook))
		p.set(NewSquare(0, rank), NoPiece)
	default:
		p.set(m.To, m.Piece)
	}

	if m.Flag == DoublePawnPush {
		p.EnPassant = NewSquare(m.From.File(), (m.From.Rank()+m.To.Rank())/2)
	} else {
		p.EnPassant = NoSquare
	}

	p.Castle &^= castleLoss(m.From) | castleLoss(m.To)

	if m.Piece.Type() == Pawn || m.Capture != NoPiece {
		p.HalfmoveClk = 0
	} else {
		p.HalfmoveClk++
	}
	if us == Black {
		p.FullmoveNum++
	}
	p.SideToMove = us.Opposite()
}

func castleLoss(sq Square) CastleRights {
	switch sq {
	case NewSquare(4, 0):
		return WhiteKingside | WhiteQueenside
	case NewSquare(0, 0):
		return WhiteQueenside
	case NewSquare(7, 0):
		return WhiteKingside
	case NewSquare(4, 7):
		return BlackKingside | BlackQueenside
	case NewSquare(0, 7):
		return BlackQueenside
	case NewSquare(7, 7):
		return BlackKingside
	default:
		return NoCastleRights
	}
}
