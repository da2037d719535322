package chess

import (
	"fmt"
	"strconv"
	"strings"
)

var fenPieceLetters = map[byte]Piece{
	'P': NewPiece(White, Pawn), 'N': NewPiece(White, Knight), 'B': NewPiece(White, Bishop),
	'R': NewPiece(White, Rook), 'Q': NewPiece(White, Queen), 'K': NewPiece(White, King),
	'p': NewPiece(Black, Pawn), 'n': NewPiece(Black, Knight), 'b': NewPiece(Black, Bishop),
	'r': NewPiece(Black, Rook), 'q': NewPiece(Black, Queen), 'k': NewPiece(Black, King),
}

// ParseFEN parses Forsyth-Edwards Notation into a Position.
func ParseFEN(fen string) (*Position, error) {
	fields := strings.Fields(fen)
	if len(fields) < 4 {
		return nil, fmt.Errorf("chess: FEN %q has too few fields", fen)
	}

	p := &Position{EnPassant: NoSquare, FullmoveNum: 1}

	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return nil, fmt.Errorf("chess: FEN %q does not have 8 ranks", fen)
	}
	for i, rankStr := range ranks {
		rank := 7 - i
		file := 0
		for _, c := range []byte(rankStr) {
			if c >= '1' && c <= '8' {
				file += int(c - '0')
				continue
			}
			pc, ok := fenPieceLetters[c]
			if !ok {
				return nil, fmt.Errorf("chess: FEN %q has invalid piece %q", fen, string(c))
			}
			if file > 7 {
				return nil, fmt.Errorf("chess: FEN %q overflows rank %d", fen, rank+1)
			}
			p.set(NewSquare(file, rank), pc)
			file++
		}
	}

	switch fields[1] {
	case "w":
		p.SideToMove = White
	case "b":
		p.SideToMove = Black
	default:
		return nil, fmt.Errorf("chess: FEN %q has invalid side to move %q", fen, fields[1])
	}

	if fields[2] != "-" {
		for _, c := range []byte(fields[2]) {
			switch c {
			case 'K':
				p.Castle |= WhiteKingside
			case 'Q':
				p.Castle |= WhiteQueenside
			case 'k':
				p.Castle |= BlackKingside
			case 'q':
				p.Castle |= BlackQueenside
			default:
				return nil, fmt.Errorf("chess: FEN %q has invalid castling field %q", fen, fields[2])
			}
		}
	}

	ep, err := ParseSquare(fields[3])
	if err != nil {
		return nil, fmt.Errorf("chess: FEN %q has invalid en passant field: %w", fen, err)
	}
	p.EnPassant = ep

	if len(fields) > 4 {
		n, err := strconv.Atoi(fields[4])
		if err == nil {
			p.HalfmoveClk = n
		}
	}
	if len(fields) > 5 {
		n, err := strconv.Atoi(fields[5])
		if err == nil {
			p.FullmoveNum = n
		}
	}

	return p, nil
}

// FEN formats p as Forsyth-Edwards Notation.
func (p *Position) FEN() string {
	var b strings.Builder
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			pc := p.board[NewSquare(file, rank)]
			if pc == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				fmt.Fprintf(&b, "%d", empty)
				empty = 0
			}
			b.WriteString(pc.String())
		}
		if empty > 0 {
			fmt.Fprintf(&b, "%d", empty)
		}
		if rank > 0 {
			b.WriteByte('/')
		}
	}

	b.WriteByte(' ')
	b.WriteString(p.SideToMove.String())

	b.WriteByte(' ')
	if p.Castle == NoCastleRights {
		b.WriteByte('-')
	} else {
		if p.Castle&WhiteKingside != 0 {
			b.WriteByte('K')
		}
		if p.Castle&WhiteQueenside != 0 {
			b.WriteByte('Q')
		}
		if p.Castle&BlackKingside != 0 {
			b.WriteByte('k')
		}
		if p.Castle&BlackQueenside != 0 {
			b.WriteByte('q')
		}
	}

	fmt.Fprintf(&b, " %s %d %d", p.EnPassant.String(), p.HalfmoveClk, p.FullmoveNum)
	return b.String()
}
