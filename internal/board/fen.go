package board

import (
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the FEN string for the xiangqi starting position.
const StartFEN = "rnbakabnr/9/1c5c1/p1p1p1p1p/9/9/P1P1P1P1P/1C5C1/9/RNBAKABNR w - - 0 1"

// ParseFEN parses a xiangqi FEN string and returns a Position.
// The two fields between side-to-move and the no-capture counter are
// accepted for compatibility with western FEN tooling and ignored.
func ParseFEN(fen string) (*Position, error) {
	parts := strings.Fields(fen)
	if len(parts) < 2 {
		return nil, fmt.Errorf("invalid FEN: need at least 2 fields, got %d", len(parts))
	}

	pos := &Position{
		Board:          EmptyBoard(),
		FullMoveNumber: 1,
	}

	if err := parsePiecePlacement(pos, parts[0]); err != nil {
		return nil, err
	}

	switch parts[1] {
	case "w", "r":
		pos.SideToMove = Red
	case "b":
		pos.SideToMove = Black
	default:
		return nil, fmt.Errorf("invalid side to move: %s", parts[1])
	}

	// Parse no-capture ply counter (field 4, optional)
	if len(parts) > 4 {
		ncp, err := strconv.Atoi(parts[4])
		if err != nil {
			return nil, fmt.Errorf("invalid no-capture counter: %s", parts[4])
		}
		pos.NoCapturePly = ncp
	}

	// Parse full-move number (field 5, optional)
	if len(parts) > 5 {
		fmn, err := strconv.Atoi(parts[5])
		if err != nil {
			return nil, fmt.Errorf("invalid full-move number: %s", parts[5])
		}
		pos.FullMoveNumber = fmn
	}

	return pos, nil
}

// parsePiecePlacement parses the piece placement section of a FEN string.
func parsePiecePlacement(pos *Position, placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != RankCount {
		return fmt.Errorf("invalid piece placement: need %d ranks, got %d", RankCount, len(ranks))
	}

	for i, rankStr := range ranks {
		rank := RankCount - 1 - i // FEN starts from black's back rank
		file := 0

		for _, c := range rankStr {
			if file > FileCount {
				return fmt.Errorf("too many squares in rank %d", rank)
			}

			if c >= '1' && c <= '9' {
				file += int(c - '0')
			} else {
				piece := PieceFromChar(byte(c))
				if piece == NoPiece {
					return fmt.Errorf("invalid piece character: %c", c)
				}
				if file >= FileCount {
					return fmt.Errorf("too many squares in rank %d", rank)
				}
				pos.Board[NewSquare(file, rank)] = piece
				file++
			}
		}

		if file != FileCount {
			return fmt.Errorf("invalid number of squares in rank %d: got %d", rank, file)
		}
	}

	return nil
}

// FEN returns the FEN string of the position.
func (p *Position) FEN() string {
	var sb strings.Builder
	for rank := RankCount - 1; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < FileCount; file++ {
			piece := p.Board[NewSquare(file, rank)]
			if piece == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(piece.Char())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}

	stm := "w"
	if p.SideToMove == Black {
		stm = "b"
	}
	fmt.Fprintf(&sb, " %s - - %d %d", stm, p.NoCapturePly, p.FullMoveNumber)
	return sb.String()
}

// IsBlackToMove returns true if black is the side to move.
func (p *Position) IsBlackToMove() bool {
	return p.SideToMove == Black
}
