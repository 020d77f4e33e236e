package board

import (
	"strings"

	"github.com/awesome-archive/cczero/internal/hashcat"
)

// Board holds the piece placement of a xiangqi position.
type Board [SquareCount]Piece

// EmptyBoard returns a board with no pieces.
func EmptyBoard() Board {
	var b Board
	for sq := range b {
		b[sq] = NoPiece
	}
	return b
}

// PieceAt returns the piece on the given square.
func (b *Board) PieceAt(sq Square) Piece {
	return b[sq]
}

// IsEmpty returns true if the square has no piece.
func (b *Board) IsEmpty(sq Square) bool {
	return b[sq] == NoPiece
}

// KingSquare returns the square of the given color's king, or NoSquare
// if it is not on the board.
func (b *Board) KingSquare(c Color) Square {
	king := NewPiece(King, c)
	for sq := Square(0); sq < SquareCount; sq++ {
		if b[sq] == king {
			return sq
		}
	}
	return NoSquare
}

// Outcome is the result of a finished game, from red's perspective.
type Outcome int8

const (
	Ongoing Outcome = iota
	Draw
	RedWon
	BlackWon
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case Draw:
		return "Draw"
	case RedWon:
		return "RedWon"
	case BlackWon:
		return "BlackWon"
	default:
		return "Ongoing"
	}
}

// NoCaptureDrawPlies is the number of plies without a capture after
// which the game is scored as a draw.
const NoCaptureDrawPlies = 120

// Position represents a complete xiangqi position.
type Position struct {
	Board Board

	SideToMove     Color
	NoCapturePly   int // Plies since the last capture
	FullMoveNumber int // Full move counter, starts at 1
}

// Hash returns a 64-bit fingerprint of the position (placement and
// side to move).
func (p *Position) Hash() uint64 {
	h := uint64(0)
	for sq := Square(0); sq < SquareCount; sq++ {
		if piece := p.Board[sq]; piece != NoPiece {
			h = hashcat.HashCat(h, uint64(sq)<<8|uint64(piece))
		}
	}
	return hashcat.HashCat(h, uint64(p.SideToMove))
}

// Apply returns the position after playing the move. The move is not
// checked for legality.
func (p *Position) Apply(m Move) Position {
	next := *p
	capture := next.Board[m.To()] != NoPiece
	next.Board[m.To()] = next.Board[m.From()]
	next.Board[m.From()] = NoPiece
	if capture {
		next.NoCapturePly = 0
	} else {
		next.NoCapturePly++
	}
	if next.SideToMove == Black {
		next.FullMoveNumber++
	}
	next.SideToMove = next.SideToMove.Other()
	return next
}

// Result scores the position for the side to move. A side with no
// legal moves loses (both mate and stalemate lose in xiangqi); the
// no-capture rule draws the game.
func (p *Position) Result(legal MoveList) Outcome {
	if len(legal) == 0 {
		if p.SideToMove == Red {
			return BlackWon
		}
		return RedWon
	}
	if p.NoCapturePly >= NoCaptureDrawPlies {
		return Draw
	}
	return Ongoing
}

// String renders the board with rank 9 on top, for debugging.
func (p *Position) String() string {
	var sb strings.Builder
	for rank := RankCount - 1; rank >= 0; rank-- {
		for file := 0; file < FileCount; file++ {
			sb.WriteByte(p.Board[NewSquare(file, rank)].Char())
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// PositionHistory is the ordered sequence of positions from the start
// of the game to the current head.
type PositionHistory struct {
	positions []Position
}

// Reset replaces the history with a single starting position.
func (h *PositionHistory) Reset(start Position) {
	h.positions = h.positions[:0]
	h.positions = append(h.positions, start)
}

// Append plays a move on the last position and appends the result.
func (h *PositionHistory) Append(m Move) {
	h.positions = append(h.positions, h.Last().Apply(m))
}

// Clone returns an independent copy of the history. Search workers
// clone the game history before extending it along a selection path.
func (h *PositionHistory) Clone() PositionHistory {
	positions := make([]Position, len(h.positions))
	copy(positions, h.positions)
	return PositionHistory{positions: positions}
}

// Starting returns the first position of the game.
func (h *PositionHistory) Starting() *Position {
	return &h.positions[0]
}

// Last returns the current position.
func (h *PositionHistory) Last() *Position {
	return &h.positions[len(h.positions)-1]
}

// Len returns the number of positions in the history.
func (h *PositionHistory) Len() int {
	return len(h.positions)
}

// At returns the i-th position of the game.
func (h *PositionHistory) At(i int) *Position {
	return &h.positions[i]
}
