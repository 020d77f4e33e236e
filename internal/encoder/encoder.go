// Package encoder materializes input planes for neural-network
// evaluation and for training records.
package encoder

import "github.com/awesome-archive/cczero/internal/board"

// InputPlane is a 64-bit bitmask plane. A 90-intersection board plane
// spans two InputPlanes: squares 0-63 in the first word, squares 64-89
// in the low bits of the second.
type InputPlane struct {
	Mask uint64
}

// SetBit sets the bit for a square within this word.
func (p *InputPlane) SetBit(bit int) {
	p.Mask |= 1 << uint(bit)
}

const (
	// PlaneWords is the number of 64-bit words per board plane.
	PlaneWords = 2

	// HistoryPlies is the number of past positions encoded.
	HistoryPlies = 8

	// PlanesPerPosition: 7 piece types for the side to move, 7 for the
	// opponent, each two words wide, plus the repetition pair.
	PlanesPerPosition = (board.PieceTypeCount*2 + 1) * PlaneWords

	// TotalPlanes is the full size of the network input.
	TotalPlanes = HistoryPlies * PlanesPerPosition
)

// EncodePositionForNN encodes the last plies positions of the history
// into input planes, always from the perspective of the side to move
// at the head: when black is to move the board is rank-mirrored and
// colors are swapped, so "us" planes always belong to the mover.
// Positions before the start of the game encode as empty planes.
func EncodePositionForNN(history *board.PositionHistory, plies int) []InputPlane {
	planes := make([]InputPlane, 0, plies*PlanesPerPosition)
	us := history.Last().SideToMove

	for i := 0; i < plies; i++ {
		idx := history.Len() - 1 - i
		if idx < 0 {
			planes = append(planes, make([]InputPlane, PlanesPerPosition)...)
			continue
		}
		planes = append(planes, encodeBoard(history, idx, us)...)
	}

	return planes
}

func encodeBoard(history *board.PositionHistory, idx int, us board.Color) []InputPlane {
	pos := history.At(idx)
	planes := make([]InputPlane, PlanesPerPosition)

	for sq := board.Square(0); sq < board.SquareCount; sq++ {
		piece := pos.Board.PieceAt(sq)
		if piece == board.NoPiece {
			continue
		}

		view := sq
		if us == board.Black {
			view = sq.Mirror()
		}

		plane := int(piece.Type()) * PlaneWords
		if piece.Color() != us {
			plane += board.PieceTypeCount * PlaneWords
		}
		if view >= 64 {
			plane++
			view -= 64
		}
		planes[plane].SetBit(int(view))
	}

	// Repetition pair: all ones when the position occurred earlier in
	// the game.
	if countEarlier(history, idx) > 0 {
		rep := board.PieceTypeCount * 2 * PlaneWords
		planes[rep].Mask = ^uint64(0)
		planes[rep+1].Mask = ^uint64(0)
	}

	return planes
}

func countEarlier(history *board.PositionHistory, idx int) int {
	hash := history.At(idx).Hash()
	n := 0
	for i := 0; i < idx; i++ {
		if history.At(i).Hash() == hash {
			n++
		}
	}
	return n
}
