package board

import "fmt"

// Move encodes a xiangqi move in 16 bits:
// bits 0-6:  from square (0-89)
// bits 7-13: to square (0-89)
// There are no promotions, castlings or en passant captures.
type Move uint16

// NoMove represents an invalid or null move.
const NoMove Move = 0

// PolicySize is the size of the dense policy head: every (from, to)
// square pair has its own output, NNIndex = from*90 + to.
const PolicySize = SquareCount * SquareCount

// NewMove creates a move.
func NewMove(from, to Square) Move {
	return Move(from) | Move(to)<<7
}

// From returns the origin square.
func (m Move) From() Square {
	return Square(m & 0x7F)
}

// To returns the destination square.
func (m Move) To() Square {
	return Square((m >> 7) & 0x7F)
}

// Mirror returns the move as seen from the other side to move: both
// squares have their rank flipped. Mirror is its own inverse.
func (m Move) Mirror() Move {
	return NewMove(m.From().Mirror(), m.To().Mirror())
}

// NNIndex returns the dense index of the move in the policy head,
// used as the column index in training probability vectors.
func (m Move) NNIndex() int {
	return int(m.From())*SquareCount + int(m.To())
}

// String returns the coordinate notation of the move (e.g. "h2e2").
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}
	return m.From().String() + m.To().String()
}

// ParseMove parses a coordinate notation move string (e.g. "h2e2").
func ParseMove(s string) (Move, error) {
	if len(s) < 4 {
		return NoMove, fmt.Errorf("invalid move string: %q", s)
	}
	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, err
	}
	to, err := ParseSquare(s[2:])
	if err != nil {
		return NoMove, err
	}
	return NewMove(from, to), nil
}

// MoveList is a list of moves in generation order.
type MoveList []Move

// Contains returns true if the list contains the move.
func (ml MoveList) Contains(m Move) bool {
	for _, v := range ml {
		if v == m {
			return true
		}
	}
	return false
}
