// Package board implements the xiangqi board: piece placement, FEN
// parsing, legal move generation and position hashing.
package board

import "fmt"

// Board geometry. Files run a-i from red's left, ranks 0-9 from red's
// back rank. Square 0 is a0 (red's bottom-left corner).
const (
	FileCount   = 9
	RankCount   = 10
	SquareCount = FileCount * RankCount
)

// Square represents an intersection on the xiangqi board (0-89).
// sq = rank*9 + file.
type Square uint8

// NoSquare represents an invalid square.
const NoSquare Square = SquareCount

// NewSquare creates a square from file (0-8) and rank (0-9).
func NewSquare(file, rank int) Square {
	return Square(rank*FileCount + file)
}

// File returns the file (column) of the square (0-8, where 0=a, 8=i).
func (sq Square) File() int {
	return int(sq) % FileCount
}

// Rank returns the rank (row) of the square (0-9).
func (sq Square) Rank() int {
	return int(sq) / FileCount
}

// Mirror returns the square as seen from the other side: the rank is
// flipped, the file is kept.
func (sq Square) Mirror() Square {
	return NewSquare(sq.File(), RankCount-1-sq.Rank())
}

// Valid returns true if the square is on the board.
func (sq Square) Valid() bool {
	return sq < SquareCount
}

// InPalace returns true if the square lies inside the palace of the
// given color (files d-f, ranks 0-2 for red, 7-9 for black).
func (sq Square) InPalace(c Color) bool {
	file, rank := sq.File(), sq.Rank()
	if file < 3 || file > 5 {
		return false
	}
	if c == Red {
		return rank <= 2
	}
	return rank >= 7
}

// OwnSide returns true if the square is on the given color's side of
// the river (ranks 0-4 for red, 5-9 for black).
func (sq Square) OwnSide(c Color) bool {
	if c == Red {
		return sq.Rank() <= 4
	}
	return sq.Rank() >= 5
}

// String returns the algebraic name of the square (e.g. "e0", "h9").
func (sq Square) String() string {
	if !sq.Valid() {
		return "-"
	}
	return fmt.Sprintf("%c%d", 'a'+sq.File(), sq.Rank())
}

// ParseSquare parses an algebraic square name (e.g. "e0", "i9").
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 && len(s) != 3 {
		return NoSquare, fmt.Errorf("invalid square: %q", s)
	}
	file := int(s[0] - 'a')
	if file < 0 || file >= FileCount {
		return NoSquare, fmt.Errorf("invalid file in square: %q", s)
	}
	rank := 0
	for _, c := range s[1:] {
		if c < '0' || c > '9' {
			return NoSquare, fmt.Errorf("invalid rank in square: %q", s)
		}
		rank = rank*10 + int(c-'0')
	}
	if rank >= RankCount {
		return NoSquare, fmt.Errorf("invalid rank in square: %q", s)
	}
	return NewSquare(file, rank), nil
}
