// Package nn defines the evaluator contract the search consumes. The
// real network backend lives outside the engine core; the evaluators
// here are lightweight stand-ins for self-play and tests.
package nn

import (
	"math"

	"github.com/awesome-archive/cczero/internal/board"
)

// Evaluator scores a position. Priors are returned parallel to legal,
// the value is in [-1, 1] from the side to move's perspective.
type Evaluator interface {
	Evaluate(history *board.PositionHistory, legal board.MoveList) (priors []float32, value float32)
}

// Uniform assigns equal priors and a neutral value everywhere.
type Uniform struct{}

// Evaluate implements Evaluator.
func (Uniform) Evaluate(_ *board.PositionHistory, legal board.MoveList) ([]float32, float32) {
	priors := make([]float32, len(legal))
	if len(legal) == 0 {
		return priors, 0
	}
	p := 1 / float32(len(legal))
	for i := range priors {
		priors[i] = p
	}
	return priors, 0
}

// materialValues is in soldier units.
var materialValues = [board.PieceTypeCount]float64{
	board.Soldier:  1,
	board.Cannon:   4.5,
	board.Chariot:  9,
	board.Horse:    4,
	board.Elephant: 2,
	board.Advisor:  2,
}

// Material combines uniform priors with a material count squashed into
// [-1, 1]. It keeps self-play games decisive without a network.
type Material struct{}

// Evaluate implements Evaluator.
func (Material) Evaluate(history *board.PositionHistory, legal board.MoveList) ([]float32, float32) {
	priors, _ := Uniform{}.Evaluate(history, legal)

	pos := history.Last()
	diff := 0.0
	for sq := board.Square(0); sq < board.SquareCount; sq++ {
		piece := pos.Board.PieceAt(sq)
		if piece == board.NoPiece {
			continue
		}
		v := materialValues[piece.Type()]
		if piece.Color() == pos.SideToMove {
			diff += v
		} else {
			diff -= v
		}
	}
	return priors, float32(math.Tanh(diff / 12))
}
