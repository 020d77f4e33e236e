package board

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseStartFEN(t *testing.T) {
	pos, err := ParseFEN(StartFEN)
	require.NoError(t, err)

	require.Equal(t, Red, pos.SideToMove)
	require.Equal(t, 0, pos.NoCapturePly)
	require.Equal(t, 1, pos.FullMoveNumber)

	require.Equal(t, RedKing, pos.Board.PieceAt(NewSquare(4, 0)))
	require.Equal(t, BlackKing, pos.Board.PieceAt(NewSquare(4, 9)))
	require.Equal(t, RedCannon, pos.Board.PieceAt(NewSquare(1, 2)))
	require.Equal(t, BlackCannon, pos.Board.PieceAt(NewSquare(7, 7)))
	require.Equal(t, RedSoldier, pos.Board.PieceAt(NewSquare(0, 3)))
	require.Equal(t, BlackSoldier, pos.Board.PieceAt(NewSquare(8, 6)))
}

func TestFENRoundTrip(t *testing.T) {
	pos, err := ParseFEN(StartFEN)
	require.NoError(t, err)
	require.Equal(t, StartFEN, pos.FEN())
}

func TestParseFENErrors(t *testing.T) {
	cases := []string{
		"",
		"rnbakabnr/9/1c5c1 w",                 // too few ranks
		"rnbakabnr/9/1c5c1/p1p1p1p1p/9/9/P1P1P1P1P/1C5C1/9/RNBAQABNR w - - 0 1", // bad piece
		"rnbakabnr/9/1c5c1/p1p1p1p1p/9/9/P1P1P1P1P/1C5C1/9/RNBAKABNR x - - 0 1", // bad side
	}
	for _, fen := range cases {
		_, err := ParseFEN(fen)
		require.Error(t, err, "FEN %q should not parse", fen)
	}
}

func TestMirrorRoundTrip(t *testing.T) {
	for from := Square(0); from < SquareCount; from++ {
		m := NewMove(from, NewSquare(4, 5))
		require.Equal(t, m, m.Mirror().Mirror())
	}
	m, err := ParseMove("h2e2")
	require.NoError(t, err)
	require.Equal(t, "h7e7", m.Mirror().String())
}

func TestNNIndex(t *testing.T) {
	m := NewMove(NewSquare(0, 0), NewSquare(0, 1))
	require.Equal(t, 9, m.NNIndex())
	require.Less(t, m.NNIndex(), PolicySize)
}

func TestOpeningMoveCount(t *testing.T) {
	pos, err := ParseFEN(StartFEN)
	require.NoError(t, err)

	moves := pos.GenerateLegalMoves()
	require.Len(t, moves, 44)
}

func TestGenerationOrderDeterministic(t *testing.T) {
	pos, err := ParseFEN(StartFEN)
	require.NoError(t, err)

	first := pos.GenerateLegalMoves()
	second := pos.GenerateLegalMoves()
	require.Equal(t, first, second)
}

func TestFlyingGeneralIllegal(t *testing.T) {
	// Bare kings on the same file: any king move staying on the file is
	// illegal, stepping aside is legal.
	pos, err := ParseFEN("4k4/9/9/9/9/9/9/9/9/4K4 w - - 0 1")
	require.NoError(t, err)

	moves := pos.GenerateLegalMoves()
	require.NotEmpty(t, moves)
	for _, m := range moves {
		require.NotEqual(t, 4, m.To().File(), "move %v leaves the kings facing", m)
	}
}

func TestHorseLegBlocked(t *testing.T) {
	// A horse on e4 with a blocker on e5 loses its two forward moves.
	free, err := ParseFEN("4k4/9/9/9/9/4N4/9/9/9/3K5 w - - 0 1")
	require.NoError(t, err)
	blocked, err := ParseFEN("4k4/9/9/9/4p4/4N4/9/9/9/3K5 w - - 0 1")
	require.NoError(t, err)

	horse := NewSquare(4, 4)
	count := func(p *Position) int {
		n := 0
		for _, m := range p.GenerateLegalMoves() {
			if m.From() == horse {
				n++
			}
		}
		return n
	}
	require.Equal(t, count(free)-2, count(blocked))
}

func TestCannonNeedsScreen(t *testing.T) {
	// Cannon on e4 faces the black king on e9 with a single screen on
	// e7: the capture is generated, a slide onto the screen's square
	// is not.
	pos, err := ParseFEN("4k4/9/4p4/9/9/4C4/9/9/9/3K5 w - - 0 1")
	require.NoError(t, err)

	var targets []Square
	for _, m := range pos.GenerateLegalMoves() {
		if m.From() == NewSquare(4, 4) {
			targets = append(targets, m.To())
		}
	}
	require.Contains(t, targets, NewSquare(4, 9), "screen capture of the king square")
	require.NotContains(t, targets, NewSquare(4, 7), "cannot land on the screen")
	require.NotContains(t, targets, NewSquare(4, 8), "cannot slide past the screen")
}

func TestSoldierAcrossRiver(t *testing.T) {
	own, err := ParseFEN("4k4/9/9/9/9/4P4/9/9/9/3K5 w - - 0 1")
	require.NoError(t, err)
	// Red soldier on its own side: forward only.
	var fromSoldier MoveList
	for _, m := range own.GenerateLegalMoves() {
		if m.From() == NewSquare(4, 4) {
			fromSoldier = append(fromSoldier, m)
		}
	}
	require.Len(t, fromSoldier, 1)

	crossed, err := ParseFEN("4k4/9/9/9/4P4/9/9/9/9/3K5 w - - 0 1")
	require.NoError(t, err)
	fromSoldier = nil
	for _, m := range crossed.GenerateLegalMoves() {
		if m.From() == NewSquare(4, 5) {
			fromSoldier = append(fromSoldier, m)
		}
	}
	require.Len(t, fromSoldier, 3, "forward plus both sideways steps")
}

func TestApplyTogglesCounters(t *testing.T) {
	pos, err := ParseFEN(StartFEN)
	require.NoError(t, err)

	quiet := pos.Apply(NewMove(NewSquare(4, 3), NewSquare(4, 4)))
	require.Equal(t, Black, quiet.SideToMove)
	require.Equal(t, 1, quiet.NoCapturePly)
	require.Equal(t, 1, quiet.FullMoveNumber)

	reply := quiet.Apply(NewMove(NewSquare(4, 6), NewSquare(4, 5)))
	require.Equal(t, Red, reply.SideToMove)
	require.Equal(t, 2, reply.FullMoveNumber)

	capture := reply.Apply(NewMove(NewSquare(4, 4), NewSquare(4, 5)))
	require.Equal(t, 0, capture.NoCapturePly)
}

func TestPositionHash(t *testing.T) {
	a, err := ParseFEN(StartFEN)
	require.NoError(t, err)
	b, err := ParseFEN(StartFEN)
	require.NoError(t, err)
	require.Equal(t, a.Hash(), b.Hash())

	moved := a.Apply(NewMove(NewSquare(4, 3), NewSquare(4, 4)))
	require.NotEqual(t, a.Hash(), moved.Hash())

	flipped := *a
	flipped.SideToMove = Black
	require.NotEqual(t, a.Hash(), flipped.Hash())
}

func TestResult(t *testing.T) {
	pos, err := ParseFEN(StartFEN)
	require.NoError(t, err)
	require.Equal(t, Ongoing, pos.Result(pos.GenerateLegalMoves()))

	require.Equal(t, BlackWon, pos.Result(nil))

	black := *pos
	black.SideToMove = Black
	require.Equal(t, RedWon, black.Result(nil))

	drawn := *pos
	drawn.NoCapturePly = NoCaptureDrawPlies
	require.Equal(t, Draw, drawn.Result(drawn.GenerateLegalMoves()))
}

func TestPositionHistory(t *testing.T) {
	pos, err := ParseFEN(StartFEN)
	require.NoError(t, err)

	var h PositionHistory
	h.Reset(*pos)
	require.Equal(t, 1, h.Len())
	require.Equal(t, h.Starting(), h.Last())

	h.Append(NewMove(NewSquare(4, 3), NewSquare(4, 4)))
	require.Equal(t, 2, h.Len())
	require.Equal(t, Black, h.Last().SideToMove)
	require.Equal(t, Red, h.Starting().SideToMove)
}
