// Package selfplay plays engine-vs-engine games and extracts training
// records from the search tree at every ply.
package selfplay

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"github.com/awesome-archive/cczero/internal/board"
	"github.com/awesome-archive/cczero/internal/mcts"
	"github.com/awesome-archive/cczero/internal/nn"
	"github.com/awesome-archive/cczero/internal/search"
)

// Config controls one self-play game.
type Config struct {
	Playouts int
	Workers  int
	CPuct    float32

	// MaxPlies caps game length; longer games score as draws.
	MaxPlies int

	// TemperaturePlies is how many opening plies sample the move by
	// visit counts instead of playing the most visited one.
	TemperaturePlies int
}

// DefaultConfig returns a configuration suitable for quick self-play.
func DefaultConfig() Config {
	return Config{
		Playouts:         400,
		Workers:          2,
		MaxPlies:         300,
		TemperaturePlies: 20,
	}
}

// Play runs one game from the starting position and returns the
// per-ply training records with their result fields stamped from the
// final outcome.
func Play(ctx context.Context, eval nn.Evaluator, cfg Config, rng *rand.Rand) ([]mcts.V3TrainingData, board.Outcome, error) {
	tree := mcts.NewNodeTree()
	if err := tree.ResetToPosition(board.StartFEN, nil); err != nil {
		return nil, board.Ongoing, err
	}
	defer tree.DeallocateTree()

	params := search.Params{Workers: cfg.Workers, Playouts: cfg.Playouts, CPuct: cfg.CPuct}
	var records []mcts.V3TrainingData
	outcome := board.Ongoing

	for ply := 0; ; ply++ {
		pos := tree.HeadPosition()
		if outcome = pos.Result(pos.GenerateLegalMoves()); outcome != board.Ongoing {
			break
		}
		if ply >= cfg.MaxPlies {
			outcome = board.Draw
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, board.Ongoing, err
		}

		search.New(tree, eval, params).Run(ctx)

		head := tree.CurrentHead()
		if head.N() > 1 {
			// The result is stamped once the game is decided.
			records = append(records, head.GetV3TrainingData(board.Ongoing, tree.History()))
		}

		move, ok := pickMove(tree, rng, ply < cfg.TemperaturePlies)
		if !ok {
			return nil, board.Ongoing, fmt.Errorf("no visited move at ply %d", ply)
		}
		log.Debug().Int("ply", ply).Stringer("move", move).Msg("selfplay move")
		tree.MakeMove(move)
	}

	stampResults(records, outcome)
	return records, outcome, nil
}

// pickMove chooses the move to play: proportionally to visit counts
// while the temperature is on, the most visited move afterwards.
func pickMove(tree *mcts.NodeTree, rng *rand.Rand, sample bool) (board.Move, bool) {
	if !sample {
		return search.BestMove(tree)
	}
	moves, visits := search.VisitedMoves(tree)
	total := 0
	for _, v := range visits {
		total += v
	}
	if total == 0 {
		return board.NoMove, false
	}
	pick := rng.Intn(total)
	for i, v := range visits {
		if pick < v {
			return moves[i], true
		}
		pick -= v
	}
	return moves[len(moves)-1], true
}

// stampResults rewrites each record's result from the finished game's
// outcome, re-signed to the record's side to move.
func stampResults(records []mcts.V3TrainingData, outcome board.Outcome) {
	for i := range records {
		var result int8
		switch outcome {
		case board.RedWon:
			result = 1
		case board.BlackWon:
			result = -1
		}
		if result != 0 && records[i].SideToMove == 1 {
			result = -result
		}
		records[i].Result = result
	}
}
