package mcts

import (
	"bytes"
	"encoding/binary"

	"github.com/awesome-archive/cczero/internal/board"
	"github.com/awesome-archive/cczero/internal/encoder"
)

// TrainingVersion is the version byte of the training record layout.
const TrainingVersion = 3

// V3TrainingData is the fixed binary training record extracted from a
// search head. Field order is the wire order; Marshal emits the fields
// little-endian with no padding. The four castling flags do not exist
// in xiangqi and are always zero, kept for the pipeline's layout.
type V3TrainingData struct {
	Version         uint8
	Probabilities   [board.PolicySize]float32
	Planes          [encoder.TotalPlanes]uint64
	CastlingUsOOO   uint8
	CastlingUsOO    uint8
	CastlingThemOOO uint8
	CastlingThemOO  uint8
	SideToMove      uint8
	Rule50Count     uint8
	MoveCount       uint8
	Result          int8
}

// Marshal serializes the record in wire order.
func (d *V3TrainingData) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(binary.Size(d))
	if err := binary.Write(&buf, binary.LittleEndian, d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GetV3TrainingData snapshots the head's visit distribution and the
// encoded position planes into a training record. gameResult is the
// final outcome of the finished game; it is re-signed to the head's
// side-to-move perspective.
func (n *Node) GetV3TrainingData(gameResult board.Outcome, history *board.PositionHistory) V3TrainingData {
	var data V3TrainingData
	data.Version = TrainingVersion

	// The first visit was the expansion of the head itself.
	totalN := float32(n.N() - 1)
	for it := n.Edges(); it.Next(); {
		data.Probabilities[it.Move().NNIndex()] = float32(it.N()) / totalN
	}

	planes := encoder.EncodePositionForNN(history, encoder.HistoryPlies)
	for i, plane := range planes {
		data.Planes[i] = ReverseBitsInBytes(plane.Mask)
	}

	position := history.Last()
	if position.IsBlackToMove() {
		data.SideToMove = 1
	}
	data.Rule50Count = uint8(position.NoCapturePly)
	data.MoveCount = 0

	switch gameResult {
	case board.RedWon:
		data.Result = 1
	case board.BlackWon:
		data.Result = -1
	}
	if data.Result != 0 && position.IsBlackToMove() {
		data.Result = -data.Result
	}

	return data
}

// ReverseBitsInBytes reverses the bits within every byte of v; the
// training pipeline consumes plane masks in that byte-level bit order.
func ReverseBitsInBytes(v uint64) uint64 {
	v = ((v >> 1) & 0x5555555555555555) | ((v & 0x5555555555555555) << 1)
	v = ((v >> 2) & 0x3333333333333333) | ((v & 0x3333333333333333) << 2)
	v = ((v >> 4) & 0x0F0F0F0F0F0F0F0F) | ((v & 0x0F0F0F0F0F0F0F0F) << 4)
	return v
}
