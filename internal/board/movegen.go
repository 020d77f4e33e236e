package board

// Direction tables. Order is fixed: together with the ascending square
// scan in generatePseudoMoves it makes generation deterministic, which
// downstream code relies on for edge ordering.
var (
	orthoDirs    = [4][2]int{{0, 1}, {0, -1}, {-1, 0}, {1, 0}}
	diagDirs     = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	elephantDirs = [4][2]int{{2, 2}, {2, -2}, {-2, 2}, {-2, -2}}
	horseMoves   = [8][2]int{{1, 2}, {-1, 2}, {1, -2}, {-1, -2}, {2, 1}, {2, -1}, {-2, 1}, {-2, -1}}
)

// offset returns the square displaced by (df, dr), or NoSquare if it
// falls off the board.
func offset(sq Square, df, dr int) Square {
	f := sq.File() + df
	r := sq.Rank() + dr
	if f < 0 || f >= FileCount || r < 0 || r >= RankCount {
		return NoSquare
	}
	return NewSquare(f, r)
}

// horseLeg returns the blocking square for a horse on from moving by
// (df, dr).
func horseLeg(from Square, df, dr int) Square {
	if df == 2 || df == -2 {
		return offset(from, df/2, 0)
	}
	return offset(from, 0, dr/2)
}

// forward returns the rank direction the given color's soldiers move in.
func forward(c Color) int {
	if c == Red {
		return 1
	}
	return -1
}

// GenerateLegalMoves returns all legal moves for the side to move, in a
// deterministic order: ascending origin square, fixed direction tables.
func (p *Position) GenerateLegalMoves() MoveList {
	pseudo := p.generatePseudoMoves()
	us := p.SideToMove
	legal := make(MoveList, 0, len(pseudo))
	for _, m := range pseudo {
		next := p.Apply(m)
		king := next.Board.KingSquare(us)
		if king == NoSquare {
			continue
		}
		if kingsFacing(&next.Board) {
			continue
		}
		if attacked(&next.Board, king, us.Other()) {
			continue
		}
		legal = append(legal, m)
	}
	return legal
}

// InCheck returns true if the side to move's king is attacked or the
// kings are facing each other.
func (p *Position) InCheck() bool {
	king := p.Board.KingSquare(p.SideToMove)
	if king == NoSquare {
		return true
	}
	return kingsFacing(&p.Board) || attacked(&p.Board, king, p.SideToMove.Other())
}

// generatePseudoMoves generates moves obeying piece movement rules but
// not king safety.
func (p *Position) generatePseudoMoves() MoveList {
	us := p.SideToMove
	moves := make(MoveList, 0, 64)

	for from := Square(0); from < SquareCount; from++ {
		piece := p.Board[from]
		if piece == NoPiece || piece.Color() != us {
			continue
		}

		switch piece.Type() {
		case Soldier:
			moves = p.soldierMoves(moves, from, us)
		case Cannon:
			moves = p.cannonMoves(moves, from, us)
		case Chariot:
			moves = p.chariotMoves(moves, from, us)
		case Horse:
			moves = p.horseMovesFrom(moves, from, us)
		case Elephant:
			moves = p.elephantMoves(moves, from, us)
		case Advisor:
			moves = p.advisorMoves(moves, from, us)
		case King:
			moves = p.kingMoves(moves, from, us)
		}
	}

	return moves
}

func (p *Position) addIfNotOwn(moves MoveList, from, to Square, us Color) MoveList {
	if to == NoSquare {
		return moves
	}
	if piece := p.Board[to]; piece != NoPiece && piece.Color() == us {
		return moves
	}
	return append(moves, NewMove(from, to))
}

func (p *Position) soldierMoves(moves MoveList, from Square, us Color) MoveList {
	moves = p.addIfNotOwn(moves, from, offset(from, 0, forward(us)), us)
	if !from.OwnSide(us) {
		// Across the river soldiers also step sideways.
		moves = p.addIfNotOwn(moves, from, offset(from, -1, 0), us)
		moves = p.addIfNotOwn(moves, from, offset(from, 1, 0), us)
	}
	return moves
}

func (p *Position) chariotMoves(moves MoveList, from Square, us Color) MoveList {
	for _, d := range orthoDirs {
		for to := offset(from, d[0], d[1]); to != NoSquare; to = offset(to, d[0], d[1]) {
			piece := p.Board[to]
			if piece == NoPiece {
				moves = append(moves, NewMove(from, to))
				continue
			}
			if piece.Color() != us {
				moves = append(moves, NewMove(from, to))
			}
			break
		}
	}
	return moves
}

func (p *Position) cannonMoves(moves MoveList, from Square, us Color) MoveList {
	for _, d := range orthoDirs {
		to := offset(from, d[0], d[1])
		// Quiet slides up to the screen piece.
		for ; to != NoSquare && p.Board[to] == NoPiece; to = offset(to, d[0], d[1]) {
			moves = append(moves, NewMove(from, to))
		}
		if to == NoSquare {
			continue
		}
		// Jump the screen and capture the next piece if hostile.
		for to = offset(to, d[0], d[1]); to != NoSquare; to = offset(to, d[0], d[1]) {
			piece := p.Board[to]
			if piece == NoPiece {
				continue
			}
			if piece.Color() != us {
				moves = append(moves, NewMove(from, to))
			}
			break
		}
	}
	return moves
}

func (p *Position) horseMovesFrom(moves MoveList, from Square, us Color) MoveList {
	for _, d := range horseMoves {
		leg := horseLeg(from, d[0], d[1])
		if leg == NoSquare || p.Board[leg] != NoPiece {
			continue
		}
		moves = p.addIfNotOwn(moves, from, offset(from, d[0], d[1]), us)
	}
	return moves
}

func (p *Position) elephantMoves(moves MoveList, from Square, us Color) MoveList {
	for _, d := range elephantDirs {
		eye := offset(from, d[0]/2, d[1]/2)
		if eye == NoSquare || p.Board[eye] != NoPiece {
			continue
		}
		to := offset(from, d[0], d[1])
		if to == NoSquare || !to.OwnSide(us) {
			continue
		}
		moves = p.addIfNotOwn(moves, from, to, us)
	}
	return moves
}

func (p *Position) advisorMoves(moves MoveList, from Square, us Color) MoveList {
	for _, d := range diagDirs {
		to := offset(from, d[0], d[1])
		if to == NoSquare || !to.InPalace(us) {
			continue
		}
		moves = p.addIfNotOwn(moves, from, to, us)
	}
	return moves
}

func (p *Position) kingMoves(moves MoveList, from Square, us Color) MoveList {
	for _, d := range orthoDirs {
		to := offset(from, d[0], d[1])
		if to == NoSquare || !to.InPalace(us) {
			continue
		}
		moves = p.addIfNotOwn(moves, from, to, us)
	}
	return moves
}

// kingsFacing returns true if the two kings stand on the same file with
// no piece between them (the flying-general rule).
func kingsFacing(b *Board) bool {
	red := b.KingSquare(Red)
	black := b.KingSquare(Black)
	if red == NoSquare || black == NoSquare || red.File() != black.File() {
		return false
	}
	for sq := offset(red, 0, 1); sq != black; sq = offset(sq, 0, 1) {
		if sq == NoSquare {
			return false
		}
		if b[sq] != NoPiece {
			return false
		}
	}
	return true
}

// attacked returns true if the square is attacked by any piece of the
// given color. King adjacency is impossible in xiangqi (palaces never
// touch) and is covered by kingsFacing instead.
func attacked(b *Board, sq Square, by Color) bool {
	// Soldier attacks: a soldier one step behind its forward direction,
	// or beside the square once across the river.
	if s := offset(sq, 0, -forward(by)); s != NoSquare && b[s] == NewPiece(Soldier, by) {
		return true
	}
	for _, df := range [2]int{-1, 1} {
		if s := offset(sq, df, 0); s != NoSquare && b[s] == NewPiece(Soldier, by) && !s.OwnSide(by) {
			return true
		}
	}

	// Horse attacks, leg checked from the horse's square.
	for _, d := range horseMoves {
		h := offset(sq, -d[0], -d[1])
		if h == NoSquare || b[h] != NewPiece(Horse, by) {
			continue
		}
		if leg := horseLeg(h, d[0], d[1]); leg != NoSquare && b[leg] == NoPiece {
			return true
		}
	}

	// Chariot on the first piece of each ray, cannon on the second.
	chariot := NewPiece(Chariot, by)
	cannon := NewPiece(Cannon, by)
	for _, d := range orthoDirs {
		screen := false
		for s := offset(sq, d[0], d[1]); s != NoSquare; s = offset(s, d[0], d[1]) {
			piece := b[s]
			if piece == NoPiece {
				continue
			}
			if !screen {
				if piece == chariot {
					return true
				}
				screen = true
				continue
			}
			if piece == cannon {
				return true
			}
			break
		}
	}

	return false
}
