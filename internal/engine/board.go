package engine

import (
	"goban/internal/domain/game"
	"goban/internal/errors"
)

// Board holds the stone graph for one game. It is not safe for concurrent
// use; the owning session serializes access.
type Board struct {
	Size   int
	stones map[game.Position]game.Color
	ko     *game.Position
}

func NewBoard(size int) *Board {
	return &Board{
		Size:   size,
		stones: make(map[game.Position]game.Color),
	}
}

func (b *Board) Inside(p game.Position) bool {
	return p.X >= 0 && p.X < b.Size && p.Y >= 0 && p.Y < b.Size
}

func (b *Board) At(p game.Position) (game.Color, bool) {
	c, ok := b.stones[p]
	return c, ok
}

// Ko returns the position currently banned for recapture, if any.
func (b *Board) Ko() *game.Position {
	return b.ko
}

func (b *Board) StoneCount() int {
	return len(b.stones)
}

// Stones returns a copy of the current stone set for snapshots.
func (b *Board) Stones() []game.Stone {
	out := make([]game.Stone, 0, len(b.stones))
	for p, c := range b.stones {
		out = append(out, game.Stone{Position: p, Color: c})
	}
	return out
}

func (b *Board) neighbors(p game.Position) []game.Position {
	candidates := [4]game.Position{
		{X: p.X - 1, Y: p.Y},
		{X: p.X + 1, Y: p.Y},
		{X: p.X, Y: p.Y - 1},
		{X: p.X, Y: p.Y + 1},
	}
	out := make([]game.Position, 0, 4)
	for _, n := range candidates {
		if b.Inside(n) {
			out = append(out, n)
		}
	}
	return out
}

// Group collects the connected same-color group containing p with an explicit
// stack instead of recursion, so depth is bounded on large boards.
func (b *Board) Group(p game.Position) []game.Position {
	color, ok := b.stones[p]
	if !ok {
		return nil
	}
	visited := map[game.Position]bool{p: true}
	stack := []game.Position{p}
	group := []game.Position{p}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, n := range b.neighbors(cur) {
			if visited[n] {
				continue
			}
			if c, ok := b.stones[n]; ok && c == color {
				visited[n] = true
				stack = append(stack, n)
				group = append(group, n)
			}
		}
	}
	return group
}

// Liberties counts distinct empty intersections adjacent to any stone of the
// group.
func (b *Board) Liberties(group []game.Position) int {
	seen := make(map[game.Position]bool)
	for _, p := range group {
		for _, n := range b.neighbors(p) {
			if _, occupied := b.stones[n]; !occupied {
				seen[n] = true
			}
		}
	}
	return len(seen)
}

// PlaceResult describes the effect of an accepted placement.
type PlaceResult struct {
	Captured   []game.Position
	KoPosition *game.Position
}

// Place validates and applies a stone placement: occupied/ko rejection,
// opponent captures, suicide rejection with revert, and the new ko point.
// Captures are collected into a set before removal, so the outcome does not
// depend on neighbor visit order.
func (b *Board) Place(p game.Position, color game.Color) (PlaceResult, error) {
	if !b.Inside(p) {
		return PlaceResult{}, errors.ErrOutOfBoard
	}
	if _, occupied := b.stones[p]; occupied {
		return PlaceResult{}, errors.ErrCellOccupied
	}
	if b.ko != nil && *b.ko == p {
		return PlaceResult{}, errors.ErrKoViolation
	}

	b.stones[p] = color

	captured := make(map[game.Position]game.Color)
	for _, n := range b.neighbors(p) {
		c, ok := b.stones[n]
		if !ok || c == color {
			continue
		}
		if _, already := captured[n]; already {
			continue
		}
		group := b.Group(n)
		if b.Liberties(group) == 0 {
			for _, g := range group {
				captured[g] = c
			}
		}
	}
	for victim := range captured {
		delete(b.stones, victim)
	}

	own := b.Group(p)
	if b.Liberties(own) == 0 {
		// Captures would have opened liberties, so reaching here with zero
		// captures means suicide: revert the placement.
		delete(b.stones, p)
		return PlaceResult{}, errors.ErrSuicideMove
	}

	res := PlaceResult{Captured: make([]game.Position, 0, len(captured))}
	for victim := range captured {
		res.Captured = append(res.Captured, victim)
	}

	// Ko arises only from a single-stone capture by a lone stone left with
	// exactly one liberty (the mouth it just emptied). Any other move clears
	// the ban.
	b.ko = nil
	if len(res.Captured) == 1 && len(own) == 1 && b.Liberties(own) == 1 {
		ko := res.Captured[0]
		b.ko = &ko
		res.KoPosition = &ko
	}

	return res, nil
}

// PlaceSetup adds a stone without rule checks. Used for handicap placement.
func (b *Board) PlaceSetup(p game.Position, color game.Color) error {
	if !b.Inside(p) {
		return errors.ErrOutOfBoard
	}
	if _, occupied := b.stones[p]; occupied {
		return errors.ErrCellOccupied
	}
	b.stones[p] = color
	return nil
}
