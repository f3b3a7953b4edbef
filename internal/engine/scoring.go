package engine

import (
	"fmt"
	"math"

	"goban/internal/domain/game"
)

// ScoreBreakdown — слагаемые очков одной стороны.
type ScoreBreakdown struct {
	Territory float64 `json:"territory"`
	Stones    float64 `json:"stones"`
	Captures  float64 `json:"captures"`
	Komi      float64 `json:"komi"`
	Total     float64 `json:"total"`
}

type ScoreResult struct {
	Black          ScoreBreakdown  `json:"black"`
	White          ScoreBreakdown  `json:"white"`
	TerritoryBlack []game.Position `json:"territory_black"`
	TerritoryWhite []game.Position `json:"territory_white"`
	NeutralPoints  int             `json:"neutral_points"`
	Winner         game.Color      `json:"winner,omitempty"` // empty on draw
	Result         string          `json:"result"`           // "B+2.5", "W+0.5", "draw"
}

// Score computes territory and per-ruleset totals. Dead-marked stones are
// treated as empty for territory and counted as prisoners where the ruleset
// uses captures.
func Score(b *Board, dead map[game.Position]bool, captured map[game.Color]int, ruleset game.Ruleset, komi float64) ScoreResult {
	if komi <= 0 {
		komi = game.DefaultKomi(ruleset)
	}

	terrBlack, terrWhite, neutral := territories(b, dead)

	liveBlack, liveWhite := 0, 0
	deadBlack, deadWhite := 0, 0
	for _, s := range b.Stones() {
		if dead[s.Position] {
			if s.Color == game.Black {
				deadBlack++
			} else {
				deadWhite++
			}
			continue
		}
		if s.Color == game.Black {
			liveBlack++
		} else {
			liveWhite++
		}
	}

	// Dead opponent stones count as extra prisoners.
	capBlack := float64(captured[game.Black] + deadWhite)
	capWhite := float64(captured[game.White] + deadBlack)

	res := ScoreResult{
		TerritoryBlack: terrBlack,
		TerritoryWhite: terrWhite,
		NeutralPoints:  neutral,
	}
	res.Black.Territory = float64(len(terrBlack))
	res.White.Territory = float64(len(terrWhite))
	res.White.Komi = komi

	switch ruleset {
	case game.RulesetJapanese:
		res.Black.Captures = capBlack
		res.White.Captures = capWhite
	case game.RulesetAGA, game.RulesetIng:
		res.Black.Stones = float64(liveBlack)
		res.White.Stones = float64(liveWhite)
		res.Black.Captures = capBlack
		res.White.Captures = capWhite
	default: // Chinese and Korean: area counting
		res.Black.Stones = float64(liveBlack)
		res.White.Stones = float64(liveWhite)
	}

	res.Black.Total = res.Black.Territory + res.Black.Stones + res.Black.Captures
	res.White.Total = res.White.Territory + res.White.Stones + res.White.Captures + res.White.Komi

	switch {
	case res.Black.Total > res.White.Total:
		res.Winner = game.Black
		res.Result = FormatScoreResult(game.Black, res.Black.Total-res.White.Total)
	case res.White.Total > res.Black.Total:
		res.Winner = game.White
		res.Result = FormatScoreResult(game.White, res.White.Total-res.Black.Total)
	default:
		res.Result = "draw"
	}

	return res
}

// FormatScoreResult renders the "<winner>+<margin>" result code.
func FormatScoreResult(winner game.Color, margin float64) string {
	if margin == math.Trunc(margin) {
		return fmt.Sprintf("%s+%.0f", winner.Short(), margin)
	}
	return fmt.Sprintf("%s+%.1f", winner.Short(), margin)
}

// territories flood-fills every empty (or dead-marked) point into connected
// regions. A region belongs to a color only if it borders live stones of that
// color alone; otherwise it is dame.
func territories(b *Board, dead map[game.Position]bool) (black, white []game.Position, neutral int) {
	emptyAt := func(p game.Position) bool {
		if _, ok := b.At(p); !ok {
			return true
		}
		return dead[p]
	}

	visited := make(map[game.Position]bool)
	for y := 0; y < b.Size; y++ {
		for x := 0; x < b.Size; x++ {
			start := game.Position{X: x, Y: y}
			if visited[start] || !emptyAt(start) {
				continue
			}

			region := []game.Position{start}
			visited[start] = true
			stack := []game.Position{start}
			bordersBlack, bordersWhite := false, false

			for len(stack) > 0 {
				cur := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				for _, n := range b.neighbors(cur) {
					if emptyAt(n) {
						if !visited[n] {
							visited[n] = true
							stack = append(stack, n)
							region = append(region, n)
						}
						continue
					}
					c, _ := b.At(n)
					if c == game.Black {
						bordersBlack = true
					} else {
						bordersWhite = true
					}
				}
			}

			switch {
			case bordersBlack && !bordersWhite:
				black = append(black, region...)
			case bordersWhite && !bordersBlack:
				white = append(white, region...)
			default:
				neutral += len(region)
			}
		}
	}
	return black, white, neutral
}

// ToggleDeadStones flips death marking for the whole group at p. If more than
// half of the group is already marked, the group is un-marked instead, so
// repeated clicks on a partially marked group settle instead of flickering.
// With autoDetect enabled, marking additionally spreads to same-color groups
// left with at most one liberty. Returns true if the dead set changed.
func ToggleDeadStones(b *Board, dead map[game.Position]bool, p game.Position, autoDetect bool) bool {
	color, ok := b.At(p)
	if !ok {
		return false
	}
	group := b.Group(p)

	marked := 0
	for _, g := range group {
		if dead[g] {
			marked++
		}
	}

	if marked*2 > len(group) {
		for _, g := range group {
			delete(dead, g)
		}
		return true
	}

	for _, g := range group {
		dead[g] = true
	}

	if autoDetect {
		seen := make(map[game.Position]bool, len(group))
		for _, g := range group {
			seen[g] = true
		}
		for _, s := range b.Stones() {
			if s.Color != color || dead[s.Position] || seen[s.Position] {
				continue
			}
			other := b.Group(s.Position)
			for _, g := range other {
				seen[g] = true
			}
			if b.Liberties(other) <= 1 {
				for _, g := range other {
					dead[g] = true
				}
			}
		}
	}
	return true
}
