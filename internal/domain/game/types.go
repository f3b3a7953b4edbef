package game

// Color of a stone or a player side.
type Color string

const (
	Black Color = "black"
	White Color = "white"
)

func (c Color) Opponent() Color {
	if c == Black {
		return White
	}
	return Black
}

// Short returns the one-letter form used in result codes and SGF ("B"/"W").
func (c Color) Short() string {
	if c == Black {
		return "B"
	}
	return "W"
}

// Position — координаты пересечения доски, 0-indexed.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Stone struct {
	Position Position `json:"position"`
	Color    Color    `json:"color"`
}

// Ruleset selects the scoring formula.
type Ruleset string

const (
	RulesetChinese  Ruleset = "chinese"
	RulesetJapanese Ruleset = "japanese"
	RulesetKorean   Ruleset = "korean"
	RulesetAGA      Ruleset = "aga"
	RulesetIng      Ruleset = "ing"
)

// DefaultKomi returns the compensation White receives under the ruleset.
func DefaultKomi(r Ruleset) float64 {
	switch r {
	case RulesetJapanese, RulesetKorean:
		return 6.5
	case RulesetIng:
		return 8
	default:
		return 7.5
	}
}
