package engine

import "goban/internal/domain/game"

// HandicapStones returns the standard star-point placement for the given
// board size and handicap count (2..9 on odd boards, 2..4 on even ones).
func HandicapStones(size, handicap int) []game.Position {
	if handicap < 2 {
		return nil
	}
	var edge int
	switch {
	case size >= 13:
		edge = 3
	case size >= 7:
		edge = 2
	default:
		return nil
	}
	lo, hi := edge, size-1-edge
	mid := size / 2

	corners := []game.Position{
		{X: hi, Y: lo},
		{X: lo, Y: hi},
		{X: hi, Y: hi},
		{X: lo, Y: lo},
	}
	sides := []game.Position{
		{X: lo, Y: mid},
		{X: hi, Y: mid},
		{X: mid, Y: lo},
		{X: mid, Y: hi},
	}
	center := game.Position{X: mid, Y: mid}

	if size%2 == 0 && handicap > 4 {
		handicap = 4
	}
	if handicap > 9 {
		handicap = 9
	}

	switch handicap {
	case 2, 3, 4:
		return corners[:handicap]
	case 5:
		return append(corners[:4:4], center)
	case 6:
		return append(corners[:4:4], sides[:2]...)
	case 7:
		return append(append(corners[:4:4], sides[:2]...), center)
	case 8:
		return append(corners[:4:4], sides...)
	default: // 9
		return append(append(corners[:4:4], sides...), center)
	}
}
