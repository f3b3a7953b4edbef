package gtp

import (
	"fmt"
	"strconv"
	"strings"

	"goban/internal/domain/game"
)

// Column letters with I skipped, as GTP engines expect. The tail past T
// covers boards larger than 19x19.
const vertexLetters = "ABCDEFGHJKLMNOPQRSTUVWXYZ"

// Pass is the GTP vertex denoting no move.
const Pass = "pass"

// ToVertex encodes a 0-indexed board position as a GTP vertex. Rows are
// numbered from the edge opposite y=0, so (0,0) on a 19x19 board is A19.
func ToVertex(p game.Position, size int) (string, error) {
	if p.X < 0 || p.X >= size || p.Y < 0 || p.Y >= size || size > len(vertexLetters) {
		return "", fmt.Errorf("position (%d,%d) is outside a %dx%d board", p.X, p.Y, size, size)
	}
	return fmt.Sprintf("%c%d", vertexLetters[p.X], size-p.Y), nil
}

// ParseVertex decodes a GTP vertex. A nil position means pass.
func ParseVertex(s string, size int) (*game.Position, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return nil, fmt.Errorf("empty vertex")
	}
	if strings.EqualFold(s, Pass) {
		return nil, nil
	}
	col := strings.IndexByte(vertexLetters, s[0])
	if col < 0 || col >= size {
		return nil, fmt.Errorf("bad vertex column in %q", s)
	}
	row, err := strconv.Atoi(s[1:])
	if err != nil || row < 1 || row > size {
		return nil, fmt.Errorf("bad vertex row in %q", s)
	}
	return &game.Position{X: col, Y: size - row}, nil
}

func colorName(c game.Color) string {
	if c == game.Black {
		return "black"
	}
	return "white"
}
