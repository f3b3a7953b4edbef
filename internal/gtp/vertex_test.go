package gtp

import (
	"testing"

	"github.com/stretchr/testify/require"

	"goban/internal/domain/game"
)

func TestToVertex(t *testing.T) {
	v, err := ToVertex(game.Position{X: 0, Y: 0}, 19)
	require.NoError(t, err)
	require.Equal(t, "A19", v)

	v, err = ToVertex(game.Position{X: 18, Y: 18}, 19)
	require.NoError(t, err)
	require.Equal(t, "T1", v)

	// Колонка I пропускается: девятый столбец — J.
	v, err = ToVertex(game.Position{X: 8, Y: 0}, 19)
	require.NoError(t, err)
	require.Equal(t, "J19", v)

	v, err = ToVertex(game.Position{X: 3, Y: 15}, 19)
	require.NoError(t, err)
	require.Equal(t, "D4", v)

	_, err = ToVertex(game.Position{X: 19, Y: 0}, 19)
	require.Error(t, err)
	_, err = ToVertex(game.Position{X: 0, Y: -1}, 19)
	require.Error(t, err)
}

func TestParseVertex(t *testing.T) {
	p, err := ParseVertex("A19", 19)
	require.NoError(t, err)
	require.Equal(t, &game.Position{X: 0, Y: 0}, p)

	p, err = ParseVertex("j1", 19)
	require.NoError(t, err)
	require.Equal(t, &game.Position{X: 8, Y: 18}, p)

	p, err = ParseVertex(" D4 ", 19)
	require.NoError(t, err)
	require.Equal(t, &game.Position{X: 3, Y: 15}, p)

	p, err = ParseVertex("PASS", 19)
	require.NoError(t, err)
	require.Nil(t, p)

	_, err = ParseVertex("I5", 19)
	require.Error(t, err)
	_, err = ParseVertex("A20", 19)
	require.Error(t, err)
	_, err = ParseVertex("A0", 19)
	require.Error(t, err)
	_, err = ParseVertex("", 19)
	require.Error(t, err)
}

// Доски крупнее 19x19 используют буквы за T (I по-прежнему пропускается).
func TestVertexLargeBoard(t *testing.T) {
	v, err := ToVertex(game.Position{X: 20, Y: 0}, 21)
	require.NoError(t, err)
	require.Equal(t, "V21", v)

	for _, p := range []game.Position{{X: 0, Y: 0}, {X: 19, Y: 19}, {X: 20, Y: 20}} {
		v, err := ToVertex(p, 21)
		require.NoError(t, err)
		back, err := ParseVertex(v, 21)
		require.NoError(t, err)
		require.Equal(t, p, *back)
	}

	_, err = ToVertex(game.Position{X: 21, Y: 0}, 21)
	require.Error(t, err)
}

func TestVertexRoundTripSmallBoard(t *testing.T) {
	for _, p := range []game.Position{{X: 0, Y: 0}, {X: 8, Y: 8}, {X: 4, Y: 2}} {
		v, err := ToVertex(p, 9)
		require.NoError(t, err)
		back, err := ParseVertex(v, 9)
		require.NoError(t, err)
		require.Equal(t, p, *back)
	}
}
