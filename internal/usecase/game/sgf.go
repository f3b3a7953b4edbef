package game

import (
	"fmt"
	"strconv"
	"strings"

	domain "goban/internal/domain/game"
	"goban/internal/domain/sgf"
	"goban/internal/session"
)

// BuildSGF renders a session snapshot as an SGF transcript. Produced from the
// move log; not needed for rules correctness.
func BuildSGF(snap session.Snapshot) string {
	tree := &sgf.GameTree{
		Nodes: []sgf.Node{
			{
				Properties: map[string][]string{
					"FF": {"4"},
					"GM": {"1"},
					"SZ": {strconv.Itoa(snap.BoardSize)},
					"PB": {snap.Players[domain.Black]},
					"PW": {snap.Players[domain.White]},
					"RE": {snap.Result},
					"KM": {strconv.FormatFloat(snap.Komi, 'f', 1, 64)},
					"RU": {string(snap.Ruleset)},
					"HA": {strconv.Itoa(snap.Handicap)},
				},
			},
		},
	}
	addMovesToTree(tree, snap.History)
	doc := sgf.SGF{Root: tree}
	return Serialize(&doc)
}

func addMovesToTree(tree *sgf.GameTree, moves []domain.MoveRecord) {
	for _, move := range moves {
		coords := "" // pass пишется пустыми скобками
		if !move.Pass && move.Position != nil {
			coords = sgfCoords(*move.Position)
		}
		tree.Nodes = append(tree.Nodes, sgf.Node{
			Properties: map[string][]string{
				move.Color.Short(): {coords},
			},
		})
	}
}

func sgfCoords(p domain.Position) string {
	return string(rune('a'+p.X)) + string(rune('a'+p.Y))
}

// Serialize writes the tree with a fixed root property order so transcripts
// are byte-stable.
func Serialize(s *sgf.SGF) string {
	var builder strings.Builder
	builder.WriteString("(")
	serializeGameTree(&builder, s.Root)
	builder.WriteString(")")
	return builder.String()
}

func serializeGameTree(builder *strings.Builder, tree *sgf.GameTree) {
	orderedKeys := []string{"FF", "GM", "SZ", "PB", "PW", "DT", "RE", "KM", "RU", "HA", "C", "B", "W"}
	for _, node := range tree.Nodes {
		builder.WriteString(";")

		used := make(map[string]bool)
		for _, key := range orderedKeys {
			if values, ok := node.Properties[key]; ok {
				used[key] = true
				for _, v := range values {
					builder.WriteString(fmt.Sprintf("%s[%s]", key, v))
				}
			}
		}
		for key, values := range node.Properties {
			if !used[key] {
				for _, v := range values {
					builder.WriteString(fmt.Sprintf("%s[%s]", key, v))
				}
			}
		}
	}

	for _, child := range tree.Children {
		builder.WriteString("(")
		serializeGameTree(builder, child)
		builder.WriteString(")")
	}
}
