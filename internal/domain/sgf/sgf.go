package sgf

// GameTree представляет одно дерево в SGF (узел + варианты)
type GameTree struct {
	Nodes    []Node      // Последовательность узлов (основная линия)
	Children []*GameTree // Вариативные линии
}

// Node представляет один узел SGF (набор свойств, таких как B[pd], W[dd])
type Node struct {
	Properties map[string][]string
}

// SGF представляет корневой элемент SGF-файла
type SGF struct {
	Root *GameTree
}
