package pattern

import "gomoku/internal/board"

const subWindow = board.WinLength

// emptyWeights scores a five-cell run by its number of empties: the fewer
// empties, the closer it is to completion.
var emptyWeights = [subWindow + 1]int32{0, 19, 15, 11, 7, 3}

// Shapes use 'x' for an own stone and '_' for an empty cell. The squares of a
// match are the empty cells of the shape.
var (
	fourShapes = []string{
		"xxxx_",
		"xxx_x",
		"xx_xx",
		"x_xxx",
		"_xxxx",
	}
	threeShapes = []string{
		"__xxx_",
		"_xxx__",
		"_xx_x_",
		"_x_xx_",
	}
	refutationShapes = []string{
		"xxx__",
		"xx_x_",
		"xx__x",
		"x_xx_",
		"x_x_x",
		"x__xx",
		"_xxx_",
		"_xx_x",
		"_x_xx",
		"__xxx",
	}
)

var players = [2]board.Player{board.PlayerOne, board.PlayerTwo}

// Generate builds the tables by enumerating every reachable window.
func Generate() *Tables {
	t := newTables()
	for key := 0; key < TableSize; key++ {
		w := Decode(key)
		if !Reachable(w) {
			continue
		}
		e := &t.entries[key]
		for _, p := range players {
			e.Scores[p-1] = evaluateWindow(w, p)
			threats := matchThreats(w, p)
			if len(threats) > 0 {
				e.Threats = append(e.Threats, threats...)
				continue
			}
			e.Refutations = append(e.Refutations, matchRefutations(w, p)...)
		}
	}
	return t
}

func evaluateWindow(w Window, player board.Player) int32 {
	own := player.Cell()
	var score int32
	for start := 0; start+subWindow <= WindowSize; start++ {
		stones, empties := 0, 0
		for i := start; i < start+subWindow; i++ {
			switch w[i] {
			case own:
				stones++
			case board.CellEmpty:
				empties++
			}
		}
		if stones == subWindow {
			return WinScore
		}
		if stones+empties == subWindow {
			score += emptyWeights[empties]
		}
	}
	return score
}

func matchThreats(w Window, player board.Player) []Threat {
	var out []Threat
	for _, shape := range fourShapes {
		for _, squares := range matchShape(w, player, shape) {
			out = append(out, Threat{Squares: squares, Player: player, Class: ClassFour})
		}
	}
	for _, shape := range threeShapes {
		for _, squares := range matchShape(w, player, shape) {
			out = append(out, Threat{Squares: squares, Player: player, Class: ClassThree})
		}
	}
	return out
}

func matchRefutations(w Window, player board.Player) []Refutation {
	var out []Refutation
	for _, shape := range refutationShapes {
		for _, squares := range matchShape(w, player, shape) {
			out = append(out, Refutation{Squares: squares, Player: player})
		}
	}
	return out
}

// matchShape returns the translated squares of every occurrence of shape.
func matchShape(w Window, player board.Player, shape string) [][]uint8 {
	own := player.Cell()
	var matches [][]uint8
	for start := 0; start+len(shape) <= WindowSize; start++ {
		ok := true
		for i := 0; i < len(shape) && ok; i++ {
			cell := w[start+i]
			switch shape[i] {
			case 'x':
				ok = cell == own
			case '_':
				ok = cell == board.CellEmpty
			}
		}
		if !ok {
			continue
		}
		var squares []uint8
		for i := 0; i < len(shape); i++ {
			if shape[i] == '_' {
				squares = append(squares, uint8(start+i))
			}
		}
		matches = append(matches, squares)
	}
	return matches
}
