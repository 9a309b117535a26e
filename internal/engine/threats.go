package engine

import (
	"sort"

	"gomoku/internal/board"
	"gomoku/internal/pattern"
)

// squareSet collects board squares without duplicates, keeping first-seen order.
type squareSet struct {
	seen   map[int]struct{}
	fields []*board.Field
	size   int
}

func newSquareSet(size int) *squareSet {
	return &squareSet{seen: make(map[int]struct{}), size: size}
}

func (q *squareSet) add(f *board.Field) {
	if f.IsOutOfBounds() || f.Cell() != board.CellEmpty {
		return
	}
	idx := f.Row()*q.size + f.Col()
	if _, ok := q.seen[idx]; ok {
		return
	}
	q.seen[idx] = struct{}{}
	q.fields = append(q.fields, f)
}

func (q *squareSet) merge(other *squareSet) {
	for _, f := range other.fields {
		q.add(f)
	}
}

func (q *squareSet) empty() bool {
	return len(q.fields) == 0
}

// threatScan is the per-node summary of every threat and refutation on the
// board, split by owner.
type threatScan struct {
	fours       *squareSet
	threes      [2]*squareSet
	refutations [2]*squareSet
	fourCount   [2]int
	threeCount  [2]int
}

// Reducer narrows the moves worth searching when forcing threats are on the
// board.
type Reducer struct {
	tables *pattern.Tables
}

func NewReducer(tables *pattern.Tables) *Reducer {
	return &Reducer{tables: tables}
}

func (r *Reducer) scan(s *board.State) *threatScan {
	size := s.Size()
	scan := &threatScan{fours: newSquareSet(size)}
	for i := range scan.threes {
		scan.threes[i] = newSquareSet(size)
		scan.refutations[i] = newSquareSet(size)
	}
	s.Occupied(func(f *board.Field, _ board.Player) {
		for _, axis := range board.Axes {
			window := f.Window(axis)
			entry := r.tables.Entry(pattern.WindowKey(f, axis))
			for _, threat := range entry.Threats {
				owner := threat.Player - 1
				switch threat.Class {
				case pattern.ClassFour:
					scan.fourCount[owner]++
					for _, sq := range threat.Squares {
						scan.fours.add(window[sq])
					}
				case pattern.ClassThree:
					scan.threeCount[owner]++
					for _, sq := range threat.Squares {
						scan.threes[owner].add(window[sq])
					}
				}
			}
			for _, ref := range entry.Refutations {
				for _, sq := range ref.Squares {
					scan.refutations[ref.Player-1].add(window[sq])
				}
			}
		}
	})
	return scan
}

// Reduce returns the forced move set for the side to move, or nil when no
// threat restricts the choice. The first matching rule wins:
//
//  1. a four of either player: every square completing or blocking a four
//  2. an own three: its squares plus the opponent's refutation squares
//  3. an opponent three: its squares plus the own refutation squares
//
// Squares are ordered by the side to move's field score.
func (r *Reducer) Reduce(s *board.State) []board.Move {
	scan := r.scan(s)
	me := s.ToMove() - 1
	opp := s.ToMove().Opponent() - 1

	var picked *squareSet
	switch {
	case scan.fourCount[0]+scan.fourCount[1] > 0:
		picked = scan.fours
	case scan.threeCount[me] > 0:
		picked = scan.threes[me]
		picked.merge(scan.refutations[opp])
	case scan.threeCount[opp] > 0:
		picked = scan.threes[opp]
		picked.merge(scan.refutations[me])
	}
	if picked == nil || picked.empty() {
		return nil
	}
	return r.order(s, picked.fields)
}

func (r *Reducer) order(s *board.State, fields []*board.Field) []board.Move {
	player := s.ToMove()
	scored := make([]scoredField, len(fields))
	for i, f := range fields {
		scored[i] = scoredField{field: f, score: r.tables.FieldScore(f, player)}
	}
	sortScoredFields(scored, s.Size())
	moves := make([]board.Move, len(scored))
	for i, sf := range scored {
		moves[i] = sf.field.Move()
	}
	return moves
}

type scoredField struct {
	field *board.Field
	score int32
}

// sortScoredFields orders by score, highest first, then by row-major index.
func sortScoredFields(fields []scoredField, size int) {
	sort.Slice(fields, func(i, j int) bool {
		if fields[i].score != fields[j].score {
			return fields[i].score > fields[j].score
		}
		a, b := fields[i].field, fields[j].field
		return a.Row()*size+a.Col() < b.Row()*size+b.Col()
	})
}
