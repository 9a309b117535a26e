package board

import "sync"

type ZobristTable struct {
	size  int
	cells []uint64
}

type zobristStore struct {
	mu     sync.Mutex
	tables map[int]*ZobristTable
}

var zobristTables = &zobristStore{tables: make(map[int]*ZobristTable)}

// GetZobrist returns the key table for a board size. Keys are derived from a
// fixed seed so hashes are stable across processes.
func GetZobrist(size int) *ZobristTable {
	zobristTables.mu.Lock()
	defer zobristTables.mu.Unlock()
	if table, ok := zobristTables.tables[size]; ok {
		return table
	}
	rng := splitmix64{state: uint64(0x9e3779b97f4a7c15) ^ uint64(size)}
	table := &ZobristTable{size: size, cells: make([]uint64, size*size*2)}
	for i := range table.cells {
		table.cells[i] = rng.next()
	}
	zobristTables.tables[size] = table
	return table
}

func (z *ZobristTable) Key(player Player, row, col int) uint64 {
	idx := (row*z.size + col) * 2
	if player == PlayerTwo {
		idx++
	}
	return z.cells[idx]
}

// ComputeHash rebuilds the hash of s from scratch.
func ComputeHash(s *State) uint64 {
	z := GetZobrist(s.size)
	var hash uint64
	for i := range s.fields {
		f := &s.fields[i]
		player, err := PlayerFromCell(f.cell)
		if err != nil {
			continue
		}
		hash ^= z.Key(player, f.row, f.col)
	}
	return hash
}

type splitmix64 struct {
	state uint64
}

func (s *splitmix64) next() uint64 {
	s.state += 0x9e3779b97f4a7c15
	z := s.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
