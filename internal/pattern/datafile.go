package pattern

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gomoku/internal/board"
)

const (
	sectionEval        = "[eval]"
	sectionThreats     = "[threats]"
	sectionRefutations = "[refutations]"
)

var (
	ErrMalformedRecord = errors.New("pattern: malformed record")
	ErrEmptyTable      = errors.New("pattern: no evaluation records")
)

// Write serializes t in the sectioned text format read by Load. Zero scores
// and unreachable windows are omitted.
func (t *Tables) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "# gomoku pattern tables: window,player,...")
	fmt.Fprintln(bw, sectionEval)
	t.eachReachable(func(key int, win Window, e *Entry) {
		for _, p := range players {
			if score := e.Scores[p-1]; score != 0 {
				fmt.Fprintf(bw, "%s,%d,%d\n", win, p, score)
			}
		}
	})
	fmt.Fprintln(bw, sectionThreats)
	t.eachReachable(func(key int, win Window, e *Entry) {
		for _, threat := range e.Threats {
			fmt.Fprintf(bw, "%s,%d,%s,%s\n", win, threat.Player, threat.Class, joinSquares(threat.Squares))
		}
	})
	fmt.Fprintln(bw, sectionRefutations)
	t.eachReachable(func(key int, win Window, e *Entry) {
		for _, ref := range e.Refutations {
			fmt.Fprintf(bw, "%s,%d,%s\n", win, ref.Player, joinSquares(ref.Squares))
		}
	})
	return bw.Flush()
}

func (t *Tables) eachReachable(fn func(key int, win Window, e *Entry)) {
	for key := range t.entries {
		win := Decode(key)
		if !Reachable(win) {
			continue
		}
		fn(key, win, &t.entries[key])
	}
}

func joinSquares(squares []uint8) string {
	parts := make([]string, len(squares))
	for i, sq := range squares {
		parts[i] = strconv.Itoa(int(sq))
	}
	return strings.Join(parts, ",")
}

// LoadFile reads tables written by Write.
func LoadFile(path string) (*Tables, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pattern: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses the data file. Any malformed record fails the whole load.
func Load(r io.Reader) (*Tables, error) {
	t := newTables()
	sc := bufio.NewScanner(r)
	section := ""
	lineNo := 0
	evalRecords := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			switch line {
			case sectionEval, sectionThreats, sectionRefutations:
				section = line
				continue
			}
			return nil, fmt.Errorf("pattern: line %d: %w: unknown section %s", lineNo, ErrMalformedRecord, line)
		}
		fields := strings.Split(line, ",")
		var err error
		switch section {
		case sectionEval:
			err = t.loadEval(fields)
			evalRecords++
		case sectionThreats:
			err = t.loadThreat(fields)
		case sectionRefutations:
			err = t.loadRefutation(fields)
		default:
			err = fmt.Errorf("%w: record outside a section", ErrMalformedRecord)
		}
		if err != nil {
			return nil, fmt.Errorf("pattern: line %d: %w", lineNo, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("pattern: read: %w", err)
	}
	if evalRecords == 0 {
		return nil, ErrEmptyTable
	}
	return t, nil
}

func (t *Tables) loadEval(fields []string) error {
	if len(fields) != 3 {
		return fmt.Errorf("%w: eval wants 3 fields, got %d", ErrMalformedRecord, len(fields))
	}
	key, player, err := parseHead(fields)
	if err != nil {
		return err
	}
	score, err := strconv.ParseInt(fields[2], 10, 32)
	if err != nil {
		return fmt.Errorf("%w: score %q", ErrMalformedRecord, fields[2])
	}
	t.entries[key].Scores[player-1] = int32(score)
	return nil
}

func (t *Tables) loadThreat(fields []string) error {
	if len(fields) < 4 {
		return fmt.Errorf("%w: threat wants at least 4 fields, got %d", ErrMalformedRecord, len(fields))
	}
	key, player, err := parseHead(fields)
	if err != nil {
		return err
	}
	class, ok := ParseClass(fields[2])
	if !ok {
		return fmt.Errorf("%w: class %q", ErrMalformedRecord, fields[2])
	}
	squares, err := parseSquares(fields[3:])
	if err != nil {
		return err
	}
	e := &t.entries[key]
	e.Threats = append(e.Threats, Threat{Squares: squares, Player: player, Class: class})
	return nil
}

func (t *Tables) loadRefutation(fields []string) error {
	if len(fields) < 3 {
		return fmt.Errorf("%w: refutation wants at least 3 fields, got %d", ErrMalformedRecord, len(fields))
	}
	key, player, err := parseHead(fields)
	if err != nil {
		return err
	}
	squares, err := parseSquares(fields[2:])
	if err != nil {
		return err
	}
	e := &t.entries[key]
	e.Refutations = append(e.Refutations, Refutation{Squares: squares, Player: player})
	return nil
}

func parseHead(fields []string) (int, board.Player, error) {
	win, ok := ParseWindow(fields[0])
	if !ok || !Reachable(win) {
		return 0, 0, fmt.Errorf("%w: window %q", ErrMalformedRecord, fields[0])
	}
	switch fields[1] {
	case "1":
		return Key(win), board.PlayerOne, nil
	case "2":
		return Key(win), board.PlayerTwo, nil
	}
	return 0, 0, fmt.Errorf("%w: player %q", ErrMalformedRecord, fields[1])
}

func parseSquares(fields []string) ([]uint8, error) {
	squares := make([]uint8, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil || v < 0 || v >= WindowSize {
			return nil, fmt.Errorf("%w: offset %q", ErrMalformedRecord, f)
		}
		squares = append(squares, uint8(v))
	}
	return squares, nil
}
