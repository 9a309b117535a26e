package pattern

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gomoku/internal/board"
)

const sampleFile = `# sample
[eval]
000010000,1,35
000110000,1,51
[threats]
001110000,1,three,0,1,5
001110000,1,three,1,5,6
[refutations]
201110200,1,1,5
`

func TestLoadSample(t *testing.T) {
	tables, err := Load(strings.NewReader(sampleFile))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := tables.Score(Key(mustWindow(t, "000010000")), board.PlayerOne); got != 35 {
		t.Fatalf("expected score 35, got %d", got)
	}
	if got := tables.Score(Key(mustWindow(t, "000010000")), board.PlayerTwo); got != 0 {
		t.Fatalf("expected omitted score to read as 0, got %d", got)
	}
	e := tables.Entry(Key(mustWindow(t, "001110000")))
	if len(e.Threats) != 2 || e.Threats[1].Class != ClassThree || len(e.Threats[1].Squares) != 3 {
		t.Fatalf("expected two three records, got %+v", e.Threats)
	}
	ref := tables.Entry(Key(mustWindow(t, "201110200"))).Refutations
	if len(ref) != 1 || ref[0].Squares[0] != 1 || ref[0].Squares[1] != 5 {
		t.Fatalf("expected refutation on [1 5], got %+v", ref)
	}
}

func TestWriteLoadKeepsGeneratedEntries(t *testing.T) {
	if testing.Short() {
		t.Skip("serializes the full table")
	}
	var buf bytes.Buffer
	if err := Default().Write(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	path := filepath.Join(t.TempDir(), "patterns.txt")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for _, literal := range []string{"000010000", "001110000", "011110000", "201110200", "333301120"} {
		key := Key(mustWindow(t, literal))
		want, got := Default().Entry(key), loaded.Entry(key)
		if want.Scores != got.Scores {
			t.Fatalf("%s: expected scores %v, got %v", literal, want.Scores, got.Scores)
		}
		if len(want.Threats) != len(got.Threats) || len(want.Refutations) != len(got.Refutations) {
			t.Fatalf("%s: expected %d threats and %d refutations, got %d and %d",
				literal, len(want.Threats), len(want.Refutations), len(got.Threats), len(got.Refutations))
		}
	}
}

func TestLoadRejectsMalformedRecords(t *testing.T) {
	cases := map[string]string{
		"bad player":     "[eval]\n000010000,3,35\n",
		"bad window":     "[eval]\n00001000,1,35\n",
		"unreachable":    "[eval]\n000030000,1,35\n",
		"bad score":      "[eval]\n000010000,1,abc\n",
		"unknown class":  "[eval]\n000010000,1,35\n[threats]\n001110000,1,two,0\n",
		"offset too big": "[eval]\n000010000,1,35\n[refutations]\n201110200,1,1,9\n",
		"no section":     "000010000,1,35\n",
		"bad section":    "[scores]\n000010000,1,35\n",
	}
	for name, input := range cases {
		_, err := Load(strings.NewReader(input))
		if !errors.Is(err, ErrMalformedRecord) {
			t.Fatalf("%s: expected ErrMalformedRecord, got %v", name, err)
		}
	}
}

func TestLoadReportsLineNumber(t *testing.T) {
	_, err := Load(strings.NewReader("# header\n[eval]\n000010000,1,35\n000010000,x,35\n"))
	if err == nil || !strings.Contains(err.Error(), "line 4") {
		t.Fatalf("expected error mentioning line 4, got %v", err)
	}
}

func TestLoadEmptyTable(t *testing.T) {
	_, err := Load(strings.NewReader("# nothing\n[eval]\n[threats]\n"))
	if !errors.Is(err, ErrEmptyTable) {
		t.Fatalf("expected ErrEmptyTable, got %v", err)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
