package export

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/nvandessel/ecalab/internal/automaton"
)

func testDocument(t *testing.T) *Document {
	t.Helper()
	a, err := automaton.New(30, 11, automaton.BoundaryCircular)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := a.Evolve(10); err != nil {
		t.Fatalf("Evolve() error = %v", err)
	}
	return NewDocument(a)
}

func TestNewDocument(t *testing.T) {
	doc := testDocument(t)

	if doc.Rule != 30 || doc.Size != 11 {
		t.Errorf("Rule, Size = %d, %d, want 30, 11", doc.Rule, doc.Size)
	}
	if doc.Generations != 11 || len(doc.Evolution) != 11 {
		t.Errorf("Generations = %d with %d rows, want 11", doc.Generations, len(doc.Evolution))
	}
	if doc.RunID == "" {
		t.Error("RunID is empty")
	}
	if doc.Statistics == nil || doc.Statistics.Rule != 30 {
		t.Errorf("Statistics = %+v", doc.Statistics)
	}
}

func TestRoundTrip(t *testing.T) {
	for _, format := range Formats {
		t.Run(string(format), func(t *testing.T) {
			doc := testDocument(t)
			path := filepath.Join(t.TempDir(), "nested", "run"+format.Extension())

			if err := Write(path, doc, format); err != nil {
				t.Fatalf("Write() error = %v", err)
			}

			got, detected, err := Load(path)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if detected != format {
				t.Errorf("Load() format = %q, want %q", detected, format)
			}
			if !reflect.DeepEqual(got.Evolution, doc.Evolution) {
				t.Errorf("Evolution = %v, want %v", got.Evolution, doc.Evolution)
			}
			if got.Size != doc.Size || got.Generations != doc.Generations {
				t.Errorf("Size, Generations = %d, %d, want %d, %d", got.Size, got.Generations, doc.Size, doc.Generations)
			}

			if format == FormatCSV {
				if got.Rule != UnknownRule {
					t.Errorf("csv Rule = %d, want %d", got.Rule, UnknownRule)
				}
				return
			}

			if got.Rule != doc.Rule || got.Boundary != doc.Boundary || got.RunID != doc.RunID {
				t.Errorf("metadata = %d/%s/%s, want %d/%s/%s", got.Rule, got.Boundary, got.RunID, doc.Rule, doc.Boundary, doc.RunID)
			}
			if !got.CreatedAt.Equal(doc.CreatedAt) {
				t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, doc.CreatedAt)
			}
			if !reflect.DeepEqual(got.Statistics, doc.Statistics) {
				t.Errorf("Statistics = %+v, want %+v", got.Statistics, doc.Statistics)
			}
			if _, err := got.Replay(); err != nil {
				t.Errorf("Replay() error = %v", err)
			}
		})
	}
}

func TestWrite_FilePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.ecalab")
	if err := Write(path, testDocument(t), FormatV2); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file permissions = %o, want 0600", perm)
	}
}

func TestWrite_ReportsDeviceErrors(t *testing.T) {
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("/dev/full not available")
	}
	doc := testDocument(t)
	for _, format := range Formats {
		t.Run(string(format), func(t *testing.T) {
			if err := Write("/dev/full", doc, format); err == nil {
				t.Errorf("Write(/dev/full, %s) error = nil, want write failure", format)
			}
		})
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "ok.txt")
	err := writeFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "0110\n")
		return err
	})
	if err != nil {
		t.Fatalf("writeFile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "0110\n" {
		t.Errorf("file = %q, %v", data, err)
	}

	boom := errors.New("encode failed")
	err = writeFile(filepath.Join(dir, "bad.txt"), func(io.Writer) error { return boom })
	if !errors.Is(err, boom) {
		t.Errorf("writeFile() error = %v, want %v", err, boom)
	}

	if err := writeFile(filepath.Join(dir, "missing", "x.txt"), func(io.Writer) error { return nil }); err == nil {
		t.Error("writeFile() into missing directory should fail")
	}
}

func TestWrite_UnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.npy")
	err := Write(path, testDocument(t), Format("numpy"))
	if !errors.Is(err, automaton.ErrInvalidArgument) {
		t.Errorf("Write(numpy) error = %v, want ErrInvalidArgument", err)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{"csv", FormatCSV, false},
		{"v2", FormatV2, false},
		{"arrow", FormatArrow, false},
		{"ipc", FormatArrow, false},
		{"numpy", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestVerifyChecksum(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.ecalab")
	doc := testDocument(t)
	if err := Write(path, doc, FormatV2); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if err := VerifyChecksum(path); err != nil {
		t.Fatalf("VerifyChecksum() error = %v", err)
	}

	header, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("ReadHeader() error = %v", err)
	}
	if header.Rule != 30 || header.Rows != 11 || !header.Compressed {
		t.Errorf("header = %+v", header)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	data[len(data)-1] ^= 0xFF
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := VerifyChecksum(path); err == nil {
		t.Error("VerifyChecksum() should fail on a corrupted payload")
	}
	if _, _, err := Load(path); err == nil {
		t.Error("Load() should fail on a corrupted payload")
	}
}

func TestDetectFormat_Unrecognized(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(plain, []byte("hello\n"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := DetectFormat(plain); !errors.Is(err, automaton.ErrInvalidArgument) {
		t.Errorf("DetectFormat(text) error = %v, want ErrInvalidArgument", err)
	}

	empty := filepath.Join(dir, "empty")
	if err := os.WriteFile(empty, nil, 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := DetectFormat(empty); err == nil {
		t.Error("DetectFormat(empty) should fail")
	}
}

func TestLoad_CSVRejectsBadCells(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	content := "generation,cell_0,cell_1\n0,1,0\n1,2,0\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := Load(path); !errors.Is(err, automaton.ErrInvalidArgument) {
		t.Errorf("Load() error = %v, want ErrInvalidArgument", err)
	}
}

func TestReplay_DetectsTampering(t *testing.T) {
	doc := testDocument(t)
	doc.Evolution[5][0] ^= 1

	if _, err := doc.Replay(); err == nil {
		t.Error("Replay() should fail when a generation was altered")
	}

	doc.Rule = UnknownRule
	if _, err := doc.Replay(); !errors.Is(err, automaton.ErrInvalidArgument) {
		t.Errorf("Replay(unknown rule) error = %v, want ErrInvalidArgument", err)
	}
}

func TestFileName(t *testing.T) {
	ts := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	if got, want := FileName(110, ts, FormatArrow), "eca_rule_110_20260304_050607.arrow"; got != want {
		t.Errorf("FileName() = %q, want %q", got, want)
	}
}
