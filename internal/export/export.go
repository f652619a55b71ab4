// Package export serializes automaton runs to JSON, CSV, a compressed
// checksummed format and Apache Arrow IPC files, and loads them back.
package export

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nvandessel/ecalab/internal/automaton"
)

// DocumentVersion is the version of the Document layout.
const DocumentVersion = 1

// UnknownRule marks a document loaded from a format that does not carry the rule.
const UnknownRule = -1

// Format names a serialization format.
type Format string

const (
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
	FormatV2    Format = "v2"
	FormatArrow Format = "arrow"
)

// Formats lists every supported format.
var Formats = []Format{FormatJSON, FormatCSV, FormatV2, FormatArrow}

// ParseFormat validates a format name. The empty string means JSON.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatV2, "ecalab":
		return FormatV2, nil
	case FormatArrow, "ipc":
		return FormatArrow, nil
	default:
		return "", fmt.Errorf("unsupported export format %q: %w", s, automaton.ErrInvalidArgument)
	}
}

// Extension returns the file extension for f, including the dot.
func (f Format) Extension() string {
	switch f {
	case FormatCSV:
		return ".csv"
	case FormatV2:
		return ".ecalab"
	case FormatArrow:
		return ".arrow"
	default:
		return ".json"
	}
}

// Document is the serialized form of a run.
type Document struct {
	Version     int                   `json:"version"`
	RunID       string                `json:"run_id"`
	CreatedAt   time.Time             `json:"created_at"`
	Rule        int                   `json:"rule"`
	Size        int                   `json:"size"`
	Boundary    automaton.Boundary    `json:"boundary"`
	Generations int                   `json:"generations"` // rows recorded, initial row included
	Statistics  *automaton.Statistics `json:"statistics,omitempty"`
	Evolution   [][]int               `json:"evolution"`
}

// NewDocument captures the current history and statistics of a.
func NewDocument(a *automaton.Automaton) *Document {
	stats := a.Statistics()
	return &Document{
		Version:     DocumentVersion,
		RunID:       uuid.NewString(),
		CreatedAt:   time.Now().UTC(),
		Rule:        a.Rule(),
		Size:        a.Size(),
		Boundary:    a.Boundary(),
		Generations: stats.Generations,
		Statistics:  &stats,
		Evolution:   a.Matrix(),
	}
}

// Rows converts the evolution back to rows, validating every cell.
func (d *Document) Rows() ([]automaton.Row, error) {
	rows := make([]automaton.Row, len(d.Evolution))
	for i, cells := range d.Evolution {
		row, err := automaton.RowFromInts(cells)
		if err != nil {
			return nil, fmt.Errorf("generation %d: %w", i, err)
		}
		if d.Size > 0 && len(row) != d.Size {
			return nil, fmt.Errorf("generation %d has %d cells, want %d: %w", i, len(row), d.Size, automaton.ErrInvalidArgument)
		}
		rows[i] = row
	}
	return rows, nil
}

// Replay rebuilds the automaton from the first stored row and checks that
// evolving it reproduces every stored generation.
func (d *Document) Replay() (*automaton.Automaton, error) {
	if d.Rule == UnknownRule {
		return nil, fmt.Errorf("document has no rule to replay: %w", automaton.ErrInvalidArgument)
	}
	rows, err := d.Rows()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("document has no generations: %w", automaton.ErrInvalidArgument)
	}

	boundary := d.Boundary
	if boundary == "" {
		boundary = automaton.BoundaryCircular
	}
	a, err := automaton.New(d.Rule, len(rows[0]), boundary)
	if err != nil {
		return nil, err
	}
	if err := a.Reset(rows[0]); err != nil {
		return nil, err
	}
	history, err := a.Evolve(len(rows) - 1)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if !history[i].Equal(rows[i]) {
			return nil, fmt.Errorf("generation %d does not match rule %d", i, d.Rule)
		}
	}
	return a, nil
}

// DefaultExportDir returns the default export directory (~/.ecalab/exports/).
func DefaultExportDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".ecalab", "exports"), nil
}

// FileName returns the default file name for a run of rule exported at t.
func FileName(rule int, t time.Time, f Format) string {
	return fmt.Sprintf("eca_rule_%d_%s%s", rule, t.Format("20060102_150405"), f.Extension())
}

// Write serializes doc to path in format f, creating parent directories.
func Write(path string, doc *Document, f Format) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	switch f {
	case FormatJSON:
		return writeJSON(path, doc)
	case FormatCSV:
		return writeCSV(path, doc)
	case FormatV2:
		return writeV2(path, doc)
	case FormatArrow:
		return writeArrow(path, doc)
	default:
		return fmt.Errorf("unsupported export format %q: %w", f, automaton.ErrInvalidArgument)
	}
}

// Load reads a document written by Write, detecting its format from content.
func Load(path string) (*Document, Format, error) {
	f, err := DetectFormat(path)
	if err != nil {
		return nil, "", err
	}

	var doc *Document
	switch f {
	case FormatJSON:
		doc, err = readJSON(path)
	case FormatCSV:
		doc, err = readCSV(path)
	case FormatV2:
		doc, err = readV2(path)
	case FormatArrow:
		doc, err = readArrow(path)
	}
	if err != nil {
		return nil, "", err
	}
	return doc, f, nil
}

// DetectFormat inspects the start of a file to determine its format.
func DetectFormat(path string) (Format, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	magic, _ := reader.Peek(len(arrowMagic))
	if bytes.Equal(magic, arrowMagic) {
		return FormatArrow, nil
	}

	firstLine, err := reader.ReadString('\n')
	firstLine = strings.TrimSpace(firstLine)
	if firstLine == "" {
		if err != nil {
			return "", fmt.Errorf("file is empty: %w", automaton.ErrInvalidArgument)
		}
		return "", fmt.Errorf("first line is empty: %w", automaton.ErrInvalidArgument)
	}

	if _, ok := parseHeader([]byte(firstLine)); ok {
		return FormatV2, nil
	}
	if strings.HasPrefix(firstLine, csvGenerationColumn+",") {
		return FormatCSV, nil
	}
	if firstLine[0] == '{' {
		return FormatJSON, nil
	}

	return "", fmt.Errorf("unrecognized export format: %w", automaton.ErrInvalidArgument)
}

// writeFile creates path with owner-only permissions and passes it to write.
// The close error is reported so a failed flush never looks like success.
func writeFile(path string, write func(w io.Writer) error) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing file: %w", err)
	}
	return nil
}
