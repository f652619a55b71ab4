package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/nvandessel/ecalab/internal/automaton"
)

const csvGenerationColumn = "generation"

func writeJSON(path string, doc *Document) error {
	return writeFile(path, func(out io.Writer) error {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode document: %w", err)
		}
		return nil
	})
}

func readJSON(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	var doc Document
	if err := json.NewDecoder(f).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	if doc.Version != DocumentVersion {
		return nil, fmt.Errorf("unsupported document version: %d", doc.Version)
	}
	return &doc, nil
}

// writeCSV writes one line per generation: the generation index followed by
// the cells. Only the evolution is kept.
func writeCSV(path string, doc *Document) error {
	return writeFile(path, func(out io.Writer) error {
		return encodeCSV(out, doc)
	})
}

func encodeCSV(out io.Writer, doc *Document) error {
	w := csv.NewWriter(out)
	header := make([]string, 0, doc.Size+1)
	header = append(header, csvGenerationColumn)
	for i := 0; i < doc.Size; i++ {
		header = append(header, "cell_"+strconv.Itoa(i))
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	record := make([]string, doc.Size+1)
	for gen, cells := range doc.Evolution {
		if len(cells) != doc.Size {
			return fmt.Errorf("generation %d has %d cells, want %d: %w", gen, len(cells), doc.Size, automaton.ErrInvalidArgument)
		}
		record[0] = strconv.Itoa(gen)
		for i, c := range cells {
			record[i+1] = strconv.Itoa(c)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("writing generation %d: %w", gen, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}

// readCSV restores the evolution only. The rule and boundary are unknown.
func readCSV(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv has no header: %w", automaton.ErrInvalidArgument)
	}

	size := len(records[0]) - 1
	doc := &Document{
		Version:   DocumentVersion,
		Rule:      UnknownRule,
		Size:      size,
		Evolution: make([][]int, 0, len(records)-1),
	}
	for line, record := range records[1:] {
		cells := make([]int, 0, size)
		for _, field := range record[1:] {
			c, err := strconv.Atoi(field)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line+2, err)
			}
			cells = append(cells, c)
		}
		doc.Evolution = append(doc.Evolution, cells)
	}
	doc.Generations = len(doc.Evolution)

	if _, err := doc.Rows(); err != nil {
		return nil, err
	}
	return doc, nil
}
