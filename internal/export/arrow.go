package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"

	"github.com/nvandessel/ecalab/internal/automaton"
)

// arrowMagic opens every Arrow IPC file.
var arrowMagic = []byte("ARROW1")

// Schema metadata keys.
const (
	metaVersion    = "ecalab.version"
	metaRunID      = "ecalab.run_id"
	metaCreatedAt  = "ecalab.created_at"
	metaRule       = "ecalab.rule"
	metaSize       = "ecalab.size"
	metaBoundary   = "ecalab.boundary"
	metaStatistics = "ecalab.statistics"
)

func arrowSchema(doc *Document) (*arrow.Schema, error) {
	keys := []string{metaVersion, metaRunID, metaCreatedAt, metaRule, metaSize, metaBoundary}
	values := []string{
		strconv.Itoa(doc.Version),
		doc.RunID,
		doc.CreatedAt.UTC().Format(time.RFC3339Nano),
		strconv.Itoa(doc.Rule),
		strconv.Itoa(doc.Size),
		string(doc.Boundary),
	}
	if doc.Statistics != nil {
		stats, err := json.Marshal(doc.Statistics)
		if err != nil {
			return nil, fmt.Errorf("marshaling statistics: %w", err)
		}
		keys = append(keys, metaStatistics)
		values = append(values, string(stats))
	}

	md := arrow.NewMetadata(keys, values)
	return arrow.NewSchema([]arrow.Field{
		{Name: csvGenerationColumn, Type: arrow.PrimitiveTypes.Int64},
		{Name: "cells", Type: arrow.ListOf(arrow.PrimitiveTypes.Uint8)},
	}, &md), nil
}

// writeArrow writes the evolution as a single record batch with one row per
// generation. Run metadata lives in the schema metadata.
func writeArrow(path string, doc *Document) error {
	schema, err := arrowSchema(doc)
	if err != nil {
		return err
	}

	pool := memory.NewGoAllocator()
	b := array.NewRecordBuilder(pool, schema)
	defer b.Release()

	gens := b.Field(0).(*array.Int64Builder)
	lists := b.Field(1).(*array.ListBuilder)
	cells := lists.ValueBuilder().(*array.Uint8Builder)
	for gen, row := range doc.Evolution {
		gens.Append(int64(gen))
		lists.Append(true)
		for _, c := range row {
			cells.Append(uint8(c))
		}
	}

	rec := b.NewRecord()
	defer rec.Release()

	return writeFile(path, func(out io.Writer) error {
		w, err := ipc.NewFileWriter(out, ipc.WithSchema(schema), ipc.WithAllocator(pool))
		if err != nil {
			return fmt.Errorf("creating arrow writer: %w", err)
		}
		if err := w.Write(rec); err != nil {
			w.Close()
			return fmt.Errorf("writing record batch: %w", err)
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("closing arrow writer: %w", err)
		}
		return nil
	})
}

func readArrow(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	r, err := ipc.NewFileReader(f, ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return nil, fmt.Errorf("opening arrow file: %w", err)
	}
	defer r.Close()

	doc, err := documentFromMetadata(r.Schema().Metadata())
	if err != nil {
		return nil, err
	}

	for i := 0; i < r.NumRecords(); i++ {
		rec, err := r.Record(i)
		if err != nil {
			return nil, fmt.Errorf("reading record batch %d: %w", i, err)
		}
		gens, ok := rec.Column(0).(*array.Int64)
		if !ok {
			return nil, fmt.Errorf("column %q has type %s: %w", csvGenerationColumn, rec.Column(0).DataType(), automaton.ErrInvalidArgument)
		}
		lists, ok := rec.Column(1).(*array.List)
		if !ok {
			return nil, fmt.Errorf("column \"cells\" has type %s: %w", rec.Column(1).DataType(), automaton.ErrInvalidArgument)
		}
		values, ok := lists.ListValues().(*array.Uint8)
		if !ok {
			return nil, fmt.Errorf("cells hold %s, want uint8: %w", lists.ListValues().DataType(), automaton.ErrInvalidArgument)
		}

		for j := 0; j < int(rec.NumRows()); j++ {
			if gens.Value(j) != int64(len(doc.Evolution)) {
				return nil, fmt.Errorf("generation %d out of order", gens.Value(j))
			}
			start, end := lists.ValueOffsets(j)
			row := make([]int, 0, end-start)
			for k := start; k < end; k++ {
				row = append(row, int(values.Value(int(k))))
			}
			doc.Evolution = append(doc.Evolution, row)
		}
	}
	doc.Generations = len(doc.Evolution)

	if _, err := doc.Rows(); err != nil {
		return nil, err
	}
	return doc, nil
}

func documentFromMetadata(md arrow.Metadata) (*Document, error) {
	get := func(key string) string {
		if i := md.FindKey(key); i >= 0 {
			return md.Values()[i]
		}
		return ""
	}

	doc := &Document{
		Version:  DocumentVersion,
		RunID:    get(metaRunID),
		Rule:     UnknownRule,
		Boundary: automaton.Boundary(get(metaBoundary)),
	}

	if v := get(metaRule); v != "" {
		rule, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parsing rule metadata: %w", err)
		}
		doc.Rule = rule
	}
	if v := get(metaSize); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parsing size metadata: %w", err)
		}
		doc.Size = size
	}
	if v := get(metaCreatedAt); v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at metadata: %w", err)
		}
		doc.CreatedAt = t
	}
	if v := get(metaStatistics); v != "" {
		var stats automaton.Statistics
		if err := json.Unmarshal([]byte(v), &stats); err != nil {
			return nil, fmt.Errorf("parsing statistics metadata: %w", err)
		}
		doc.Statistics = &stats
	}
	return doc, nil
}
