package export

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// HeaderVersion is the container version written in the V2 header line.
const HeaderVersion = 2

// MaxDecompressedSize is the maximum allowed size of a decompressed payload (200MB).
const MaxDecompressedSize = 200 * 1024 * 1024

// Header is the plain-text first line of a V2 file.
type Header struct {
	Version    int       `json:"version"`
	RunID      string    `json:"run_id"`
	CreatedAt  time.Time `json:"created_at"`
	Checksum   string    `json:"checksum"`
	Rule       int       `json:"rule"`
	Size       int       `json:"size"`
	Rows       int       `json:"rows"`
	Compressed bool      `json:"compressed"`
}

func parseHeader(line []byte) (*Header, bool) {
	var h Header
	if err := json.Unmarshal(bytes.TrimSpace(line), &h); err != nil {
		return nil, false
	}
	if h.Version != HeaderVersion || h.Checksum == "" {
		return nil, false
	}
	return &h, true
}

func checksum(data []byte) string {
	hash := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(hash[:])
}

// writeV2 writes a header line followed by the gzip-compressed JSON document.
func writeV2(path string, doc *Document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	var compressed bytes.Buffer
	gzw, err := gzip.NewWriterLevel(&compressed, gzip.DefaultCompression)
	if err != nil {
		return fmt.Errorf("creating gzip writer: %w", err)
	}
	if _, err := gzw.Write(payload); err != nil {
		return fmt.Errorf("compressing payload: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return fmt.Errorf("closing gzip writer: %w", err)
	}

	header := Header{
		Version:    HeaderVersion,
		RunID:      doc.RunID,
		CreatedAt:  doc.CreatedAt,
		Checksum:   checksum(compressed.Bytes()),
		Rule:       doc.Rule,
		Size:       doc.Size,
		Rows:       len(doc.Evolution),
		Compressed: true,
	}
	headerBytes, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("marshaling header: %w", err)
	}

	return writeFile(path, func(out io.Writer) error {
		if _, err := out.Write(append(headerBytes, '\n')); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
		if _, err := out.Write(compressed.Bytes()); err != nil {
			return fmt.Errorf("writing compressed payload: %w", err)
		}
		return nil
	})
}

// openV2 reads the header and the raw compressed payload, verifying the checksum.
func openV2(path string) (*Header, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	headerLine, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, nil, fmt.Errorf("reading header line: %w", err)
	}
	header, ok := parseHeader(headerLine)
	if !ok {
		return nil, nil, fmt.Errorf("not a V2 export file: %s", path)
	}

	compressed, err := io.ReadAll(reader)
	if err != nil {
		return nil, nil, fmt.Errorf("reading compressed payload: %w", err)
	}
	if actual := checksum(compressed); actual != header.Checksum {
		return nil, nil, fmt.Errorf("checksum mismatch: expected %s, got %s", header.Checksum, actual)
	}
	return header, compressed, nil
}

func readV2(path string) (*Document, error) {
	_, compressed, err := openV2(path)
	if err != nil {
		return nil, err
	}

	gzr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("creating gzip reader: %w", err)
	}
	defer gzr.Close()

	decompressed, err := io.ReadAll(io.LimitReader(gzr, MaxDecompressedSize+1))
	if err != nil {
		return nil, fmt.Errorf("decompressing payload: %w", err)
	}
	if int64(len(decompressed)) > MaxDecompressedSize {
		return nil, fmt.Errorf("decompressed payload exceeds maximum size of %d bytes", MaxDecompressedSize)
	}

	var doc Document
	if err := json.Unmarshal(decompressed, &doc); err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}
	return &doc, nil
}

// ReadHeader reads only the header line of a V2 file.
func ReadHeader(path string) (*Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	line, err := bufio.NewReader(f).ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("reading header line: %w", err)
	}
	header, ok := parseHeader(line)
	if !ok {
		return nil, fmt.Errorf("not a V2 export file: %s", path)
	}
	return header, nil
}

// VerifyChecksum checks the integrity of a V2 file without decompressing it.
func VerifyChecksum(path string) error {
	_, _, err := openV2(path)
	return err
}
