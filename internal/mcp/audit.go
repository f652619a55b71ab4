package mcp

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// AuditFile is the name of the tool audit log inside the data directory.
const AuditFile = "audit.jsonl"

// AuditEntry records one MCP tool invocation. Params never carry file paths
// or raw cell data.
type AuditEntry struct {
	Timestamp  time.Time         `json:"timestamp"`
	Tool       string            `json:"tool"`
	DurationMs int64             `json:"duration_ms"`
	Status     string            `json:"status"` // "success" or "error"
	Error      string            `json:"error,omitempty"`
	Params     map[string]string `json:"params,omitempty"`
}

// AuditLogger appends entries to a JSONL file. It is safe for concurrent
// use, and a nil AuditLogger discards everything.
type AuditLogger struct {
	mu   sync.Mutex
	file *os.File
}

// NewAuditLogger opens dir/audit.jsonl for appending. If the file cannot be
// opened a warning is logged and nil is returned; auditing is never fatal.
func NewAuditLogger(dir string, logger *slog.Logger) *AuditLogger {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		logger.Warn("cannot create audit log directory", "dir", dir, "error", err)
		return nil
	}

	path := filepath.Join(dir, AuditFile)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		logger.Warn("cannot open audit log", "path", path, "error", err)
		return nil
	}
	return &AuditLogger{file: f}
}

// Log appends entry as a single line. Malformed entries are dropped.
func (a *AuditLogger) Log(entry AuditEntry) {
	if a == nil {
		return
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file == nil {
		return
	}
	_, _ = a.file.Write(append(data, '\n'))
}

// Close closes the log file. Later calls to Log are no-ops.
func (a *AuditLogger) Close() error {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file == nil {
		return nil
	}
	err := a.file.Close()
	a.file = nil
	return err
}

// safeAuditParams are logged with their values.
var safeAuditParams = map[string]bool{
	"rule":           true,
	"size":           true,
	"generations":    true,
	"boundary":       true,
	"format":         true,
	"initial":        true,
	"density":        true,
	"seed":           true,
	"use_literature": true,
	"start":          true,
	"end":            true,
	"workers":        true,
	"rule_count":     true,
}

// presenceAuditParams are logged only as "(set)".
var presenceAuditParams = map[string]bool{
	"path":    true,
	"pattern": true,
	"state":   true,
}

// sanitizeToolParams keeps safe values, masks presence-only values and drops
// everything else. Empty strings, empty lists and nil pointers count as unset.
func sanitizeToolParams(params map[string]any) map[string]string {
	if params == nil {
		return nil
	}

	result := make(map[string]string)
	set := 0
	for key, val := range params {
		if isZeroParam(val) {
			continue
		}
		if p, ok := val.(*bool); ok {
			val = *p
		}
		set++
		switch {
		case safeAuditParams[key]:
			result[key] = fmt.Sprintf("%v", val)
		case presenceAuditParams[key]:
			result[key] = "(set)"
		}
	}
	result["_param_count"] = fmt.Sprintf("%d", set)
	return result
}

func isZeroParam(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case []int:
		return len(x) == 0
	case *bool:
		return x == nil
	default:
		return false
	}
}

// auditTool records a finished tool call.
func (s *Server) auditTool(tool string, start time.Time, err error, params map[string]any) {
	entry := AuditEntry{
		Timestamp:  start.UTC(),
		Tool:       tool,
		DurationMs: time.Since(start).Milliseconds(),
		Status:     "success",
		Params:     sanitizeToolParams(params),
	}
	if err != nil {
		entry.Status = "error"
		entry.Error = err.Error()
		s.logger.Debug("tool call failed", "tool", tool, "error", err)
	}
	s.auditLogger.Log(entry)
}
