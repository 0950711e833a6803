// Decision logging for the gate engine.
package gate

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DecisionRecord is a single enabled-state dispatch decision.
type DecisionRecord struct {
	Timestamp string `json:"timestamp"`
	Symbol    string `json:"symbol"`
	Policy    string `json:"policy"`
	Outcome   string `json:"outcome"` // "forwarded", "substituted", "aborted", "unresolved"
	Detail    string `json:"detail,omitempty"`
}

// DecisionLog writes decision records in JSON-lines format.
type DecisionLog struct {
	writer io.WriteCloser
	mu     sync.Mutex
}

// NewDecisionLog creates a decision log writing to the specified file.
// If path is empty, logging is disabled.
func NewDecisionLog(path string) (*DecisionLog, error) {
	if path == "" {
		return &DecisionLog{writer: nopWriteCloser{}}, nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create decision log directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open decision log: %w", err)
	}

	return &DecisionLog{writer: file}, nil
}

// Record appends a decision record.
func (dl *DecisionLog) Record(rec DecisionRecord) error {
	if dl == nil || dl.writer == nil {
		return nil
	}

	dl.mu.Lock()
	defer dl.mu.Unlock()

	if rec.Timestamp == "" {
		rec.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal decision record: %w", err)
	}

	data = append(data, '\n')
	if _, err := dl.writer.Write(data); err != nil {
		return fmt.Errorf("write decision record: %w", err)
	}

	return nil
}

// Close closes the decision log file.
func (dl *DecisionLog) Close() error {
	if dl == nil || dl.writer == nil {
		return nil
	}
	dl.mu.Lock()
	defer dl.mu.Unlock()
	return dl.writer.Close()
}

// ReadDecisionLog reads all records from the specified file.
func ReadDecisionLog(path string) ([]DecisionRecord, error) {
	if path == "" {
		return nil, nil
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open decision log: %w", err)
	}
	defer file.Close()

	var records []DecisionRecord
	decoder := json.NewDecoder(file)
	for {
		var rec DecisionRecord
		if err := decoder.Decode(&rec); err != nil {
			if err == io.EOF {
				break
			}
			// Skip malformed lines
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

// nopWriteCloser is a no-op io.WriteCloser for disabled decision logging.
type nopWriteCloser struct{}

func (nopWriteCloser) Write(p []byte) (int, error) { return len(p), nil }
func (nopWriteCloser) Close() error                { return nil }
