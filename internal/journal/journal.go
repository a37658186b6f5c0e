// Package journal keeps a JSON log of generated study material and quiz
// scores, and exports the latest AI text.
package journal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/csheth/studymind/internal/apperr"
)

const (
	entryTypeArtifact   = "artifact"
	entryTypeQuizResult = "quiz_result"

	// ExportFileName is the file Export writes.
	ExportFileName = "ai_answer.txt"
)

// Artifact records one exported piece of generated text.
type Artifact struct {
	EntryType    string    `json:"entryType"`
	DocumentID   string    `json:"documentId"`
	DocumentName string    `json:"documentName"`
	Mode         string    `json:"mode"`
	Level        string    `json:"level"`
	Action       string    `json:"action"`
	Text         string    `json:"text"`
	CreatedAt    time.Time `json:"createdAt"`
}

// QuizResult records a finished quiz.
type QuizResult struct {
	EntryType    string    `json:"entryType"`
	DocumentID   string    `json:"documentId"`
	DocumentName string    `json:"documentName"`
	Score        int       `json:"score"`
	Total        int       `json:"total"`
	Percentage   int       `json:"percentage"`
	Performance  string    `json:"performance"`
	FinishedAt   time.Time `json:"finishedAt"`
}

// writeMu serializes read-modify-write cycles on journal files.
var writeMu sync.Mutex

type entryHeader struct {
	EntryType string `json:"entryType"`
}

// Export writes text to dir/ai_answer.txt and returns the path.
func Export(dir, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: nothing to export yet", apperr.ErrInvalidInput)
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, ExportFileName)
	if err := writeFileAtomic(path, []byte(text)); err != nil {
		return "", err
	}
	return path, nil
}

// SaveArtifact appends an artifact entry.
func SaveArtifact(path string, a Artifact) error {
	a.EntryType = entryTypeArtifact
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return appendEntries(path, []json.RawMessage{raw})
}

// SaveQuizResult appends a quiz score entry.
func SaveQuizResult(path string, r QuizResult) error {
	r.EntryType = entryTypeQuizResult
	if r.FinishedAt.IsZero() {
		r.FinishedAt = time.Now().UTC()
	}
	raw, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return appendEntries(path, []json.RawMessage{raw})
}

// LoadArtifacts returns stored artifacts in insertion order. A missing
// journal yields no entries.
func LoadArtifacts(path string) ([]Artifact, error) {
	var out []Artifact
	err := each(path, entryTypeArtifact, func(raw json.RawMessage) error {
		var a Artifact
		if err := json.Unmarshal(raw, &a); err != nil {
			return err
		}
		out = append(out, a)
		return nil
	})
	return out, err
}

// LoadQuizResults returns stored quiz scores in insertion order.
func LoadQuizResults(path string) ([]QuizResult, error) {
	var out []QuizResult
	err := each(path, entryTypeQuizResult, func(raw json.RawMessage) error {
		var r QuizResult
		if err := json.Unmarshal(raw, &r); err != nil {
			return err
		}
		out = append(out, r)
		return nil
	})
	return out, err
}

func each(path, entryType string, fn func(json.RawMessage) error) error {
	entries, err := loadEntries(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, raw := range entries {
		var header entryHeader
		if err := json.Unmarshal(raw, &header); err != nil {
			return err
		}
		if header.EntryType != entryType {
			continue
		}
		if err := fn(raw); err != nil {
			return err
		}
	}
	return nil
}

func appendEntries(path string, newEntries []json.RawMessage) error {
	if path == "" {
		return fmt.Errorf("journal path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	writeMu.Lock()
	defer writeMu.Unlock()
	entries, err := loadEntries(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		entries = nil
	}
	entries = append(entries, newEntries...)
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

// writeFileAtomic replaces path through a temp file in the same directory,
// so readers never see a half-written journal.
func writeFileAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()
	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmpPath, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

func loadEntries(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
