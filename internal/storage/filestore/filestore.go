package filestore

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"tmpbin/internal/domain/models"
)

var ErrInvalidDir = errors.New("using bad path to the save data")

// StorageInterface is the slice of the entry store the snapshot needs.
type StorageInterface interface {
	EntryCreate(ctx context.Context, entry models.Entry) (models.Entry, error)
	EntryGetAll(ctx context.Context) ([]models.Entry, error)
}

// entryRecord is the JSON-lines on-disk form of an entry. Payload is
// base64-encoded by encoding/json.
type entryRecord struct {
	Code      string    `json:"code"`
	Payload   []byte    `json:"payload"`
	Size      int64     `json:"size"`
	Secret    string    `json:"secret"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func recordFromEntry(entry models.Entry) entryRecord {
	return entryRecord{
		Code:      entry.Code,
		Payload:   entry.Payload,
		Size:      entry.Size,
		Secret:    entry.Secret,
		CreatedAt: entry.CreatedAt,
		ExpiresAt: entry.ExpiresAt,
	}
}

func (r entryRecord) toEntry() models.Entry {
	return models.Entry{
		Code:      r.Code,
		Payload:   r.Payload,
		Size:      r.Size,
		Secret:    r.Secret,
		CreatedAt: r.CreatedAt,
		ExpiresAt: r.ExpiresAt,
	}
}

// Load replays a snapshot file into the storage. A missing file is created
// empty so the next Save has somewhere to go. Returns a human-readable
// summary for the startup log.
func Load(ctx context.Context, filePath string, storage StorageInterface) (string, error) {
	if filePath == "" {
		return "No snapshot path provided - starting with empty storage", nil
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		dir := filepath.Dir(absPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		file, err := os.OpenFile(absPath, os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return "", fmt.Errorf("failed to create file %s: %w", absPath, err)
		}
		file.Close()
		return fmt.Sprintf("Snapshot file %s created - starting with empty storage", absPath), nil
	}

	reader, err := newFileReader(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to open file %s: %w", absPath, err)
	}
	defer reader.close()

	var loadedCount int
	for {
		record, err := reader.readEntry()
		if err != nil {
			if err == io.EOF {
				break
			}
			return "", fmt.Errorf("failed to read entry from file: %w", err)
		}

		if _, err := storage.EntryCreate(ctx, record.toEntry()); err != nil {
			return "", fmt.Errorf("failed to set entry in storage: %w", err)
		}
		loadedCount++
	}

	if loadedCount > 0 {
		return fmt.Sprintf("Successfully loaded %d entries from %s", loadedCount, absPath), nil
	}
	return fmt.Sprintf("No data loaded from %s (file exists but empty)", absPath), nil
}

// Save writes every stored entry to the snapshot file, replacing previous
// contents. Returns the directory written to.
func Save(ctx context.Context, filePath string, storage StorageInterface) (string, error) {
	if filePath == "" {
		return "", ErrInvalidDir
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", ErrInvalidDir
	}

	dir := filepath.Dir(absPath)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return dir, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	writer, err := newFileWriter(absPath)
	if err != nil {
		return dir, err
	}
	defer writer.close()

	entries, err := storage.EntryGetAll(ctx)
	if err != nil {
		return dir, err
	}

	for _, entry := range entries {
		if err := writer.writeEntry(recordFromEntry(entry)); err != nil {
			return dir, err
		}
	}

	return dir, nil
}

// fileWriter appends JSON-lines records to the snapshot file.
type fileWriter struct {
	file   *os.File
	writer *bufio.Writer
}

func newFileWriter(filePath string) (*fileWriter, error) {
	file, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		return nil, err
	}

	return &fileWriter{
		file:   file,
		writer: bufio.NewWriter(file),
	}, nil
}

func (w *fileWriter) writeEntry(record entryRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	if _, err := w.writer.Write(data); err != nil {
		return err
	}

	if err := w.writer.WriteByte('\n'); err != nil {
		return err
	}

	return w.writer.Flush()
}

func (w *fileWriter) close() error {
	if err := w.writer.Flush(); err != nil {
		return err
	}
	return w.file.Close()
}

// fileReader reads JSON-lines records back from the snapshot file.
type fileReader struct {
	file   *os.File
	reader *bufio.Reader
}

func newFileReader(filePath string) (*fileReader, error) {
	file, err := os.OpenFile(filePath, os.O_RDONLY|os.O_CREATE, 0666)
	if err != nil {
		return nil, err
	}

	return &fileReader{
		file:   file,
		reader: bufio.NewReader(file),
	}, nil
}

func (r *fileReader) readEntry() (entryRecord, error) {
	data, err := r.reader.ReadBytes('\n')
	if err != nil {
		return entryRecord{}, err
	}

	var record entryRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return entryRecord{}, err
	}

	return record, nil
}

func (r *fileReader) close() error {
	return r.file.Close()
}
