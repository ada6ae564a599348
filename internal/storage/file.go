package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/IshaanNene/PostPulse/internal/types"
)

// --- JSON Storage ---

// JSONStorage writes posts as a JSON array to a file.
type JSONStorage struct {
	path   string
	posts  []*types.Post
	mu     sync.Mutex
	logger *slog.Logger
}

// NewJSONStorage creates a new JSON file storage.
func NewJSONStorage(outputPath string, logger *slog.Logger) (*JSONStorage, error) {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, storageErr("json", fmt.Errorf("create output dir: %w", err))
	}

	return &JSONStorage{
		path:   outputPath,
		posts:  make([]*types.Post, 0),
		logger: logger.With("component", "json_storage"),
	}, nil
}

func (s *JSONStorage) Name() string { return "json" }

// Path returns the output file.
func (s *JSONStorage) Path() string { return s.path }

func (s *JSONStorage) Store(posts []*types.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = append(s.posts, posts...)
	s.logger.Debug("posts buffered", "count", len(posts), "total", len(s.posts))
	return nil
}

func (s *JSONStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Create(s.path)
	if err != nil {
		return storageErr("json", fmt.Errorf("create output file: %w", err))
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.posts); err != nil {
		return storageErr("json", fmt.Errorf("encode JSON: %w", err))
	}

	s.logger.Info("JSON written", "path", s.path, "posts", len(s.posts))
	return nil
}

// --- JSONL Storage ---

// JSONLStorage writes posts as newline-delimited JSON (one object per line).
type JSONLStorage struct {
	path   string
	file   *os.File
	enc    *json.Encoder
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

// NewJSONLStorage creates a new JSONL file storage (streaming writes).
func NewJSONLStorage(outputPath string, logger *slog.Logger) (*JSONLStorage, error) {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, storageErr("jsonl", fmt.Errorf("create output dir: %w", err))
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return nil, storageErr("jsonl", fmt.Errorf("create output file: %w", err))
	}

	return &JSONLStorage{
		path:   outputPath,
		file:   f,
		enc:    json.NewEncoder(f),
		logger: logger.With("component", "jsonl_storage"),
	}, nil
}

func (s *JSONLStorage) Name() string { return "jsonl" }

// Path returns the output file.
func (s *JSONLStorage) Path() string { return s.path }

func (s *JSONLStorage) Store(posts []*types.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, post := range posts {
		if err := s.enc.Encode(post); err != nil {
			return storageErr("jsonl", fmt.Errorf("encode JSONL: %w", err))
		}
		s.count++
	}
	return nil
}

func (s *JSONLStorage) Close() error {
	s.logger.Info("JSONL written", "path", s.path, "posts", s.count)
	if s.file != nil {
		return storageErr("jsonl", s.file.Close())
	}
	return nil
}

// --- CSV Storage ---

// CSVStorage writes posts as CSV rows. List fields are encoded as JSON arrays.
type CSVStorage struct {
	path    string
	file    *os.File
	writer  *csv.Writer
	columns types.FieldSet
	header  bool
	mu      sync.Mutex
	count   int
	logger  *slog.Logger
}

// NewCSVStorage creates a new CSV file storage. The header follows columns;
// when columns is empty it follows the fields of the first stored post.
func NewCSVStorage(outputPath string, columns types.FieldSet, logger *slog.Logger) (*CSVStorage, error) {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, storageErr("csv", fmt.Errorf("create output dir: %w", err))
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return nil, storageErr("csv", fmt.Errorf("create output file: %w", err))
	}

	return &CSVStorage{
		path:    outputPath,
		file:    f,
		writer:  csv.NewWriter(f),
		columns: columns,
		logger:  logger.With("component", "csv_storage"),
	}, nil
}

func (s *CSVStorage) Name() string { return "csv" }

// Path returns the output file.
func (s *CSVStorage) Path() string { return s.path }

func (s *CSVStorage) Store(posts []*types.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, post := range posts {
		if !s.header {
			if len(s.columns) == 0 {
				s.columns = post.Fields()
			}
			if err := s.writer.Write(s.columns.Names()); err != nil {
				return storageErr("csv", fmt.Errorf("write CSV header: %w", err))
			}
			s.header = true
		}

		if err := s.writer.Write(post.ToRow(s.columns)); err != nil {
			return storageErr("csv", fmt.Errorf("write CSV row: %w", err))
		}
		s.count++
	}

	s.writer.Flush()
	return storageErr("csv", s.writer.Error())
}

func (s *CSVStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// An empty run still gets a header when the columns are known.
	if !s.header && len(s.columns) > 0 {
		_ = s.writer.Write(s.columns.Names())
		s.header = true
	}
	s.logger.Info("CSV written", "path", s.path, "posts", s.count)
	if s.writer != nil {
		s.writer.Flush()
	}
	if s.file != nil {
		return storageErr("csv", s.file.Close())
	}
	return nil
}

// NewFileStorage creates the appropriate file-based storage by type.
func NewFileStorage(storageType, outputDir, baseName string, columns types.FieldSet, logger *slog.Logger) (Storage, error) {
	if baseName == "" {
		baseName = "posts"
	}
	switch storageType {
	case "json":
		return NewJSONStorage(filepath.Join(outputDir, baseName+".json"), logger)
	case "jsonl":
		return NewJSONLStorage(filepath.Join(outputDir, baseName+".jsonl"), logger)
	case "csv":
		return NewCSVStorage(filepath.Join(outputDir, baseName+".csv"), columns, logger)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}
