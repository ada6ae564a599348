package storage

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/IshaanNene/PostPulse/internal/types"
)

// ReadFile loads posts written by a file backend, choosing the format from
// the file extension.
func ReadFile(path string) ([]*types.Post, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(path)
	case ".json", ".jsonl":
		return ReadJSON(path)
	default:
		return nil, fmt.Errorf("unrecognized results file %q (want .csv, .json or .jsonl)", path)
	}
}

// ReadCSV loads posts from a CSV file written by CSVStorage.
func ReadCSV(path string) ([]*types.Post, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return []*types.Post{}, nil
	}
	if err != nil {
		return nil, &types.ParseError{Source: path, Err: err}
	}

	var posts []*types.Post
	for line := 2; ; line++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &types.ParseError{Source: path, Err: err}
		}
		post, err := types.PostFromRow(header, row)
		if err != nil {
			return nil, &types.ParseError{Source: fmt.Sprintf("%s:%d", path, line), Err: err}
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// ReadJSON loads posts from a JSON array or a JSONL file.
func ReadJSON(path string) ([]*types.Post, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []*types.Post{}, nil
	}

	if trimmed[0] == '[' {
		var posts []*types.Post
		if err := json.Unmarshal(trimmed, &posts); err != nil {
			return nil, &types.ParseError{Source: path, Err: err}
		}
		return posts, nil
	}

	var posts []*types.Post
	sc := bufio.NewScanner(bytes.NewReader(trimmed))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for line := 1; sc.Scan(); line++ {
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		post := new(types.Post)
		if err := json.Unmarshal(text, post); err != nil {
			return nil, &types.ParseError{Source: fmt.Sprintf("%s:%d", path, line), Err: err}
		}
		posts = append(posts, post)
	}
	if err := sc.Err(); err != nil {
		return nil, &types.ParseError{Source: path, Err: err}
	}
	return posts, nil
}
