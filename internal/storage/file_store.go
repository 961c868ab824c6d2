package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ikkim/geonseol-backend/internal/namespace"
	"github.com/ikkim/geonseol-backend/pkg/logger"
)

const fileEnvelopeVersion = "1.0.0"

// fileEnvelope 파일에 저장되는 데이터 + 메타데이터
type fileEnvelope struct {
	Username    string          `json:"username"`
	DataType    string          `json:"dataType"`
	Data        json.RawMessage `json:"data"`
	LastUpdated time.Time       `json:"lastUpdated"`
	Version     string          `json:"version"`
}

// FileStore keeps one JSON file per (user, dataset) under root, sharded
// by the namespace resolver.
type FileStore struct {
	root     string
	resolver namespace.Resolver
}

func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

func (s *FileStore) Name() string { return "file" }

// Available checks that the data directory exists and is writable.
func (s *FileStore) Available(ctx context.Context) bool {
	if s.root == "" {
		return false
	}
	if err := os.MkdirAll(s.root, 0755); err != nil {
		return false
	}
	f, err := os.CreateTemp(s.root, ".probe-*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}

func (s *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	rel, owner, dataType, err := s.locate(key)
	if err != nil {
		return nil, err
	}
	full, err := s.fullPath(rel)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var env fileEnvelope
	if err := json.Unmarshal(content, &env); err != nil {
		return nil, fmt.Errorf("failed to decode envelope: %w", err)
	}
	if env.Username != owner || env.DataType != dataType {
		logger.Warn("File envelope does not match requested namespace", map[string]interface{}{
			"path":      rel,
			"username":  env.Username,
			"data_type": env.DataType,
		})
		return nil, fmt.Errorf("envelope mismatch for %s", rel)
	}
	if len(env.Data) == 0 {
		return nil, ErrNotFound
	}
	return []byte(env.Data), nil
}

func (s *FileStore) Set(ctx context.Context, key string, value []byte) error {
	rel, owner, dataType, err := s.locate(key)
	if err != nil {
		return err
	}
	full, err := s.fullPath(rel)
	if err != nil {
		return err
	}

	content, err := json.MarshalIndent(fileEnvelope{
		Username:    owner,
		DataType:    dataType,
		Data:        json.RawMessage(value),
		LastUpdated: time.Now().UTC(),
		Version:     fileEnvelopeVersion,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode envelope: %w", err)
	}

	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmpName, full); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace file: %w", err)
	}

	logger.Debug("File saved successfully", map[string]interface{}{
		"path": rel,
		"size": len(content),
	})
	return nil
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	rel, _, _, err := s.locate(key)
	if err != nil {
		return err
	}
	full, err := s.fullPath(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// locate maps a flat key to a relative path plus the owner and data type
// recorded in the envelope.
func (s *FileStore) locate(key string) (rel, owner, dataType string, err error) {
	p, err := s.resolver.Parse(key)
	if err != nil {
		return "", "", "", err
	}
	if p.System != "" {
		return filepath.Join("system", p.System+".json"), "", "SYSTEM_" + p.System, nil
	}

	rel = s.resolver.FilePath(p.User, p.Dataset)
	dataType = string(p.Dataset)
	if p.Marker {
		rel = strings.TrimSuffix(rel, ".json") + ".saved.json"
		dataType += "@saved"
	}
	return rel, p.User, dataType, nil
}

// fullPath joins rel onto root and refuses paths that escape it.
func (s *FileStore) fullPath(rel string) (string, error) {
	full := filepath.Join(s.root, filepath.FromSlash(rel))

	absPath, err := filepath.Abs(full)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	absBase, err := filepath.Abs(s.root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base path: %w", err)
	}
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes base directory: %s", rel)
	}
	return full, nil
}
