// Package storage keeps files uploaded with prediction requests.
package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrInvalidName is returned for names that would escape the storage root.
	ErrInvalidName = errors.New("invalid file name")

	// ErrInvalidData is returned when an upload payload is not base64.
	ErrInvalidData = errors.New("invalid upload data")
)

// Storage saves upload payloads per flow and chat.
type Storage interface {
	// Save writes data and returns the stored file name.
	Save(ctx context.Context, flowID, chatID, name string, data []byte) (string, error)
	Read(ctx context.Context, flowID, chatID, name string) ([]byte, error)
	// DeleteFlow removes every file stored for a flow.
	DeleteFlow(ctx context.Context, flowID string) error
}

// LocalStorage stores files under root/<flowID>/<chatID>/<name>.
type LocalStorage struct {
	root string
}

// NewLocalStorage creates the storage root when missing.
func NewLocalStorage(root string) (*LocalStorage, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}

	return &LocalStorage{root: root}, nil
}

func (s *LocalStorage) path(parts ...string) (string, error) {
	for _, p := range parts {
		if p == "" || p == "." || p == ".." || strings.ContainsAny(p, `/\`) {
			return "", fmt.Errorf("%w: %q", ErrInvalidName, p)
		}
	}

	return filepath.Join(append([]string{s.root}, parts...)...), nil
}

func (s *LocalStorage) Save(_ context.Context, flowID, chatID, name string, data []byte) (string, error) {
	name = filepath.Base(name)

	path, err := s.path(flowID, chatID, name)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", fmt.Errorf("failed to create chat directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}

	return name, nil
}

func (s *LocalStorage) Read(_ context.Context, flowID, chatID, name string) ([]byte, error) {
	path, err := s.path(flowID, chatID, name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	return data, nil
}

func (s *LocalStorage) DeleteFlow(_ context.Context, flowID string) error {
	path, err := s.path(flowID)
	if err != nil {
		return err
	}

	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to delete files of flow %s: %w", flowID, err)
	}

	return nil
}

// DecodeData decodes a base64 payload, optionally given as a data URL.
// It returns the mime type of the data URL, if any.
func DecodeData(data string) (string, []byte, error) {
	mime := ""

	if rest, ok := strings.CutPrefix(data, "data:"); ok {
		header, payload, found := strings.Cut(rest, ",")
		if !found {
			return "", nil, fmt.Errorf("%w: malformed data url", ErrInvalidData)
		}

		mime, _, _ = strings.Cut(header, ";")
		data = payload
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrInvalidData, err)
	}

	return mime, raw, nil
}
