// Package storage persists plain-text snapshots of fetched page content
// so a saved link stays readable after the original page changes or
// disappears.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ContentStore is the interface snapshot backends implement.
type ContentStore interface {
	// SaveContent stores a snapshot and returns the key it was stored under.
	SaveContent(content, slug string) (string, error)
	// ReadContent returns the snapshot stored under key.
	ReadContent(key string) (string, error)
	// DeleteContent removes the snapshot stored under key. Missing
	// snapshots are not an error.
	DeleteContent(key string) error
}

// Config contains filesystem storage configuration
type Config struct {
	BasePath string // Base directory for all stored snapshots
}

// DefaultConfig returns default storage configuration
func DefaultConfig() Config {
	return Config{
		BasePath: "./storage",
	}
}

// Storage stores snapshots on the local filesystem.
type Storage struct {
	config Config
}

// New creates a new Storage instance
func New(config Config) (*Storage, error) {
	// Create base directory if it doesn't exist
	if err := os.MkdirAll(config.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base storage directory: %w", err)
	}

	return &Storage{
		config: config,
	}, nil
}

// SaveContent saves a text snapshot to the filesystem.
// Returns the relative file path from the base storage directory.
func (s *Storage) SaveContent(content, slug string) (string, error) {
	// Generate directory structure: content/YYYY/MM/
	now := time.Now()
	year := fmt.Sprintf("%04d", now.Year())
	month := fmt.Sprintf("%02d", int(now.Month()))

	dirPath := filepath.Join(s.config.BasePath, "content", year, month)

	// Create directory if it doesn't exist
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create content directory: %w", err)
	}

	// Generate filename: slug.txt
	filename := slug + ".txt"
	filePath := filepath.Join(dirPath, filename)

	// Check if file already exists and make unique if necessary
	counter := 1
	for fileExists(filePath) {
		filename = fmt.Sprintf("%s-%d.txt", slug, counter)
		filePath = filepath.Join(dirPath, filename)
		counter++
	}

	// Write file
	if err := os.WriteFile(filePath, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write content file: %w", err)
	}

	// Return relative path from base storage directory
	relPath, err := filepath.Rel(s.config.BasePath, filePath)
	if err != nil {
		return "", fmt.Errorf("failed to get relative path: %w", err)
	}

	return relPath, nil
}

// ReadContent reads a snapshot from the filesystem
func (s *Storage) ReadContent(relPath string) (string, error) {
	fullPath := filepath.Join(s.config.BasePath, relPath)

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to read content file: %w", err)
	}

	return string(data), nil
}

// DeleteContent deletes a snapshot from the filesystem
func (s *Storage) DeleteContent(relPath string) error {
	fullPath := filepath.Join(s.config.BasePath, relPath)

	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete content file: %w", err)
	}

	return nil
}

// GetFullPath returns the full filesystem path for a relative path
func (s *Storage) GetFullPath(relPath string) string {
	return filepath.Join(s.config.BasePath, relPath)
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
