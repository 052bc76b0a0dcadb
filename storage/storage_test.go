package storage

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
)

// TestSaveAndReadContent tests the filesystem snapshot round trip
func TestSaveAndReadContent(t *testing.T) {
	store, err := New(Config{BasePath: t.TempDir()})
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	key, err := store.SaveContent("hello snapshot", "react-hooks-guide")
	if err != nil {
		t.Fatalf("SaveContent failed: %v", err)
	}

	now := time.Now()
	wantPrefix := fmt.Sprintf("content/%04d/%02d/", now.Year(), int(now.Month()))
	if !strings.HasPrefix(key, wantPrefix) {
		t.Errorf("key = %q, want prefix %q", key, wantPrefix)
	}
	if !strings.HasSuffix(key, ".txt") {
		t.Errorf("key = %q, want .txt suffix", key)
	}

	got, err := store.ReadContent(key)
	if err != nil {
		t.Fatalf("ReadContent failed: %v", err)
	}
	if got != "hello snapshot" {
		t.Errorf("ReadContent = %q, want %q", got, "hello snapshot")
	}
}

// TestSaveContentUniqueKeys tests that a repeated slug gets a distinct key
func TestSaveContentUniqueKeys(t *testing.T) {
	store, err := New(Config{BasePath: t.TempDir()})
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	first, err := store.SaveContent("first", "same-slug")
	if err != nil {
		t.Fatalf("SaveContent failed: %v", err)
	}
	second, err := store.SaveContent("second", "same-slug")
	if err != nil {
		t.Fatalf("SaveContent failed: %v", err)
	}

	if first == second {
		t.Fatalf("expected distinct keys, both are %q", first)
	}

	got, err := store.ReadContent(first)
	if err != nil {
		t.Fatalf("ReadContent failed: %v", err)
	}
	if got != "first" {
		t.Errorf("first snapshot overwritten: got %q", got)
	}
}

// TestDeleteContent tests deleting a snapshot, including a missing one
func TestDeleteContent(t *testing.T) {
	store, err := New(Config{BasePath: t.TempDir()})
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	key, err := store.SaveContent("to be removed", "obsolete")
	if err != nil {
		t.Fatalf("SaveContent failed: %v", err)
	}

	if err := store.DeleteContent(key); err != nil {
		t.Fatalf("DeleteContent failed: %v", err)
	}
	if _, err := store.ReadContent(key); err == nil {
		t.Fatal("Expected error reading deleted snapshot, got nil")
	}

	// Deleting again is a no-op.
	if err := store.DeleteContent(key); err != nil {
		t.Fatalf("DeleteContent on missing key failed: %v", err)
	}
}

// TestNewS3Storage tests creating S3 storage with valid config
func TestNewS3Storage(t *testing.T) {
	config := S3Config{
		Endpoint:        "http://localhost:9000",
		Region:          "us-east-1",
		Bucket:          "test-bucket",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		UsePathStyle:    true,
	}

	ctx := context.Background()
	storage, err := NewS3Storage(ctx, config)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	if storage == nil {
		t.Fatal("Expected storage to be non-nil")
	}
}

// TestNewS3StorageMissingBucket tests error handling for missing bucket
func TestNewS3StorageMissingBucket(t *testing.T) {
	config := S3Config{
		Endpoint:        "http://localhost:9000",
		Region:          "us-east-1",
		Bucket:          "", // Missing bucket
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		UsePathStyle:    true,
	}

	ctx := context.Background()
	_, err := NewS3Storage(ctx, config)
	if err == nil {
		t.Fatal("Expected error for missing bucket, got nil")
	}
}

// TestNewS3StorageMissingRegion tests error handling for missing region
func TestNewS3StorageMissingRegion(t *testing.T) {
	config := S3Config{
		Endpoint:        "http://localhost:9000",
		Region:          "", // Missing region
		Bucket:          "test-bucket",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		UsePathStyle:    true,
	}

	ctx := context.Background()
	_, err := NewS3Storage(ctx, config)
	if err == nil {
		t.Fatal("Expected error for missing region, got nil")
	}
}

// TestNewS3StorageMissingCredentials tests error handling for missing credentials
func TestNewS3StorageMissingCredentials(t *testing.T) {
	config := S3Config{
		Endpoint:        "http://localhost:9000",
		Region:          "us-east-1",
		Bucket:          "test-bucket",
		AccessKeyID:     "", // Missing credentials
		SecretAccessKey: "",
		UsePathStyle:    true,
	}

	ctx := context.Background()
	_, err := NewS3Storage(ctx, config)
	if err == nil {
		t.Fatal("Expected error for missing credentials, got nil")
	}
}

// Both backends satisfy the store interface.
var (
	_ ContentStore = (*Storage)(nil)
	_ ContentStore = (*S3Storage)(nil)
)
