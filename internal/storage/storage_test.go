package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestBuildObjectPath(t *testing.T) {
	datedir := time.Now().UTC().Format("2006/01/02")

	tests := []struct {
		name     string
		category string
		baseName string
		ext      string
		want     string
	}{
		{
			name:     "normal export",
			category: "exports",
			baseName: "inventory-20250101-120000-abc",
			ext:      "csv",
			want:     "exports/" + datedir + "/inventory-20250101-120000-abc.csv",
		},
		{
			name:     "category sanitized",
			category: "../Exports !",
			baseName: "report one",
			ext:      ".CSV",
			want:     "exports/" + datedir + "/report-one.csv",
		},
		{
			name:     "empty category falls back",
			category: "",
			baseName: "dump",
			ext:      "json",
			want:     "exports/" + datedir + "/dump.json",
		},
		{
			name:     "empty extension defaults to bin",
			category: "misc",
			baseName: "blob",
			ext:      "",
			want:     "misc/" + datedir + "/blob.bin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildObjectPath(tt.category, tt.baseName, tt.ext)
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestContentTypeForExtension(t *testing.T) {
	if got := contentTypeForExtension("csv"); got != "text/csv; charset=utf-8" {
		t.Fatalf("unexpected content type for csv: %q", got)
	}
	if got := contentTypeForExtension(".JSON"); got != "application/json" {
		t.Fatalf("unexpected content type for json: %q", got)
	}
	if got := contentTypeForExtension("parquet"); got != "application/octet-stream" {
		t.Fatalf("expected octet-stream fallback, got %q", got)
	}
}

func TestJoinPrefix(t *testing.T) {
	if got := joinPrefix("", "a/b.csv"); got != "a/b.csv" {
		t.Fatalf("unexpected key without prefix: %q", got)
	}
	if got := joinPrefix("/archive/", "/a/b.csv"); got != "archive/a/b.csv" {
		t.Fatalf("unexpected key with prefix: %q", got)
	}
}

func TestLocalStorageSave(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	if err != nil {
		t.Fatalf("unexpected error creating storage: %v", err)
	}

	payload := []byte("id,name\n1,chair\n")
	key, err := store.Save(context.Background(), payload, SaveOptions{
		Category:  "exports",
		BaseName:  "inventory-test",
		Extension: "csv",
	})
	if err != nil {
		t.Fatalf("unexpected error saving: %v", err)
	}
	if !strings.HasSuffix(key, "inventory-test.csv") {
		t.Fatalf("unexpected key: %q", key)
	}

	written, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(key)))
	if err != nil {
		t.Fatalf("unexpected error reading back: %v", err)
	}
	if string(written) != string(payload) {
		t.Fatalf("payload mismatch: %q", written)
	}

	if _, err := store.Save(context.Background(), nil, SaveOptions{BaseName: "x", Extension: "csv"}); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestLocalStorageSkipIfExists(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	if err != nil {
		t.Fatalf("unexpected error creating storage: %v", err)
	}

	opts := SaveOptions{Category: "exports", BaseName: "stable", Extension: "csv", SkipIfExists: true}
	key, err := store.Save(context.Background(), []byte("first"), opts)
	if err != nil {
		t.Fatalf("unexpected error on first save: %v", err)
	}
	if _, err := store.Save(context.Background(), []byte("second"), opts); err != nil {
		t.Fatalf("unexpected error on second save: %v", err)
	}

	written, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(key)))
	if err != nil {
		t.Fatalf("unexpected error reading back: %v", err)
	}
	if string(written) != "first" {
		t.Fatalf("expected original content preserved, got %q", written)
	}
}
