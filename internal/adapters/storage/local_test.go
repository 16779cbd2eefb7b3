package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestStorage(t *testing.T) *LocalFileStorage {
	t.Helper()

	storage, err := NewLocalFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() { storage.Close() })
	return storage
}

func TestLocalFileStorage_Store(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()
	csvData := []byte(`"Section","Exported"` + "\n" + `"sales","yes"`)

	tests := []struct {
		name    string
		key     string
		data    []byte
		opts    *StoreOptions
		wantErr bool
	}{
		{
			name: "store export artifact",
			key:  "exports/export_20240101_20240131.csv",
			data: csvData,
		},
		{
			name: "store with content type and metadata",
			key:  "exports/export_20240201_20240229.csv",
			data: csvData,
			opts: &StoreOptions{
				ContentType: "text/csv",
				Metadata:    map[string]string{"sections": "sales,products"},
			},
		},
		{
			name:    "path traversal rejected",
			key:     "../../../etc/passwd",
			data:    csvData,
			wantErr: true,
		},
		{
			name:    "empty key rejected",
			key:     "",
			data:    csvData,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := storage.Store(ctx, tt.key, tt.data, tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Store() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			retrieved, err := storage.Retrieve(ctx, tt.key)
			if err != nil {
				t.Fatalf("Retrieve failed: %v", err)
			}
			if string(retrieved) != string(tt.data) {
				t.Errorf("Retrieved content mismatch: got %s, want %s", retrieved, tt.data)
			}
		})
	}
}

func TestLocalFileStorage_Overwrite(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()
	key := "exports/export_20240101_20240131.csv"

	if err := storage.Store(ctx, key, []byte("first run"), nil); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	// Default is no overwrite.
	err := storage.Store(ctx, key, []byte("second run"), nil)
	if err == nil {
		t.Fatal("expected error storing over existing key")
	}
	if !IsAlreadyExists(err) {
		t.Errorf("expected already-exists error, got %v", err)
	}

	if err := storage.Store(ctx, key, []byte("second run"), &StoreOptions{Overwrite: true}); err != nil {
		t.Fatalf("Store with overwrite failed: %v", err)
	}

	data, err := storage.Retrieve(ctx, key)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if string(data) != "second run" {
		t.Errorf("expected overwritten content, got %q", data)
	}
}

func TestLocalFileStorage_Metadata(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()
	key := "exports/export_20240301_20240331.csv"
	data := []byte(`"Product Name","Price"` + "\n" + `"Industrial Mixer","1250.00"`)

	err := storage.Store(ctx, key, data, &StoreOptions{
		ContentType: "text/csv",
		Metadata:    map[string]string{"sections": "products"},
	})
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	meta, err := storage.GetMetadata(ctx, key)
	if err != nil {
		t.Fatalf("GetMetadata failed: %v", err)
	}

	if meta.Key != key {
		t.Errorf("Key mismatch: got %q, want %q", meta.Key, key)
	}
	if meta.Size != int64(len(data)) {
		t.Errorf("Size mismatch: got %d, want %d", meta.Size, len(data))
	}
	if meta.ContentType != "text/csv" {
		t.Errorf("ContentType mismatch: got %q", meta.ContentType)
	}
	if meta.Metadata["sections"] != "products" {
		t.Errorf("Custom metadata mismatch: got %q", meta.Metadata["sections"])
	}
	if _, ok := meta.Metadata["content-type"]; ok {
		t.Error("content type must not leak into custom metadata")
	}

	// Without a declared content type the extension decides.
	if err := storage.Store(ctx, "exports/plain.csv", data, nil); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	plain, err := storage.GetMetadata(ctx, "exports/plain.csv")
	if err != nil {
		t.Fatalf("GetMetadata failed: %v", err)
	}
	if !strings.HasPrefix(plain.ContentType, "text/csv") {
		t.Errorf("expected extension-derived content type, got %q", plain.ContentType)
	}
}

func TestLocalFileStorage_List(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	keys := []string{
		"exports/export_20240101_20240131.csv",
		"exports/export_20240201_20240229.csv",
		"backups/retail.db.backup",
	}
	for _, key := range keys {
		if err := storage.Store(ctx, key, []byte("data"), nil); err != nil {
			t.Fatalf("Store %s failed: %v", key, err)
		}
	}

	result, err := storage.List(ctx, &ListOptions{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(result.Files) != 3 {
		t.Errorf("expected 3 files, got %d", len(result.Files))
	}

	result, err = storage.List(ctx, &ListOptions{Prefix: "exports/"})
	if err != nil {
		t.Fatalf("List with prefix failed: %v", err)
	}
	if len(result.Files) != 2 {
		t.Errorf("expected 2 export files, got %d", len(result.Files))
	}
	for _, f := range result.Files {
		if !strings.HasPrefix(f.Key, "exports/") {
			t.Errorf("unexpected key in prefixed list: %q", f.Key)
		}
	}
}

func TestLocalFileStorage_ListPagination(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	for _, key := range []string{
		"exports/a.csv",
		"exports/b.csv",
		"exports/c.csv",
	} {
		if err := storage.Store(ctx, key, []byte("data"), nil); err != nil {
			t.Fatalf("Store %s failed: %v", key, err)
		}
	}

	page, err := storage.List(ctx, &ListOptions{MaxResults: 2})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page.Files) != 2 || !page.IsTruncated {
		t.Fatalf("expected a truncated page of 2, got %d (truncated=%v)", len(page.Files), page.IsTruncated)
	}

	rest, err := storage.List(ctx, &ListOptions{Marker: page.NextMarker})
	if err != nil {
		t.Fatalf("List after marker failed: %v", err)
	}
	if len(rest.Files) != 1 || rest.IsTruncated {
		t.Fatalf("expected a final page of 1, got %d (truncated=%v)", len(rest.Files), rest.IsTruncated)
	}
	if rest.Files[0].Key != "exports/c.csv" {
		t.Errorf("final page key = %q, want exports/c.csv", rest.Files[0].Key)
	}
}

func TestLocalFileStorage_Delete(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()
	key := "exports/export_20240101_20240131.csv"

	if err := storage.Store(ctx, key, []byte("data"), nil); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	if err := storage.Delete(ctx, key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	exists, err := storage.Exists(ctx, key)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("file should not exist after delete")
	}

	err = storage.Delete(ctx, key)
	if err == nil {
		t.Fatal("expected error deleting missing file")
	}
	if !IsNotFound(err) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestLocalFileStorage_NotFound(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	_, err := storage.Retrieve(ctx, "exports/missing.csv")
	if err == nil {
		t.Fatal("expected error retrieving missing file")
	}
	if !IsNotFound(err) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestLocalFileStorage_GenerateURL(t *testing.T) {
	tempDir := t.TempDir()

	storage, err := NewLocalFileStorage(tempDir, "http://localhost:8081/files")
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer storage.Close()

	ctx := context.Background()
	key := "exports/export_20240101_20240131.csv"
	if err := storage.Store(ctx, key, []byte("data"), nil); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	url, err := storage.GenerateURL(ctx, key, time.Hour)
	if err != nil {
		t.Fatalf("GenerateURL failed: %v", err)
	}
	if !strings.Contains(url, key) {
		t.Errorf("URL %q should reference the key", url)
	}

	// Key stays inside the base path on disk.
	if _, err := os.Stat(filepath.Join(tempDir, filepath.FromSlash(key))); err != nil {
		t.Errorf("stored file not found on disk: %v", err)
	}
}
