package storage

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	metaSuffix = ".meta"

	// contentTypeMetaKey is the reserved sidecar key holding the declared
	// content type. It never appears in FileMetadata.Metadata.
	contentTypeMetaKey = "content-type"
)

// LocalFileStorage keeps artifacts on the local filesystem under a base
// directory. Custom metadata lives in a key=value sidecar next to each file.
type LocalFileStorage struct {
	basePath string
	baseURL  string
}

// NewLocalFileStorage creates local storage rooted at basePath, creating the
// directory if needed. An optional baseURL makes GenerateURL return HTTP
// addresses instead of file:// paths.
func NewLocalFileStorage(basePath string, baseURL ...string) (*LocalFileStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, NewStorageError("NewLocalFileStorage", "", err)
	}

	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, NewStorageError("NewLocalFileStorage", "", err)
	}

	s := &LocalFileStorage{basePath: absPath}
	if len(baseURL) > 0 {
		s.baseURL = strings.TrimSuffix(baseURL[0], "/")
	}
	return s, nil
}

// Store writes data under key. The write goes through a temp file and a
// rename so readers never observe a partial artifact.
func (l *LocalFileStorage) Store(ctx context.Context, key string, data []byte, opts *StoreOptions) error {
	path, err := l.resolve("Store", key)
	if err != nil {
		return err
	}

	if opts == nil || !opts.Overwrite {
		if _, err := os.Stat(path); err == nil {
			return NewStorageError("Store", key, ErrFileAlreadyExists)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return NewStorageError("Store", key, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return NewStorageError("Store", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return NewStorageError("Store", key, err)
	}

	if opts != nil && (opts.ContentType != "" || len(opts.Metadata) > 0) {
		// Sidecar failure leaves the artifact itself intact.
		l.writeSidecar(path, opts.ContentType, opts.Metadata)
	}
	return nil
}

func (l *LocalFileStorage) Retrieve(ctx context.Context, key string) ([]byte, error) {
	path, err := l.resolve("Retrieve", key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, NewStorageError("Retrieve", key, ErrFileNotFound)
	}
	if err != nil {
		return nil, NewStorageError("Retrieve", key, err)
	}
	return data, nil
}

// Delete removes the artifact and its metadata sidecar.
func (l *LocalFileStorage) Delete(ctx context.Context, key string) error {
	path, err := l.resolve("Delete", key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return NewStorageError("Delete", key, ErrFileNotFound)
		}
		return NewStorageError("Delete", key, err)
	}

	os.Remove(path + metaSuffix)
	return nil
}

func (l *LocalFileStorage) Exists(ctx context.Context, key string) (bool, error) {
	path, err := l.resolve("Exists", key)
	if err != nil {
		return false, err
	}

	_, statErr := os.Stat(path)
	if statErr == nil {
		return true, nil
	}
	if os.IsNotExist(statErr) {
		return false, nil
	}
	return false, NewStorageError("Exists", key, statErr)
}

func (l *LocalFileStorage) GetMetadata(ctx context.Context, key string) (*FileMetadata, error) {
	path, err := l.resolve("GetMetadata", key)
	if err != nil {
		return nil, err
	}

	stat, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return nil, NewStorageError("GetMetadata", key, ErrFileNotFound)
		}
		return nil, NewStorageError("GetMetadata", key, statErr)
	}

	return l.describe(key, stat), nil
}

// List walks the base directory in key order, applying prefix, marker and
// MaxResults. Sidecar files are never listed.
func (l *LocalFileStorage) List(ctx context.Context, opts *ListOptions) (*ListResult, error) {
	if opts == nil {
		opts = &ListOptions{}
	}
	limit := opts.MaxResults
	if limit <= 0 {
		limit = 1000
	}

	type entry struct {
		key  string
		info os.FileInfo
	}
	var entries []entry

	err := filepath.Walk(l.basePath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || strings.HasSuffix(path, metaSuffix) || strings.HasSuffix(path, ".tmp") {
			return nil
		}

		rel, err := filepath.Rel(l.basePath, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)

		if opts.Prefix != "" && !strings.HasPrefix(key, opts.Prefix) {
			return nil
		}
		if opts.Marker != "" && key <= opts.Marker {
			return nil
		}

		entries = append(entries, entry{key: key, info: info})
		return nil
	})
	if err != nil {
		return nil, NewStorageError("List", "", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	truncated := len(entries) > limit
	if truncated {
		entries = entries[:limit]
	}

	result := &ListResult{IsTruncated: truncated}
	for _, e := range entries {
		result.Files = append(result.Files, *l.describe(e.key, e.info))
	}
	if truncated && len(result.Files) > 0 {
		result.NextMarker = result.Files[len(result.Files)-1].Key
	}
	return result, nil
}

// GenerateURL returns an HTTP URL when a base URL is configured and a
// file:// URL otherwise. expiry is ignored; local files do not expire.
func (l *LocalFileStorage) GenerateURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	path, err := l.resolve("GenerateURL", key)
	if err != nil {
		return "", err
	}

	if _, statErr := os.Stat(path); statErr != nil {
		if os.IsNotExist(statErr) {
			return "", NewStorageError("GenerateURL", key, ErrFileNotFound)
		}
		return "", NewStorageError("GenerateURL", key, statErr)
	}

	if l.baseURL != "" {
		return fmt.Sprintf("%s/%s", l.baseURL, key), nil
	}
	return "file://" + path, nil
}

func (l *LocalFileStorage) Close() error {
	return nil
}

// resolve validates the key and maps it to an absolute path. Keys are
// slash-separated, relative, and may not climb out of the base directory.
func (l *LocalFileStorage) resolve(op, key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "..") || strings.Contains(key, "\\") {
		return "", NewStorageError(op, key, ErrInvalidKey)
	}
	return filepath.Join(l.basePath, filepath.FromSlash(key)), nil
}

// describe prefers the content type declared at store time; files without a
// sidecar fall back to the extension-derived type.
func (l *LocalFileStorage) describe(key string, stat os.FileInfo) *FileMetadata {
	storedType, custom := l.readSidecar(filepath.Join(l.basePath, filepath.FromSlash(key)))

	contentType := storedType
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(key))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	meta := &FileMetadata{
		Key:          key,
		Size:         stat.Size(),
		ContentType:  contentType,
		LastModified: stat.ModTime(),
		ETag:         fmt.Sprintf("%d-%d", stat.Size(), stat.ModTime().Unix()),
	}
	if len(custom) > 0 {
		meta.Metadata = custom
	}
	return meta
}

func (l *LocalFileStorage) writeSidecar(path, contentType string, metadata map[string]string) error {
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		if k == contentTypeMetaKey {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	if contentType != "" {
		fmt.Fprintf(&b, "%s=%s\n", contentTypeMetaKey, contentType)
	}
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s\n", k, metadata[k])
	}
	return os.WriteFile(path+metaSuffix, []byte(b.String()), 0644)
}

func (l *LocalFileStorage) readSidecar(path string) (string, map[string]string) {
	data, err := os.ReadFile(path + metaSuffix)
	if err != nil {
		return "", nil
	}

	var contentType string
	metadata := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		if k == contentTypeMetaKey {
			contentType = v
			continue
		}
		metadata[k] = v
	}
	if len(metadata) == 0 {
		metadata = nil
	}
	return contentType, metadata
}
