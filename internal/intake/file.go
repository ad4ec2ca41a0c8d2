package intake

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// FileHandle references a user-selected file and its metadata. Content is not
// read until Open is called.
type FileHandle struct {
	Name      string
	SizeBytes int64
	MediaType string
	// Path is the on-disk location when the handle came from the filesystem.
	Path string

	open func() (io.ReadCloser, error)
}

// NewFileHandle builds a handle from explicit metadata and a content opener.
func NewFileHandle(name string, size int64, mediaType string, open func() (io.ReadCloser, error)) FileHandle {
	return FileHandle{Name: name, SizeBytes: size, MediaType: mediaType, open: open}
}

// FromPath stats a file on disk and returns a handle for it.
func FromPath(path string) (FileHandle, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileHandle{}, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return FileHandle{}, fmt.Errorf("%s is a directory", path)
	}
	name := filepath.Base(path)
	return FileHandle{
		Name:      name,
		SizeBytes: info.Size(),
		MediaType: mediaTypeFor(name),
		Path:      path,
		open:      func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

// Open returns a reader over the file content. Callers must close it.
func (f FileHandle) Open() (io.ReadCloser, error) {
	if f.open == nil {
		return nil, errors.New("file handle has no content")
	}
	return f.open()
}

// Extension returns the lower-cased text after the last '.' in the name, or
// "" when the name has none.
func (f FileHandle) Extension() string {
	i := strings.LastIndex(f.Name, ".")
	if i < 0 {
		return ""
	}
	return strings.ToLower(f.Name[i+1:])
}

// Spreadsheet types are listed explicitly; the stdlib table does not know them.
var tabularTypes = map[string]string{
	".csv":  "text/csv",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".xls":  "application/vnd.ms-excel",
	".tsv":  "text/tab-separated-values",
}

func mediaTypeFor(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return ""
	}
	if t, ok := tabularTypes[ext]; ok {
		return t
	}
	t := mime.TypeByExtension(ext)
	if t == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(t)
	if err != nil {
		return ""
	}
	return mt
}
