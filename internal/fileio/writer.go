package fileio

import (
	"io"
	"os"
	"path"
)

// Writer writes downloaded traces to disk.
type Writer struct {
	// rootDir is prepended to every path, useful for testing
	rootDir string
}

func NewWriter() *Writer {
	return &Writer{}
}

// SetRootdir sets the root directory for the writer, useful for testing
func (w *Writer) SetRootdir(path string) {
	w.rootDir = path
}

// PathFor returns the full path for the provided file.
func (w *Writer) PathFor(filePath string) string {
	return path.Join(w.rootDir, filePath)
}

// WriteStream copies the stream to the file at the provided path, creating or
// truncating it. A missing directory or denied permission surfaces here as an
// *os.PathError from Create.
func (w *Writer) WriteStream(filePath string, stream io.Reader) error {
	outFile, err := os.Create(w.PathFor(filePath))
	if err != nil {
		return err
	}
	defer outFile.Close()
	_, err = io.Copy(outFile, stream)
	return err
}
