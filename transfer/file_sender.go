package transfer

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"
)

const DEFAULT_CHUNK_SIZE = 4096

// FileSender reads a source file in bounded chunks. Files ending in .gz are
// streamed decompressed; everything else is passed through byte-for-byte.
type FileSender struct {
	file       *os.File
	gzipReader *gzip.Reader
	reader     io.Reader
	buffer     []byte
}

func NewFileSender(chunkSize int) *FileSender {
	if chunkSize <= 0 {
		chunkSize = DEFAULT_CHUNK_SIZE
	}
	return &FileSender{
		buffer: make([]byte, chunkSize),
	}
}

func (f *FileSender) Open(filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("error while opening the file %s: %w", filePath, err)
	}

	f.file = file
	f.reader = file

	if strings.HasSuffix(filePath, ".gz") {
		gzipReader, err := gzip.NewReader(file)
		if err != nil {
			file.Close()
			f.file = nil
			return fmt.Errorf("error while opening gzip file %s: %w", filePath, err)
		}
		f.gzipReader = gzipReader
		f.reader = gzipReader
	}

	return nil
}

func (f *FileSender) Close() {
	if f.gzipReader != nil {
		f.gzipReader.Close()
	}
	if f.file != nil {
		f.file.Close()
	}
}

func (f *FileSender) Filename() string {
	return f.file.Name()
}

// NextChunk returns the next chunk of file data, up to the configured chunk
// size. It returns io.EOF once the file is exhausted. The returned slice is
// only valid until the next call.
func (f *FileSender) NextChunk() ([]byte, error) {
	for {
		bytesRead, err := f.reader.Read(f.buffer)
		if bytesRead > 0 {
			return f.buffer[:bytesRead], nil
		}
		if err != nil {
			return nil, err
		}
	}
}
