package dictionary

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// FileFormat represents word list file formats
type FileFormat int

const (
	FormatUnknown FileFormat = iota
	FormatText               // one word per line, extra columns ignored
)

// FormatInfo contains metadata about a word list format
type FormatInfo struct {
	Format      FileFormat
	Description string
	Extensions  []string
	MinSize     int64 // Minimum expected file size in bytes
}

var supportedFormats = map[FileFormat]FormatInfo{
	FormatText: {
		Format:      FormatText,
		Description: "Plain Text Word List",
		Extensions:  []string{".txt", ".lst", ".dic", ""},
		MinSize:     1,
	},
}

// ValidateWordList checks that path is a readable, non-empty text word list.
// Any extension is accepted; unexpected ones are only logged.
// Errors wrap the underlying os error, so errors.Is(err, os.ErrNotExist) holds
// for a missing file.
func ValidateWordList(path string) error {
	fileInfo, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat word list %s: %w", path, err)
	}
	if fileInfo.IsDir() {
		return fmt.Errorf("word list %s is a directory", path)
	}

	info := supportedFormats[FormatText]
	if fileInfo.Size() < info.MinSize {
		return fmt.Errorf("word list %s is empty", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	validExt := false
	for _, e := range info.Extensions {
		if ext == e {
			validExt = true
			break
		}
	}
	if !validExt {
		log.Warnf("Word list %s has unusual extension %s (expected: %v), reading it as text", path, ext, info.Extensions)
	}

	return validateTextFormat(path)
}

// validateTextFormat makes sure the first line holds a token.
func validateTextFormat(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open word list %s: %w", path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 1024), 64*1024)
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) != "" {
			log.Debugf("Word list %s validated", path)
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read word list %s: %w", path, err)
	}
	return fmt.Errorf("word list %s has no words", path)
}
