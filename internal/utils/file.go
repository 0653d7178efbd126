package utils

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var imageExts = map[string]bool{"jpg": true, "jpeg": true, "png": true, "gif": true, "webp": true}

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

// GetFileExtension returns the file extension without the dot
func GetFileExtension(filename string) string {
	ext := filepath.Ext(filename)
	if len(ext) > 0 {
		return strings.ToLower(ext[1:])
	}
	return ""
}

// IsImageFile checks if a file has a screenshot extension we can decode
func IsImageFile(filename string) bool {
	return imageExts[GetFileExtension(filename)]
}

// OutputStem returns the sanitized base name of an input screenshot path or URL
func OutputStem(input string) string {
	base := input
	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		base = strings.SplitN(filepath.Base(input), "?", 2)[0]
	}
	name := strings.TrimSuffix(filepath.Base(base), filepath.Ext(base))
	name = SanitizeFilename(name)
	if name == "" {
		name = "screenshot"
	}
	return name
}

// UniqueStems returns one output stem per input. Inputs whose stems collide,
// compared case-insensitively, get a suffix derived from their full path.
func UniqueStems(inputs []string) []string {
	stems := make([]string, len(inputs))
	counts := make(map[string]int, len(inputs))
	for i, in := range inputs {
		stems[i] = OutputStem(in)
		counts[strings.ToLower(stems[i])]++
	}
	for i, in := range inputs {
		if counts[strings.ToLower(stems[i])] > 1 {
			sum := sha256.Sum256([]byte(in))
			stems[i] = fmt.Sprintf("%s_%x", stems[i], sum[:4])
		}
	}
	return stems
}

// OutputPath joins an output file name: <outDir>/<stem><suffix>.<ext>
func OutputPath(stem, outDir, suffix, ext string) string {
	return filepath.Join(outDir, fmt.Sprintf("%s%s.%s", stem, suffix, ext))
}

// ExpandInputs replaces directories with the image files they contain; URLs and files pass through.
// Repeated entries are kept once.
func ExpandInputs(inputs []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			out = append(out, path)
		}
	}
	for _, in := range inputs {
		if !DirExists(in) {
			add(in)
			continue
		}
		files, err := ListImageFiles(in)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", in, err)
		}
		for _, f := range files {
			add(f)
		}
	}
	return out, nil
}

// ListImageFiles recursively lists all image files in a directory
func ListImageFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && IsImageFile(path) {
			files = append(files, path)
		}

		return nil
	})

	return files, err
}

// DirExists checks if a directory exists
func DirExists(dirname string) bool {
	info, err := os.Stat(dirname)
	if os.IsNotExist(err) || err != nil {
		return false
	}
	return info.IsDir()
}

// SanitizeFilename removes or replaces invalid characters in filenames
func SanitizeFilename(filename string) string {
	invalid := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	result := filename

	for _, char := range invalid {
		result = strings.ReplaceAll(result, char, "_")
	}

	// Remove leading/trailing spaces and dots
	result = strings.Trim(result, " .")

	return result
}
