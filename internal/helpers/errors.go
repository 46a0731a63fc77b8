package helpers

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	// ErrOpenTextFile indicates opening a text file failed.
	ErrOpenTextFile = errors.New("failed to open text file")
	// ErrScanTextFile indicates scanner iteration over a text file failed.
	ErrScanTextFile = errors.New("failed to scan text file")
)

// ReadTxtFile reads non-empty, non-comment lines from a text file.
func ReadTxtFile(path string) ([]string, error) {
	var lines []string
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrOpenTextFile, path, err)
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			lines = append(lines, line)
		}
	}
	if scanner.Err() != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrScanTextFile, path, scanner.Err())
	}
	return lines, nil
}

// ProcessUrls expands .txt file arguments into the URLs they list.
// Order is preserved and duplicates are kept: each entry is one download and
// its position feeds the fallback title.
func ProcessUrls(urls []string) ([]string, error) {
	var processed []string
	for _, _url := range urls {
		if strings.HasSuffix(_url, ".txt") {
			txtLines, err := ReadTxtFile(_url)
			if err != nil {
				return nil, err
			}
			processed = append(processed, txtLines...)
			continue
		}
		processed = append(processed, strings.TrimSpace(_url))
	}
	return processed, nil
}
