package classify

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// synsetID matches WordNet ids such as n02708093.
var synsetID = regexp.MustCompile(`^n\d{8}\s+`)

// LoadLabels reads a label file. See ParseLabels.
func LoadLabels(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open labels: %w", err)
	}
	defer f.Close()

	labels, err := ParseLabels(f)
	if err != nil {
		return nil, fmt.Errorf("parse labels %s: %w", path, err)
	}
	return labels, nil
}

// ParseLabels reads one class per line. Blank lines and lines starting
// with # are skipped. A leading synset id is stripped, and of
// comma-separated synonyms only the first is kept:
//
//	n02708093 analog clock
//	n04548280 wall clock
//	n03196217 digital clock, LED clock
func ParseLabels(r io.Reader) ([]string, error) {
	var labels []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = synsetID.ReplaceAllString(line, "")
		if i := strings.IndexByte(line, ','); i >= 0 {
			line = line[:i]
		}
		labels = append(labels, strings.TrimSpace(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("no labels")
	}
	return labels, nil
}
