package vault

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/frontmatter"
	"github.com/starford/laguz/internal/models"
)

// collector accumulates up to limit items from concurrent workers. The cap
// check and the append happen under a single lock hold, so the result set
// never exceeds limit even with racing producers.
type collector[T any] struct {
	mu    sync.Mutex
	limit int
	items []T
}

func (c *collector[T]) add(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.items) >= c.limit {
		return
	}
	c.items = append(c.items, item)
}

func (c *collector[T]) results() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items
}

// Search regex-matches every line of every note under the root and returns
// at most limit hits. Within a file lines are reported in ascending order;
// ordering across files is unspecified. Unreadable or vanished files
// contribute nothing. An invalid pattern fails the call before any file is
// touched.
func (v *Vault) Search(pattern string, limit int) ([]models.SearchResult, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("vault: pattern %q: %w", pattern, apperr.ErrInvalidPattern)
	}
	files, err := v.listNotes()
	if err != nil {
		return nil, err
	}

	out := &collector[models.SearchResult]{limit: limit}
	g := new(errgroup.Group)
	g.SetLimit(v.workers)
	for _, rel := range files {
		g.Go(func() error {
			data, readErr := os.ReadFile(filepath.Join(v.root, rel))
			if readErr != nil {
				return nil
			}
			for i, line := range splitLines(data) {
				if re.Match(line) {
					out.add(models.SearchResult{
						Path:       filepath.ToSlash(rel),
						LineNumber: i + 1,
						Line:       string(line),
					})
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	return out.results(), nil
}

// SearchMetadata regex-matches the frontmatter value at a dot-separated
// field path (e.g. "author.name") across every note and returns at most
// limit hits, each carrying the full resolved value. Notes without
// decodable frontmatter, or without the field, contribute nothing.
func (v *Vault) SearchMetadata(field, pattern string, limit int) ([]models.MetadataMatch, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("vault: pattern %q: %w", pattern, apperr.ErrInvalidPattern)
	}
	files, err := v.listNotes()
	if err != nil {
		return nil, err
	}

	out := &collector[models.MetadataMatch]{limit: limit}
	g := new(errgroup.Group)
	g.SetLimit(v.workers)
	for _, rel := range files {
		g.Go(func() error {
			data, readErr := os.ReadFile(filepath.Join(v.root, rel))
			if readErr != nil {
				return nil
			}
			meta, _, ok := frontmatter.Parse(data)
			if !ok {
				return nil
			}
			value, found := resolveField(meta, field)
			if !found || !matchValue(value, re) {
				return nil
			}
			out.add(models.MetadataMatch{Path: filepath.ToSlash(rel), Value: value})
			return nil
		})
	}
	_ = g.Wait()
	return out.results(), nil
}

// splitLines splits data into lines without their terminators, mirroring a
// line iterator: a trailing newline does not produce a final empty line.
func splitLines(data []byte) [][]byte {
	if len(data) == 0 {
		return nil
	}
	lines := bytes.Split(data, []byte("\n"))
	if len(lines[len(lines)-1]) == 0 {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		lines[i] = bytes.TrimSuffix(line, []byte("\r"))
	}
	return lines
}

// resolveField indexes into meta by each dot-separated segment of field.
// Every segment but the last must land on an object.
func resolveField(meta any, field string) (any, bool) {
	current := meta
	for _, part := range strings.Split(field, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// matchValue tests a frontmatter value against the pattern: strings
// directly, numbers and booleans via their canonical text form, arrays if
// any element matches recursively. Objects and null never match.
func matchValue(v any, re *regexp.Regexp) bool {
	switch t := v.(type) {
	case string:
		return re.MatchString(t)
	case bool:
		return re.MatchString(strconv.FormatBool(t))
	case int:
		return re.MatchString(strconv.Itoa(t))
	case int64:
		return re.MatchString(strconv.FormatInt(t, 10))
	case uint64:
		return re.MatchString(strconv.FormatUint(t, 10))
	case float64:
		return re.MatchString(strconv.FormatFloat(t, 'f', -1, 64))
	case []any:
		for _, item := range t {
			if matchValue(item, re) {
				return true
			}
		}
	}
	return false
}
