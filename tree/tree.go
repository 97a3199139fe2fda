// Package tree provides a YAML-backed configuration tree implementing
// the accessor contract the resolution engine navigates. It stores the
// document as plain decoded values; anything beyond Get/Parent lookup
// (merging, validation, mutation) is out of scope.
package tree

import (
	"io"
	"os"
	"strconv"

	"github.com/goccy/go-yaml"
	"github.com/klauspost/readahead"
)

// Tree wraps a decoded document root. The zero value is an empty tree
// on which every lookup misses.
type Tree struct {
	root any
}

// New wraps an already-decoded document.
func New(root any) *Tree {
	return &Tree{root: root}
}

// FromYAML decodes a YAML document into a tree.
func FromYAML(data []byte) (*Tree, error) {
	var root any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}

	return &Tree{root: root}, nil
}

// FromReader decodes a YAML document from a reader, pre-fetching
// chunks asynchronously while earlier ones decode.
func FromReader(r io.Reader) (*Tree, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, err
	}

	return FromYAML(data)
}

// FromFile decodes a YAML document from a file.
func FromFile(path string) (*Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return FromReader(f)
}

// Root returns the decoded document root.
func (t *Tree) Root() any {
	if t == nil {
		return nil
	}

	return t.root
}

// Get returns the value at the given path. Segments are strings (map
// keys) or ints (list indices); a missing key, an out-of-range index,
// or indexing into a scalar all report false.
func (t *Tree) Get(segments []any) (any, bool) {
	if t == nil {
		return nil, false
	}

	return navigate(t.root, segments)
}

// Parent returns the container holding the value at the given path.
// The parent of a top-level key is the document root.
func (t *Tree) Parent(segments []any) (any, bool) {
	if t == nil || len(segments) == 0 {
		return nil, false
	}

	return navigate(t.root, segments[:len(segments)-1])
}

func navigate(node any, segments []any) (any, bool) {
	cur := node

	for _, seg := range segments {
		next, ok := step(cur, seg)
		if !ok {
			return nil, false
		}

		cur = next
	}

	return cur, true
}

// step descends one segment. Segment and container flavors are matched
// loosely: an int segment reaches a string-keyed map entry by its
// decimal form, and a digit-string segment indexes a list.
func step(node, seg any) (any, bool) {
	switch c := node.(type) {
	case map[string]any:
		key, ok := stringSegment(seg)
		if !ok {
			return nil, false
		}

		v, ok := c[key]

		return v, ok

	case map[any]any:
		if v, ok := c[seg]; ok {
			return v, true
		}

		if key, ok := stringSegment(seg); ok {
			if v, ok := c[key]; ok {
				return v, true
			}
		}

		if idx, ok := intSegment(seg); ok {
			if v, ok := c[idx]; ok {
				return v, true
			}
		}

		return nil, false

	case []any:
		idx, ok := intSegment(seg)
		if !ok || idx < 0 || idx >= len(c) {
			return nil, false
		}

		return c[idx], true

	default:
		return nil, false
	}
}

func stringSegment(seg any) (string, bool) {
	switch s := seg.(type) {
	case string:
		return s, true
	case int:
		return strconv.Itoa(s), true
	default:
		return "", false
	}
}

func intSegment(seg any) (int, bool) {
	switch s := seg.(type) {
	case int:
		return s, true
	case string:
		idx, err := strconv.Atoi(s)

		return idx, err == nil
	default:
		return 0, false
	}
}
