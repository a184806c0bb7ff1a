package dbproc

import (
	"fmt"
	"strconv"
	"strings"
)

// Path is a materialized-path label sequence: each element is the
// node's ordinal among its siblings. Paths are stored and compared as
// their String() form, a dot-joined sequence of fixed-width, zero-padded
// decimal labels, so that lexical ordering on the string matches the
// depth-first, sibling-ordered traversal of the tree and prefix
// comparison answers ancestry questions directly - the encoding the
// design notes call for when the backing store has no native
// hierarchical label type.
type Path []int32

// labelWidth is wide enough that siblings numbering into the billions
// still sort correctly lexically.
const labelWidth = 10

// String renders the path in its lexically sortable, persisted form.
func (p Path) String() string {
	labels := make([]string, len(p))
	for i, l := range p {
		labels[i] = fmt.Sprintf("%0*d", labelWidth, l)
	}
	return strings.Join(labels, ".")
}

// ParsePath parses a persisted path string back into a Path.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return nil, fmt.Errorf("dbproc: empty path")
	}
	parts := strings.Split(s, ".")
	path := make(Path, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseInt(part, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("dbproc: invalid path label %q: %w", part, err)
		}
		path[i] = int32(v)
	}
	return path, nil
}

// Depth is the node's distance from the root, counting the root as
// depth 1 - matching the invariant depth = length(path).
func (p Path) Depth() int {
	return len(p)
}

// RootID returns the first path element, the root message's own label.
func (p Path) RootID() int32 {
	if len(p) == 0 {
		return 0
	}
	return p[0]
}

// IsPrefixOf reports whether p is an ancestor-or-self path of other: every
// label of p appears, in order, as the corresponding prefix of other.
func (p Path) IsPrefixOf(other Path) bool {
	if len(p) > len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Child returns a new path extending p with the given sibling label.
func (p Path) Child(label int32) Path {
	child := make(Path, len(p)+1)
	copy(child, p)
	child[len(p)] = label
	return child
}

// PrefixRange returns the half-open string range [lo, hi) that a
// LIKE/BETWEEN-style prefix query over the persisted path column should
// scan to find every descendant of p (inclusive of p itself).
func (p Path) PrefixRange() (lo, hi string) {
	lo = p.String()
	return lo, lo + "/" // '/' sorts immediately after '.' and before digits
}
