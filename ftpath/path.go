// Package ftpath implements the path value type used to address nodes in a
// file tree
package ftpath

import (
	"fmt"
	"slices"
	"strings"

	"github.com/brettbedarf/filetree"
)

// Delimiter separates path components
const Delimiter = "/"

// Path is an immutable, validated, delimiter-separated path such as "a/b/c".
// The zero value is the empty path of depth 0 and is never returned by [New].
type Path struct {
	pathname string
	comps    []string
}

// New parses s into a Path.
// Returns filetree.ErrBadPath if s is empty, starts or ends with the delimiter,
// or contains an empty component (i.e. "a//b")
func New(s string) (Path, error) {
	if s == "" {
		return Path{}, fmt.Errorf("%w: empty path", filetree.ErrBadPath)
	}
	comps := strings.Split(s, Delimiter)
	for _, c := range comps {
		if c == "" {
			return Path{}, fmt.Errorf("%w: %q", filetree.ErrBadPath, s)
		}
	}
	return Path{pathname: s, comps: comps}, nil
}

// MustNew is like [New] but panics on a bad path. Intended for constants and tests
func MustNew(s string) Path {
	p, err := New(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Prefix returns the ancestor of p with the given depth; p itself if depth equals p's depth.
// Returns filetree.ErrNoSuchPath if depth is less than 1 or greater than p's depth
func (p Path) Prefix(depth int) (Path, error) {
	if depth < 1 || depth > len(p.comps) {
		return Path{}, fmt.Errorf("%w: no prefix of depth %d in %q", filetree.ErrNoSuchPath, depth, p.pathname)
	}
	if depth == len(p.comps) {
		return p, nil
	}
	comps := p.comps[:depth:depth]
	return Path{pathname: strings.Join(comps, Delimiter), comps: comps}, nil
}

// Dup returns an independent copy of p
func (p Path) Dup() Path {
	return Path{pathname: p.pathname, comps: slices.Clone(p.comps)}
}

// Pathname returns the string form of p
func (p Path) Pathname() string {
	return p.pathname
}

func (p Path) String() string {
	return p.pathname
}

// StrLen returns the byte length of the pathname
func (p Path) StrLen() int {
	return len(p.pathname)
}

// Depth returns the number of components; 0 for the zero Path
func (p Path) Depth() int {
	return len(p.comps)
}

// Base returns the last component, or "" for the zero Path
func (p Path) Base() string {
	if len(p.comps) == 0 {
		return ""
	}
	return p.comps[len(p.comps)-1]
}

// IsZero reports whether p is the zero Path
func (p Path) IsZero() bool {
	return len(p.comps) == 0
}

// SharedPrefixDepth returns the number of leading components p and other have in common
func (p Path) SharedPrefixDepth(other Path) int {
	n := min(len(p.comps), len(other.comps))
	i := 0
	for i < n && p.comps[i] == other.comps[i] {
		i++
	}
	return i
}

// Compare orders paths lexicographically by pathname.
// Returns <0, 0 or >0 if p is less than, equal to or greater than other
func (p Path) Compare(other Path) int {
	return strings.Compare(p.pathname, other.pathname)
}

// CompareString is like [Path.Compare] against a raw pathname
func (p Path) CompareString(s string) int {
	return strings.Compare(p.pathname, s)
}
