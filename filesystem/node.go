package filesystem

import (
	"errors"
	"fmt"

	"github.com/brettbedarf/filetree"
	"github.com/brettbedarf/filetree/ftpath"
	"github.com/brettbedarf/filetree/internal/dynarray"
)

var _ filetree.NodeInfo = (*Node)(nil)

// Node is a directory or file in the tree.
//
// A Node owns its children; parent is a back reference only. Directory and
// file children live in separate collections, each kept sorted by path.
//
// NOTE: Node is not thread-safe. Guard a whole tree with one lock (see [FileSystem])
type Node struct {
	isDir    bool
	path     ftpath.Path // owned copy of the creation path
	parent   *Node
	dirs     *dynarray.Array[*Node]
	files    *dynarray.Array[*Node]
	contents []byte // files only
	nodeID   uint64 // registry ID assigned by FileSystem; 0 if not registered
	isDel    bool
}

type nodeOptions struct {
	childLimit    int
	hasChildLimit bool
}

// NodeOption customizes [NewNode]
type NodeOption func(*nodeOptions)

// WithChildLimit caps the size of each of the new node's child collections.
// Without it a node inherits its parent's limit; a root defaults to unlimited (0)
func WithChildLimit(limit int) NodeOption {
	return func(o *nodeOptions) {
		o.childLimit = limit
		o.hasChildLimit = true
	}
}

// NewNode creates a new node at path p and links it into parent's children.
// parent may be nil only if p has depth 1, in which case the node is a root.
// For files the node takes ownership of contents; for directories contents is ignored.
//
// Nothing is linked into parent unless every check passes. Errors:
//   - filetree.ErrConflictingPath if parent's path is not an ancestor of p
//   - filetree.ErrNoSuchPath if p is not exactly one level below parent,
//     or parent is nil and p is not of depth 1
//   - filetree.ErrAlreadyInTree if parent already has a child at p
//   - filetree.ErrMemory if parent's child collection is full
func NewNode(isDir bool, p ftpath.Path, parent *Node, contents []byte, opts ...NodeOption) (*Node, error) {
	var o nodeOptions
	for _, opt := range opts {
		opt(&o)
	}

	n := &Node{path: p.Dup()}

	if parent != nil {
		parent.mustLive()
		pDepth := parent.path.Depth()
		// parent must be an ancestor of child
		if n.path.SharedPrefixDepth(parent.path) < pDepth {
			return nil, fmt.Errorf("%w: %q is not an ancestor of %q", filetree.ErrConflictingPath, parent.path, n.path)
		}
		// parent must be exactly one level up from child
		if n.path.Depth() != pDepth+1 {
			return nil, fmt.Errorf("%w: %q is not a direct child of %q", filetree.ErrNoSuchPath, n.path, parent.path)
		}
		if found, _, _ := parent.HasChild(n.path); found {
			return nil, fmt.Errorf("%w: %q", filetree.ErrAlreadyInTree, n.path)
		}
		if !o.hasChildLimit {
			o.childLimit = parent.dirs.Limit()
		}
	} else if n.path.Depth() != 1 {
		// only a root may have no parent
		return nil, fmt.Errorf("%w: root must have depth 1, got %q", filetree.ErrNoSuchPath, n.path)
	}

	n.dirs = dynarray.New[*Node](o.childLimit)
	n.files = dynarray.New[*Node](o.childLimit)
	n.isDir = isDir

	if parent != nil {
		if err := parent.addChild(n); err != nil {
			return nil, err
		}
		n.parent = parent
	}

	if !isDir {
		n.contents = contents
	}
	return n, nil
}

// children returns the collection holding children of the given type
func (n *Node) children(isDir bool) *dynarray.Array[*Node] {
	if isDir {
		return n.dirs
	}
	return n.files
}

// addChild links child into the sorted collection matching its type
func (n *Node) addChild(child *Node) error {
	coll := n.children(child.isDir)
	i, _ := dynarray.BSearch(coll, child.path.Pathname(), comparePath)
	if err := coll.AddAt(i, child); err != nil {
		if errors.Is(err, dynarray.ErrFull) {
			return fmt.Errorf("%w: %q has %d children", filetree.ErrMemory, n.path, coll.Len())
		}
		return err
	}
	return nil
}

// removeChild unlinks child from the collection matching its type.
// Returns false if child was not found there
func (n *Node) removeChild(child *Node) bool {
	coll := n.children(child.isDir)
	if i, ok := dynarray.BSearch(coll, child, CompareNodes); ok && coll.Get(i) == child {
		coll.RemoveAt(i)
		return true
	}
	return false
}

// HasChild searches directory children, then file children, for a child at p.
// Returns whether it was found, its index within the collection it was found
// in, and whether that is the directory collection.
// When not found index is the file collection insertion point and isDir is false
func (n *Node) HasChild(p ftpath.Path) (found bool, index int, isDir bool) {
	n.mustLive()
	if i, ok := dynarray.BSearch(n.dirs, p.Pathname(), comparePath); ok {
		return true, i, true
	}
	i, ok := dynarray.BSearch(n.files, p.Pathname(), comparePath)
	return ok, i, false
}

// Free unlinks n from its parent and frees n and its entire subtree,
// directories first. Returns the number of nodes freed, n included.
// Panics if n was already freed
func (n *Node) Free() int {
	n.mustLive()
	if n.parent != nil {
		n.parent.removeChild(n)
		n.parent = nil
	}

	cnt := 0
	// each child unlinks itself from the front of the collection
	for n.dirs.Len() != 0 {
		cnt += n.dirs.Get(0).Free()
	}
	for n.files.Len() != 0 {
		cnt += n.files.Get(0).Free()
	}

	n.contents = nil
	n.isDel = true
	return cnt + 1
}

// Path returns the node's path
func (n *Node) Path() ftpath.Path {
	return n.path
}

// Parent returns the node's parent; nil for a root or a freed node
func (n *Node) Parent() *Node {
	return n.parent
}

// IsDir reports whether the node is a directory
func (n *Node) IsDir() bool {
	return n.isDir
}

// IsDel returns true once the node has been freed
func (n *Node) IsDel() bool {
	return n.isDel
}

// NodeID returns the registry ID of the node; 0 if not registered
func (n *Node) NodeID() uint64 {
	return n.nodeID
}

// SetDir changes the node type. A file must have no contents to become a
// directory (filetree.ErrNotAFile) and a directory must have no children to
// become a file (filetree.ErrNotADirectory).
// A linked node moves to its parent's collection for the new type
func (n *Node) SetDir(isDir bool) error {
	n.mustLive()
	if n.isDir == isDir {
		return nil
	}
	if isDir && len(n.contents) != 0 {
		return fmt.Errorf("%w: %q still has %d bytes of contents", filetree.ErrNotAFile, n.path, len(n.contents))
	}
	if !isDir && n.NumChildren() != 0 {
		return fmt.Errorf("%w: %q still has %d children", filetree.ErrNotADirectory, n.path, n.NumChildren())
	}

	if p := n.parent; p != nil {
		p.removeChild(n)
		n.isDir = isDir
		if err := p.addChild(n); err != nil {
			// put it back where it was; the slot just freed is still available
			n.isDir = !isDir
			_ = p.addChild(n)
			return err
		}
		n.contents = nil
		return nil
	}
	n.isDir = isDir
	n.contents = nil
	return nil
}

// FileContents returns the file's contents without copying; nil for directories
func (n *Node) FileContents() []byte {
	return n.contents
}

// FileSize returns the length of the file's contents
func (n *Node) FileSize() int {
	return len(n.contents)
}

// ReplaceFileContents stores b as the file's contents and returns the
// previous contents. Ownership of b passes to the node, the old contents to the caller
func (n *Node) ReplaceFileContents(b []byte) []byte {
	n.mustLive()
	old := n.contents
	n.contents = b
	return old
}

// NumDirChildren returns the number of directory children
func (n *Node) NumDirChildren() int {
	return n.dirs.Len()
}

// NumFileChildren returns the number of file children
func (n *Node) NumFileChildren() int {
	return n.files.Len()
}

// NumChildren returns the combined number of directory and file children
func (n *Node) NumChildren() int {
	return n.NumDirChildren() + n.NumFileChildren()
}

// Child returns the child at index i of the directory (isDir) or file collection.
// Returns filetree.ErrNoSuchPath if i is out of range
func (n *Node) Child(isDir bool, i int) (*Node, error) {
	coll := n.children(isDir)
	if i < 0 || i >= coll.Len() {
		return nil, fmt.Errorf("%w: %q has no child at index %d", filetree.ErrNoSuchPath, n.path, i)
	}
	return coll.Get(i), nil
}

// String returns the node's pathname
func (n *Node) String() string {
	return n.path.Pathname()
}

// CompareNodes orders directories after files, then by path
func CompareNodes(a, b *Node) int {
	switch {
	case !a.isDir && b.isDir:
		return -1
	case a.isDir && !b.isDir:
		return 1
	}
	return a.path.Compare(b.path)
}

// comparePath orders a node against a raw pathname ignoring the node type
func comparePath(n *Node, pathname string) int {
	return n.path.CompareString(pathname)
}

func (n *Node) mustLive() {
	if n.isDel {
		panic(fmt.Sprintf("filesystem: use of freed node %q", n.path))
	}
}
