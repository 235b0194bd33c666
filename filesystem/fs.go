package filesystem

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brettbedarf/filetree"
	"github.com/brettbedarf/filetree/config"
	"github.com/brettbedarf/filetree/ftpath"
	"github.com/brettbedarf/filetree/internal/util"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/hashicorp/go-multierror"
	"github.com/puzpuzpuz/xsync/v4"
)

// FileSystem is a single-rooted tree of [Node]s addressed by path.
// All tree access goes through one RWMutex; Nodes themselves are unsynchronized.
type FileSystem struct {
	cfg          *config.Config
	mu           sync.RWMutex              // Protects root, count and every Node in the tree
	root         *Node                     // Root of node tree; nil when empty
	count        int                       // Number of nodes in the tree
	created      time.Time                 // Used for synthesized attribute times
	lastNodeID   atomic.Uint64             // Last registry NodeID assigned
	nodeRegistry *xsync.Map[uint64, *Node] // maps registry NodeIDs to live Nodes
}

// Info is a snapshot of a node's state
type Info struct {
	NodeID uint64
	Path   string
	IsDir  bool
	Size   int
}

// NewFS returns an empty FileSystem. A nil cfg uses defaults
func NewFS(cfg *config.Config) *FileSystem {
	if cfg == nil {
		cfg = config.NewConfig(nil)
	}
	return &FileSystem{
		cfg:          cfg,
		created:      time.Now(),
		nodeRegistry: xsync.NewMap[uint64, *Node](),
	}
}

// AddDirNode inserts a directory at the request's path, creating any missing
// ancestor directories. Nothing is inserted if an error is returned:
//   - filetree.ErrBadPath if the path is malformed
//   - filetree.ErrConflictingPath if the path is not under the existing root
//   - filetree.ErrAlreadyInTree if a node already exists at the path
//   - filetree.ErrNotADirectory if an ancestor is a file
//   - filetree.ErrMemory if a child collection is full
func (fs *FileSystem) AddDirNode(req *filetree.DirCreateRequest) (*Node, error) {
	logger := util.GetLogger("FS.AddDirNode")

	fs.mu.Lock()
	defer fs.mu.Unlock()
	n, newCnt, err := fs.insertLocked(req.Path, true, nil)
	if err != nil {
		logger.Debug().Err(err).Str("path", req.Path).Str("request", req.UUID).Msg("Failed to add directory")
		return nil, err
	}
	logger.Debug().Str("path", req.Path).Str("request", req.UUID).Int("created", newCnt).Msg("Added new dir node")
	return n, nil
}

// AddFileNode inserts a file at the request's path, creating any missing
// ancestor directories. The file takes ownership of req.Contents.
// Errors are those of [FileSystem.AddDirNode] plus:
//   - filetree.ErrConflictingPath if the file would be the root
//   - filetree.ErrMemory if the contents exceed the configured MaxFileSize
func (fs *FileSystem) AddFileNode(req *filetree.FileCreateRequest) (*Node, error) {
	logger := util.GetLogger("FS.AddFileNode")

	if err := fs.checkSize(req.Contents); err != nil {
		logger.Debug().Err(err).Str("path", req.Path).Str("request", req.UUID).Msg("Failed to add file")
		return nil, err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	n, newCnt, err := fs.insertLocked(req.Path, false, req.Contents)
	if err != nil {
		logger.Debug().Err(err).Str("path", req.Path).Str("request", req.UUID).Msg("Failed to add file")
		return nil, err
	}
	logger.Debug().Str("path", req.Path).Str("request", req.UUID).Int("created", newCnt).Int("size", len(req.Contents)).Msg("Added new file node")
	return n, nil
}

// Apply adds every request: directories shallowest first, then files in order.
// Returns the number of requests applied and all failures combined
func (fs *FileSystem) Apply(reqs []filetree.NodeRequestor) (int, error) {
	logger := util.GetLogger("FS.Apply")

	var dirReqs []*filetree.DirCreateRequest
	var fileReqs []*filetree.FileCreateRequest
	var errs *multierror.Error
	failed := 0
	for _, r := range reqs {
		switch req := r.(type) {
		case *filetree.DirCreateRequest:
			dirReqs = append(dirReqs, req)
		case *filetree.FileCreateRequest:
			fileReqs = append(fileReqs, req)
		default:
			failed++
			errs = multierror.Append(errs, fmt.Errorf("unknown request type %q for path %q", r.GetType(), r.GetPath()))
		}
	}
	slices.SortStableFunc(dirReqs, func(a, b *filetree.DirCreateRequest) int {
		return cmp.Compare(strings.Count(a.Path, ftpath.Delimiter), strings.Count(b.Path, ftpath.Delimiter))
	})

	dirCnt := 0
	for _, req := range dirReqs {
		if _, err := fs.AddDirNode(req); err != nil {
			failed++
			errs = multierror.Append(errs, fmt.Errorf("dir %q: %w", req.Path, err))
			continue
		}
		dirCnt++
	}
	fileCnt := 0
	for _, req := range fileReqs {
		if _, err := fs.AddFileNode(req); err != nil {
			failed++
			errs = multierror.Append(errs, fmt.Errorf("file %q: %w", req.Path, err))
			continue
		}
		fileCnt++
	}
	logger.Info().Int("directories", dirCnt).Int("files", fileCnt).Int("failed", failed).Msg("Applied node requests")
	return dirCnt + fileCnt, errs.ErrorOrNil()
}

// ContainsDir reports whether a directory exists at path
func (fs *FileSystem) ContainsDir(path string) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	n, err := fs.findLocked(path)
	return err == nil && n.IsDir()
}

// ContainsFile reports whether a file exists at path
func (fs *FileSystem) ContainsFile(path string) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	n, err := fs.findLocked(path)
	return err == nil && !n.IsDir()
}

// RmDir removes the directory at path and everything below it.
// Returns the number of nodes removed, or filetree.ErrNotADirectory if path is a file
func (fs *FileSystem) RmDir(path string) (int, error) {
	return fs.remove("FS.RmDir", path, true)
}

// RmFile removes the file at path.
// Returns the number of nodes removed, or filetree.ErrNotAFile if path is a directory
func (fs *FileSystem) RmFile(path string) (int, error) {
	return fs.remove("FS.RmFile", path, false)
}

func (fs *FileSystem) remove(component, path string, isDir bool) (int, error) {
	logger := util.GetLogger(component)

	fs.mu.Lock()
	defer fs.mu.Unlock()
	n, err := fs.findLocked(path)
	if err != nil {
		logger.Debug().Err(err).Str("path", path).Msg("Failed to remove node")
		return 0, err
	}
	if n.IsDir() != isDir {
		err = typeMismatch(n, isDir)
		logger.Debug().Err(err).Str("path", path).Msg("Failed to remove node")
		return 0, err
	}

	cnt := fs.freeLocked(n)
	logger.Debug().Str("path", path).Int("freed", cnt).Msg("Removed node")
	return cnt, nil
}

// GetFileContents returns a copy of the contents of the file at path
func (fs *FileSystem) GetFileContents(path string) ([]byte, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	n, err := fs.findFileLocked(path)
	if err != nil {
		return nil, err
	}
	return slices.Clone(n.FileContents()), nil
}

// ReplaceFileContents stores b as the contents of the file at path and
// returns the previous contents
func (fs *FileSystem) ReplaceFileContents(path string, b []byte) ([]byte, error) {
	logger := util.GetLogger("FS.ReplaceFileContents")

	if err := fs.checkSize(b); err != nil {
		logger.Debug().Err(err).Str("path", path).Msg("Failed to replace contents")
		return nil, err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	n, err := fs.findFileLocked(path)
	if err != nil {
		logger.Debug().Err(err).Str("path", path).Msg("Failed to replace contents")
		return nil, err
	}
	old := n.ReplaceFileContents(b)
	logger.Debug().Str("path", path).Int("oldSize", len(old)).Int("newSize", len(b)).Msg("Replaced file contents")
	return old, nil
}

// Stat returns a snapshot of the node at path
func (fs *FileSystem) Stat(path string) (Info, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	n, err := fs.findLocked(path)
	if err != nil {
		return Info{}, err
	}
	return infoOf(n), nil
}

// Attr returns kernel-style attributes for the node at path
func (fs *FileSystem) Attr(path string) (fuse.Attr, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	n, err := fs.findLocked(path)
	if err != nil {
		return fuse.Attr{}, err
	}
	return fs.newAttr(n), nil
}

// LookupID returns a snapshot of the live node registered with id
func (fs *FileSystem) LookupID(id uint64) (Info, bool) {
	n, ok := fs.nodeRegistry.Load(id)
	if !ok {
		return Info{}, false
	}
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if n.IsDel() {
		return Info{}, false
	}
	return infoOf(n), true
}

// Walk visits every node in pre-order: a node, its files, then its
// directories, each in path order. Returning false from fn stops the walk.
//
// NOTE: fn runs under the tree read-lock and must not call back into fs
func (fs *FileSystem) Walk(fn func(n *Node) bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if fs.root != nil {
		walk(fs.root, fn)
	}
}

// walk returns false once fn has asked to stop
func walk(n *Node, fn func(n *Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, f := range n.files.All() {
		if !walk(f, fn) {
			return false
		}
	}
	for _, d := range n.dirs.All() {
		if !walk(d, fn) {
			return false
		}
	}
	return true
}

// String lists every path in [FileSystem.Walk] order, one per line
func (fs *FileSystem) String() string {
	var sb strings.Builder
	fs.Walk(func(n *Node) bool {
		sb.WriteString(n.String())
		sb.WriteByte('\n')
		return true
	})
	return sb.String()
}

// Count returns the number of nodes in the tree
func (fs *FileSystem) Count() int {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.count
}

// Destroy frees every node and leaves the tree empty.
// Returns the number of nodes freed
func (fs *FileSystem) Destroy() int {
	logger := util.GetLogger("FS.Destroy")

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.root == nil {
		return 0
	}
	cnt := fs.freeLocked(fs.root)
	logger.Info().Int("freed", cnt).Msg("Destroyed tree")
	return cnt
}

// insertLocked creates the node at path and any missing ancestors.
// Returns the requested node and the number of nodes created.
// Caller must hold fs.mu.Lock()
func (fs *FileSystem) insertLocked(path string, isDir bool, contents []byte) (*Node, int, error) {
	p, err := ftpath.New(path)
	if err != nil {
		return nil, 0, err
	}
	cur, err := fs.traverseLocked(p)
	if err != nil {
		return nil, 0, err
	}

	start := 1
	if cur != nil {
		if cur.Path().Depth() == p.Depth() {
			return nil, 0, fmt.Errorf("%w: %q", filetree.ErrAlreadyInTree, p)
		}
		if !cur.IsDir() {
			return nil, 0, fmt.Errorf("%w: %q", filetree.ErrNotADirectory, cur.Path())
		}
		start = cur.Path().Depth() + 1
	}
	if !isDir && p.Depth() == 1 {
		return nil, 0, fmt.Errorf("%w: file %q cannot be the root", filetree.ErrConflictingPath, p)
	}

	var first, n *Node
	parent := cur
	for d := start; d <= p.Depth(); d++ {
		prefix, _ := p.Prefix(d)
		leaf := d == p.Depth()
		var opts []NodeOption
		if parent == nil {
			opts = append(opts, WithChildLimit(fs.cfg.MaxChildren))
		}
		var c []byte
		if leaf && !isDir {
			c = contents
		}
		n, err = NewNode(!leaf || isDir, prefix, parent, c, opts...)
		if err != nil {
			// drop the ancestors made so far
			if first != nil {
				first.Free()
			}
			return nil, 0, err
		}
		if first == nil {
			first = n
		}
		parent = n
	}

	if fs.root == nil {
		fs.root = first
	}
	newCnt := 0
	walk(first, func(child *Node) bool {
		fs.registerLocked(child)
		newCnt++
		return true
	})
	fs.count += newCnt
	return n, newCnt, nil
}

// traverseLocked returns the deepest existing node along p, or nil if the tree is empty.
// Returns filetree.ErrConflictingPath if p does not start at the root.
// Caller must hold fs.mu
func (fs *FileSystem) traverseLocked(p ftpath.Path) (*Node, error) {
	if fs.root == nil {
		return nil, nil
	}
	prefix, err := p.Prefix(1)
	if err != nil {
		return nil, err
	}
	if fs.root.Path().Compare(prefix) != 0 {
		return nil, fmt.Errorf("%w: %q is not under root %q", filetree.ErrConflictingPath, p, fs.root.Path())
	}

	cur := fs.root
	for d := 2; d <= p.Depth(); d++ {
		prefix, _ = p.Prefix(d)
		found, i, isDir := cur.HasChild(prefix)
		if !found {
			break
		}
		cur, _ = cur.Child(isDir, i)
	}
	return cur, nil
}

// findLocked returns the node at path. Caller must hold fs.mu
func (fs *FileSystem) findLocked(path string) (*Node, error) {
	p, err := ftpath.New(path)
	if err != nil {
		return nil, err
	}
	n, err := fs.traverseLocked(p)
	if err != nil {
		return nil, err
	}
	if n == nil || n.Path().Depth() != p.Depth() {
		return nil, fmt.Errorf("%w: %q", filetree.ErrNoSuchPath, p)
	}
	return n, nil
}

func (fs *FileSystem) findFileLocked(path string) (*Node, error) {
	n, err := fs.findLocked(path)
	if err != nil {
		return nil, err
	}
	if n.IsDir() {
		return nil, typeMismatch(n, false)
	}
	return n, nil
}

// freeLocked forgets the registry IDs of n's subtree and frees it.
// Caller must hold fs.mu.Lock()
func (fs *FileSystem) freeLocked(n *Node) int {
	walk(n, func(child *Node) bool {
		fs.nodeRegistry.Delete(child.nodeID)
		return true
	})
	cnt := n.Free()
	if n == fs.root {
		fs.root = nil
	}
	fs.count -= cnt
	return cnt
}

// registerLocked assigns n the next registry NodeID
func (fs *FileSystem) registerLocked(n *Node) {
	n.nodeID = fs.lastNodeID.Add(1)
	fs.nodeRegistry.Store(n.nodeID, n)
}

func (fs *FileSystem) checkSize(b []byte) error {
	if fs.cfg.MaxFileSize > 0 && len(b) > fs.cfg.MaxFileSize {
		return fmt.Errorf("%w: %d bytes exceeds max file size %d", filetree.ErrMemory, len(b), fs.cfg.MaxFileSize)
	}
	return nil
}

func typeMismatch(n *Node, wantDir bool) error {
	if wantDir {
		return fmt.Errorf("%w: %q", filetree.ErrNotADirectory, n.Path())
	}
	return fmt.Errorf("%w: %q", filetree.ErrNotAFile, n.Path())
}

func infoOf(n *Node) Info {
	return Info{
		NodeID: n.NodeID(),
		Path:   n.String(),
		IsDir:  n.IsDir(),
		Size:   n.FileSize(),
	}
}
