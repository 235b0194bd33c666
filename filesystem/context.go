package filesystem

import (
	"slices"

	"github.com/hanwen/go-fuse/v2/fuse"
)

// NodeContext wraps a [Node] while the tree read-lock is held.
// Calling NodeContext.Close() unwinds all unlocking/cleanup callbacks in reverse order.
// Do NOT call any [FileSystem] methods while this context is active; the
// tree lock is already held. Use only the snapshot helpers below.
//
// NOTE: NodeContext itself is **not** thread-safe meaning references
// to it should not be shared between goroutines
type NodeContext struct {
	fs       *FileSystem
	node     *Node
	closeFns []func()
}

// GetNodeCtx finds the node at path and returns a read-locked NodeContext
// with its Close() wired up. The lock is released again if an error is returned.
//
// Caller is responsible for closing the context when done `defer ctx.Close()`.
func (fs *FileSystem) GetNodeCtx(path string) (*NodeContext, error) {
	fs.mu.RLock()
	n, err := fs.findLocked(path)
	if err != nil {
		fs.mu.RUnlock()
		return nil, err
	}
	ctx := &NodeContext{fs: fs, node: n}
	ctx.AddClose(fs.mu.RUnlock)
	return ctx, nil
}

// RootCtx returns a read-locked NodeContext for the root; nil if the tree is empty
func (fs *FileSystem) RootCtx() *NodeContext {
	fs.mu.RLock()
	if fs.root == nil {
		fs.mu.RUnlock()
		return nil
	}
	ctx := &NodeContext{fs: fs, node: fs.root}
	ctx.AddClose(fs.mu.RUnlock)
	return ctx
}

// Path returns the node's pathname
func (ctx *NodeContext) Path() string {
	return ctx.node.String()
}

// Name returns the last component of the node's path
func (ctx *NodeContext) Name() string {
	return ctx.node.Path().Base()
}

func (ctx *NodeContext) NodeID() uint64 {
	return ctx.node.NodeID()
}

func (ctx *NodeContext) IsDir() bool {
	return ctx.node.IsDir()
}

// Info returns a snapshot of the node
func (ctx *NodeContext) Info() Info {
	return infoOf(ctx.node)
}

// Attr returns the node's synthesized attributes
func (ctx *NodeContext) Attr() fuse.Attr {
	return ctx.fs.newAttr(ctx.node)
}

// Contents returns a copy of a file's contents; nil for directories
func (ctx *NodeContext) Contents() []byte {
	return slices.Clone(ctx.node.FileContents())
}

// Children returns the names of the node's children, files first, each in path order
func (ctx *NodeContext) Children() []string {
	names := make([]string, 0, ctx.node.NumChildren())
	ctx.IterChildren(func(child *NodeContext) {
		names = append(names, child.Name())
	})
	return names
}

// IterChildren calls fn for each child, files first, each in path order.
// Child contexts share this context's lock and need no Close()
func (ctx *NodeContext) IterChildren(fn func(child *NodeContext)) {
	for _, f := range ctx.node.files.All() {
		fn(&NodeContext{fs: ctx.fs, node: f})
	}
	for _, d := range ctx.node.dirs.All() {
		fn(&NodeContext{fs: ctx.fs, node: d})
	}
}

// AddClose pushes a cleanup callback (e.g., unlock) onto the end of the stack.
func (ctx *NodeContext) AddClose(fn func()) {
	ctx.closeFns = append(ctx.closeFns, fn)
}

// Close unwinds all cleanup callbacks in reverse order.
// Safe to call even if ctx is nil or no locks were acquired; it is
// a no-op in those cases, so you can `defer ctx.Close()` unconditionally.
// Make sure to call this when you're done with the context!
//
// Example:
//
//	ctx, err := fs.GetNodeCtx("root/dir")
//	if err != nil { ... }
//	defer ctx.Close()
func (ctx *NodeContext) Close() {
	if ctx == nil {
		return
	}
	for i := len(ctx.closeFns) - 1; i >= 0; i-- {
		ctx.closeFns[i]()
	}
	ctx.closeFns = nil
}
