package filetree

// NodeRequestor is an interface implemented by all node request types
type NodeRequestor interface {
	GetType() NodeCreateRequestType
	GetPath() string
	GetUUID() string
}

// NodeInfo provides read-only access to node information for external consumers
type NodeInfo interface {
	// String returns the full pathname of the node
	String() string

	// NodeID returns the registry node identifier; 0 if never registered
	NodeID() uint64

	// IsDir reports whether the node is a directory
	IsDir() bool

	// FileSize returns the length of a file's contents; 0 for directories
	FileSize() int

	// IsDel returns true once the node has been freed
	IsDel() bool
}
