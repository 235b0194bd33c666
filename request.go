package filetree

// NodeRequest has common fields embedded in concrete request types
type NodeRequest struct {
	Path string
	Type NodeCreateRequestType
	UUID string // Correlates log lines of a single request
}

// NodeCreateRequestType valid types are FileNodeType "file", DirNodeType "dir"
type NodeCreateRequestType string

const (
	FileNodeType NodeCreateRequestType = "file"
	DirNodeType  NodeCreateRequestType = "dir"
)

type FileCreateRequest struct {
	NodeRequest
	Contents []byte
}

type DirCreateRequest struct {
	NodeRequest
}

func (r *NodeRequest) GetType() NodeCreateRequestType {
	return r.Type
}

func (r *NodeRequest) GetPath() string {
	return r.Path
}

func (r *NodeRequest) GetUUID() string {
	return r.UUID
}
