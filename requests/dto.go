package requests

import "github.com/brettbedarf/filetree"

// ContentEncoding tells how a file entry's content string is encoded
type ContentEncoding string

const (
	TextEncoding   ContentEncoding = "text"
	Base64Encoding ContentEncoding = "base64"
)

// NodeRequestDTO is the JSON/YAML representation of [filetree.NodeRequest]
type NodeRequestDTO struct {
	Path string                         `json:"path" yaml:"path"`
	Type filetree.NodeCreateRequestType `json:"type" yaml:"type"`
	UUID *string                        `json:"uuid,omitempty" yaml:"uuid,omitempty"` // Defaults to a random UUID
}

// FileRequestDTO is the JSON/YAML representation of [filetree.FileCreateRequest]
type FileRequestDTO struct {
	NodeRequestDTO `yaml:",inline"`
	Content        *string          `json:"content,omitempty" yaml:"content,omitempty"`   // Empty file if omitted
	Encoding       *ContentEncoding `json:"encoding,omitempty" yaml:"encoding,omitempty"` // Default "text"
}

// DirRequestDTO is the JSON/YAML representation of [filetree.DirCreateRequest]
type DirRequestDTO struct {
	NodeRequestDTO `yaml:",inline"`
}
