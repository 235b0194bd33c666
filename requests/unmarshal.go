package requests

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/brettbedarf/filetree"
	"github.com/brettbedarf/filetree/internal/util"
)

// Format of a node definitions document
type Format int

const (
	JSONFormat Format = iota
	YAMLFormat
)

// FormatFromPath picks the document format by file extension (.json, .yaml, .yml)
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSONFormat, nil
	case ".yaml", ".yml":
		return YAMLFormat, nil
	default:
		return 0, fmt.Errorf("unknown node definitions file extension: %s", path)
	}
}

// Load reads and unmarshals the node definitions file at path.
// See [Unmarshal] for partial results on error
func Load(fs afero.Fs, path string) ([]filetree.NodeRequestor, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	return Unmarshal(data, format)
}

// Unmarshal parses a list of node entries. Entries that fail are skipped and
// their errors combined, so the returned requests may be non-empty alongside an error
func Unmarshal(data []byte, format Format) ([]filetree.NodeRequestor, error) {
	var decoders []func(v any) error
	switch format {
	case JSONFormat:
		var rawNodes []json.RawMessage
		if err := json.Unmarshal(data, &rawNodes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal node definitions: %w", err)
		}
		for _, raw := range rawNodes {
			decoders = append(decoders, func(v any) error { return json.Unmarshal(raw, v) })
		}
	case YAMLFormat:
		var yamlNodes []yaml.Node
		if err := yaml.Unmarshal(data, &yamlNodes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal node definitions: %w", err)
		}
		for i := range yamlNodes {
			decoders = append(decoders, yamlNodes[i].Decode)
		}
	default:
		return nil, fmt.Errorf("unknown node definitions format: %d", format)
	}

	reqs := make([]filetree.NodeRequestor, 0, len(decoders))
	var errs *multierror.Error
	for i, decode := range decoders {
		req, err := unmarshalEntry(decode)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("entry %d: %w", i, err))
			continue
		}
		reqs = append(reqs, req)
	}
	return reqs, errs.ErrorOrNil()
}

// GetNodeType extracts the node type from JSON without full unmarshaling
func GetNodeType(data []byte) (filetree.NodeCreateRequestType, error) {
	return decodeNodeType(func(v any) error { return json.Unmarshal(data, v) })
}

// UnmarshalFileRequest handles file-specific JSON unmarshaling with content decoding
func UnmarshalFileRequest(data []byte) (*filetree.FileCreateRequest, error) {
	return decodeFileRequest(func(v any) error { return json.Unmarshal(data, v) })
}

// UnmarshalDirRequest handles directory JSON unmarshaling
func UnmarshalDirRequest(data []byte) (*filetree.DirCreateRequest, error) {
	return decodeDirRequest(func(v any) error { return json.Unmarshal(data, v) })
}

func unmarshalEntry(decode func(v any) error) (filetree.NodeRequestor, error) {
	nodeType, err := decodeNodeType(decode)
	if err != nil {
		return nil, err
	}
	switch nodeType {
	case filetree.FileNodeType:
		return decodeFileRequest(decode)
	case filetree.DirNodeType:
		return decodeDirRequest(decode)
	default:
		return nil, fmt.Errorf("unknown node type: %q", nodeType)
	}
}

func decodeNodeType(decode func(v any) error) (filetree.NodeCreateRequestType, error) {
	var meta struct {
		Type filetree.NodeCreateRequestType `json:"type" yaml:"type"`
	}
	if err := decode(&meta); err != nil {
		return "", err
	}
	return meta.Type, nil
}

func decodeFileRequest(decode func(v any) error) (*filetree.FileCreateRequest, error) {
	var dto FileRequestDTO
	if err := decode(&dto); err != nil {
		return nil, err
	}
	node, err := convertNodeDTO(dto.NodeRequestDTO)
	if err != nil {
		return nil, err
	}
	contents, err := decodeContent(dto.Content, util.ValueOrDefault(dto.Encoding, TextEncoding))
	if err != nil {
		return nil, fmt.Errorf("file %q: %w", node.Path, err)
	}
	node.Type = filetree.FileNodeType
	return &filetree.FileCreateRequest{NodeRequest: node, Contents: contents}, nil
}

func decodeDirRequest(decode func(v any) error) (*filetree.DirCreateRequest, error) {
	var dto DirRequestDTO
	if err := decode(&dto); err != nil {
		return nil, err
	}
	node, err := convertNodeDTO(dto.NodeRequestDTO)
	if err != nil {
		return nil, err
	}
	node.Type = filetree.DirNodeType
	return &filetree.DirCreateRequest{NodeRequest: node}, nil
}

func decodeContent(content *string, enc ContentEncoding) ([]byte, error) {
	if content == nil {
		return nil, nil
	}
	switch enc {
	case TextEncoding:
		return []byte(*content), nil
	case Base64Encoding:
		b, err := base64.StdEncoding.DecodeString(*content)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 content: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown content encoding: %q", enc)
	}
}

// Conversion logic with defaults in the unmarshaling layer.
// Path syntax is left to the tree so all path errors share one taxonomy
func convertNodeDTO(dto NodeRequestDTO) (filetree.NodeRequest, error) {
	if dto.Path == "" {
		return filetree.NodeRequest{}, fmt.Errorf("%w: missing path", filetree.ErrBadPath)
	}
	return filetree.NodeRequest{
		Path: dto.Path,
		Type: dto.Type,
		UUID: util.ValueOrDefault(dto.UUID, uuid.New().String()),
	}, nil
}
