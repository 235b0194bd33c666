package filesystem

import (
	"os"

	"github.com/hanwen/go-fuse/v2/fuse"
)

// Preferred size for fs ops
const blockSize = 4096

// newAttr synthesizes the attributes of n. Caller must hold fs.mu
func (fs *FileSystem) newAttr(n *Node) fuse.Attr {
	attr := fuse.Attr{
		Ino:   n.NodeID(),
		Nlink: 1,
		Owner: fuse.Owner{
			Uid: uint32(os.Getuid()),
			Gid: uint32(os.Getgid()),
		},
		Atime:     uint64(fs.created.Unix()),
		Mtime:     uint64(fs.created.Unix()),
		Ctime:     uint64(fs.created.Unix()),
		Atimensec: uint32(fs.created.Nanosecond()),
		Mtimensec: uint32(fs.created.Nanosecond()),
		Ctimensec: uint32(fs.created.Nanosecond()),
		Blksize:   blockSize,
	}
	if n.IsDir() {
		attr.Mode = uint32(DirAttr) | DirPerms
		// "." plus one ".." per subdirectory
		attr.Nlink = 2 + uint32(n.NumDirChildren())
	} else {
		attr.Mode = uint32(FileAttr) | FilePerms
		attr.Size = uint64(n.FileSize())
		// 512-byte blocks
		attr.Blocks = (attr.Size + 511) / 512
	}
	return attr
}
