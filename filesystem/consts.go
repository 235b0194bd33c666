package filesystem

import "syscall"

type SysAttrType uint32

const (
	DirAttr  SysAttrType = syscall.S_IFDIR
	FileAttr SysAttrType = syscall.S_IFREG
)

// Permission bits reported for every node; the tree is read-only to the kernel
const (
	DirPerms  = 0o555
	FilePerms = 0o444
)
