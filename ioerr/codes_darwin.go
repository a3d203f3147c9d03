package ioerr

import "golang.org/x/sys/unix"

// darwin 上 ENOTSUP(45) 与 EOPNOTSUPP(102) 不同值
func init() {
	codeTable[unix.ENOTSUP] = CodeNoSupport
}
