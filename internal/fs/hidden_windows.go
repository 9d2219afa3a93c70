//go:build windows

package fs

import (
	iofs "io/fs"
	"syscall"

	"golang.org/x/sys/windows"
)

func isHidden(name string, info iofs.FileInfo) bool {
	if len(name) > 0 && name[0] == '.' {
		return true
	}
	if data, ok := info.Sys().(*syscall.Win32FileAttributeData); ok {
		return data.FileAttributes&windows.FILE_ATTRIBUTE_HIDDEN != 0
	}
	return false
}
