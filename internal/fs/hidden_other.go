//go:build !windows

package fs

import iofs "io/fs"

func isHidden(name string, _ iofs.FileInfo) bool {
	return len(name) > 0 && name[0] == '.'
}
