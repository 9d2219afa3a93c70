//go:build darwin

package fs

import (
	iofs "io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/charlievieth/fastwalk"
)

const volumesDir = "/Volumes"

// ListDrives returns the volumes mounted under /Volumes. The boot volume,
// a symlink to "/", is listed first with path "/".
func ListDrives() []Drive {
	var (
		mu     sync.Mutex
		boot   []Drive
		others []Drive
	)

	conf := &fastwalk.Config{Follow: true}
	err := fastwalk.Walk(conf, volumesDir, func(fullPath string, d iofs.DirEntry, err error) error {
		if err != nil || fullPath == volumesDir {
			return nil
		}
		if filepath.Dir(fullPath) != volumesDir {
			return skip(d)
		}
		if !d.IsDir() {
			return nil
		}

		mu.Lock()
		defer mu.Unlock()
		if target, err := os.Readlink(fullPath); err == nil && target == "/" {
			boot = append(boot, Drive{Name: d.Name(), Path: "/"})
		} else if _, err := os.Stat(fullPath); err == nil {
			others = append(others, Drive{Name: d.Name(), Path: fullPath})
		}
		return fastwalk.SkipDir
	})

	drives := append(boot, others...)
	if err != nil || len(drives) == 0 {
		return []Drive{{Name: "Macintosh HD", Path: "/"}}
	}
	return drives
}
