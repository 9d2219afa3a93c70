//go:build linux

package fs

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

var pseudoMountPrefixes = []string{"/sys", "/proc", "/dev", "/run", "/snap"}

var pseudoFSTypes = map[string]bool{
	"tmpfs":    true,
	"devtmpfs": true,
	"cgroup":   true,
	"cgroup2":  true,
	"overlay":  true,
}

// ListDrives returns "/" followed by the real mounts listed in /proc/mounts.
func ListDrives() []Drive {
	drives := []Drive{{Name: "/", Path: "/"}}

	f, err := os.Open("/proc/mounts")
	if err != nil {
		return drives
	}
	defer f.Close()

	seen := map[string]bool{"/": true}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		mountPoint, fsType := fields[1], fields[2]
		if seen[mountPoint] || pseudoFSTypes[fsType] || isPseudoMount(mountPoint) {
			continue
		}
		seen[mountPoint] = true
		drives = append(drives, Drive{Name: mountName(mountPoint), Path: mountPoint})
	}
	return drives
}

func isPseudoMount(mountPoint string) bool {
	for _, prefix := range pseudoMountPrefixes {
		if mountPoint == prefix || strings.HasPrefix(mountPoint, prefix+"/") {
			return true
		}
	}
	return false
}

func mountName(mountPoint string) string {
	switch {
	case mountPoint == "/home":
		return "Home"
	case strings.HasPrefix(mountPoint, "/media/"), strings.HasPrefix(mountPoint, "/mnt/"):
		return filepath.Base(mountPoint)
	}
	return mountPoint
}
