//go:build !linux && !windows && !darwin

package fs

// ListDrives returns the filesystem root on platforms without volume discovery.
func ListDrives() []Drive {
	return []Drive{{Name: "/", Path: "/"}}
}
