//go:build windows

package fs

import (
	"golang.org/x/sys/windows"
)

// ListDrives returns the logical drives with their volume labels. Volume
// lookups can block on disconnected network drives, so callers run this on
// the background context.
func ListDrives() []Drive {
	mask, err := windows.GetLogicalDrives()
	if err != nil {
		return nil
	}

	var drives []Drive
	for i := 0; i < 26; i++ {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		letter := string(rune('A' + i))
		root := letter + `:\`
		rootPtr, err := windows.UTF16PtrFromString(root)
		if err != nil {
			continue
		}

		driveType := windows.GetDriveType(rootPtr)
		if driveType == windows.DRIVE_UNKNOWN || driveType == windows.DRIVE_NO_ROOT_DIR {
			continue
		}

		drives = append(drives, Drive{Name: driveLabel(rootPtr, letter, driveType), Path: root})
	}
	return drives
}

func driveLabel(rootPtr *uint16, letter string, driveType uint32) string {
	volumeName := make([]uint16, windows.MAX_PATH+1)
	err := windows.GetVolumeInformation(rootPtr, &volumeName[0], uint32(len(volumeName)), nil, nil, nil, nil, 0)
	if err == nil {
		if name := windows.UTF16ToString(volumeName); name != "" {
			return name + " (" + letter + ":)"
		}
	}

	switch driveType {
	case windows.DRIVE_REMOVABLE:
		return "Removable (" + letter + ":)"
	case windows.DRIVE_CDROM:
		return "CD/DVD (" + letter + ":)"
	case windows.DRIVE_REMOTE:
		return "Network (" + letter + ":)"
	}
	return "Local Disk (" + letter + ":)"
}
