//go:build windows

package local

import "golang.org/x/sys/windows"

func diskFree(dir string) (uint64, bool, error) {
	p, err := windows.UTF16PtrFromString(dir)
	if err != nil {
		return 0, false, err
	}
	var free uint64
	if err := windows.GetDiskFreeSpaceEx(p, &free, nil, nil); err != nil {
		return 0, false, err
	}
	return free, true, nil
}
