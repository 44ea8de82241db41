//go:build linux

package processor

import "golang.org/x/sys/unix"

// availableMemory returns installed physical memory. Free memory is not used
// since page cache is reclaimable and would reject inputs that fit.
func availableMemory() (uint64, bool) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0, false
	}
	unit := uint64(info.Unit)
	if unit == 0 {
		unit = 1
	}
	return uint64(info.Totalram) * unit, true
}
