package memview

import "os"

// hostPageSize reports the host's page size. It is the single page-size
// source behind NewHostPlatform, which every View in this module uses.
func hostPageSize() uintptr {
	return uintptr(os.Getpagesize())
}
