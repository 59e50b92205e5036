//go:build linux

package local

import (
	"github.com/Moonlight-Companies/gologger/logger"

	"memview/memview/linuxmem"
)

func newNativeSelf(log *logger.Logger) (nativeSelf, error) {
	return linuxmem.OpenSelf(log)
}
