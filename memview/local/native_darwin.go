//go:build darwin

package local

import (
	"github.com/Moonlight-Companies/gologger/logger"

	"memview/memview/darwinmem"
)

func newNativeSelf(log *logger.Logger) (nativeSelf, error) {
	return darwinmem.OpenSelf(log)
}
