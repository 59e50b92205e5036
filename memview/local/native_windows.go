//go:build windows

package local

import (
	"github.com/Moonlight-Companies/gologger/logger"

	"memview/memview/windowsmem"
)

func newNativeSelf(log *logger.Logger) (nativeSelf, error) {
	return windowsmem.OpenSelf(log)
}
