package consts

import (
	"errors"
)

var (
	ErrNilReceiver      = errors.New(`nil receiver`)
	ErrModuleUnknown    = errors.New(`unknown widget module`)
	ErrModuleNoSurface  = errors.New(`widget module returned no surface`)
	ErrDeviceNotOpen    = errors.New(`framebuffer device not open`)
	ErrDeviceShortWrite = errors.New(`short framebuffer write`)
	ErrSyncInProgress   = errors.New(`time sync already in progress`)
	ErrSyncDisabled     = errors.New(`time sync disabled after repeated failures`)
	ErrNoModulesLoaded  = errors.New(`no widget modules loaded`)
)

const (
	LibraryName = `fbdash`

	// BytesPerPixel is fixed by the RGB565 device format.
	BytesPerPixel = 2
)
