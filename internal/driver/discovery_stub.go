//go:build !cuda

package driver

import (
	"errors"

	"gpucfg/internal/capability"
	"gpucfg/internal/logging"
)

// ErrNVMLDisabled is returned by every discovery operation in builds
// without CUDA support.
var ErrNVMLDisabled = errors.New("NVML disabled: rebuild with -tags cuda")

// Discovery is a no-op discovery session when NVML is unavailable.
type Discovery struct {
	logger *logging.Logger
}

// NewDiscovery creates a discovery session that fails when CUDA support is disabled.
func NewDiscovery(logger *logging.Logger) *Discovery {
	return &Discovery{logger: logger}
}

// NewDiscoveryWithNVML is provided for API compatibility; NVML is ignored when CUDA is disabled.
func NewDiscoveryWithNVML(_ NVMLInterface, logger *logging.Logger) *Discovery {
	return NewDiscovery(logger)
}

// Init reports that NVML is unavailable in the current build.
func (d *Discovery) Init(_ bool) error {
	if d.logger != nil {
		d.logger.Info("discovery.disabled", "Skipping NVML init (built without cuda tag)", nil)
	}
	return ErrNVMLDisabled
}

// Shutdown is a no-op when CUDA support is disabled.
func (d *Discovery) Shutdown() error {
	return nil
}

// DriverInfo reports that NVML is unavailable in the current build.
func (d *Discovery) DriverInfo(_ capability.Set) (Info, error) {
	return Info{}, ErrNVMLDisabled
}

// Devices reports that NVML is unavailable in the current build.
func (d *Discovery) Devices(_ capability.Set) ([]Device, error) {
	return nil, ErrNVMLDisabled
}
