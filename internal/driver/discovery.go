//go:build cuda

package driver

import (
	"fmt"
	"os/exec"

	"github.com/NVIDIA/go-nvml/pkg/nvml"

	"gpucfg/internal/capability"
	"gpucfg/internal/logging"
)

// Discovery queries driver and device metadata through NVML.
type Discovery struct {
	nvml        NVMLInterface
	logger      *logging.Logger
	initialized bool
}

// NewDiscovery creates an NVML-backed discovery session
func NewDiscovery(logger *logging.Logger) *Discovery {
	return &Discovery{
		nvml:   NewRealNVML(),
		logger: logger,
	}
}

// NewDiscoveryWithNVML creates a discovery session with a custom NVML interface (for testing)
func NewDiscoveryWithNVML(nvmlInterface NVMLInterface, logger *logging.Logger) *Discovery {
	return &Discovery{
		nvml:   nvmlInterface,
		logger: logger,
	}
}

// Init initializes the NVML session, optionally loading kernel modules first.
func (d *Discovery) Init(loadKmods bool) error {
	if loadKmods {
		// Module may be built in or already loaded, so a modprobe
		// failure is not fatal on its own
		if out, err := exec.Command("modprobe", "nvidia").CombinedOutput(); err != nil {
			d.logger.Warn("discovery.modprobe.failed", "Failed to load kernel module", map[string]interface{}{
				"error":  err.Error(),
				"output": string(out),
			})
		}
	}

	if ret := d.nvml.Init(); ret != nvml.SUCCESS {
		return fmt.Errorf("failed to initialize NVML: %v", nvml.ErrorString(ret))
	}
	d.initialized = true

	d.logger.Debug("discovery.init", "NVML initialized", nil)
	return nil
}

// Shutdown releases the NVML session. Safe to call when Init never succeeded.
func (d *Discovery) Shutdown() error {
	if !d.initialized {
		return nil
	}
	d.initialized = false

	if ret := d.nvml.Shutdown(); ret != nvml.SUCCESS {
		return fmt.Errorf("failed to shut down NVML: %v", nvml.ErrorString(ret))
	}
	return nil
}

// DriverInfo returns the installed driver and CUDA runtime versions.
func (d *Discovery) DriverInfo(caps capability.Set) (Info, error) {
	kmod, ret := d.nvml.SystemGetDriverVersion()
	if ret != nvml.SUCCESS {
		return Info{}, fmt.Errorf("failed to get driver version: %v", nvml.ErrorString(ret))
	}

	cuda, ret := d.nvml.SystemGetCudaDriverVersion()
	if ret != nvml.SUCCESS {
		return Info{}, fmt.Errorf("failed to get CUDA version: %v", nvml.ErrorString(ret))
	}

	info := Info{
		KmodVersion: kmod,
		CUDAVersion: cudaVersionString(cuda),
		Caps:        caps,
	}

	d.logger.Info("discovery.driver", "Driver metadata collected", map[string]interface{}{
		"kmod_version": info.KmodVersion,
		"cuda_version": info.CUDAVersion,
		"capabilities": caps.String(),
	})

	return info, nil
}

// Devices returns the GPU list in discovery order.
func (d *Discovery) Devices(caps capability.Set) ([]Device, error) {
	count, ret := d.nvml.DeviceGetCount()
	if ret != nvml.SUCCESS {
		return nil, fmt.Errorf("failed to get device count: %v", nvml.ErrorString(ret))
	}

	devices := make([]Device, 0, count)
	for i := 0; i < count; i++ {
		handle, ret := d.nvml.DeviceGetHandleByIndex(i)
		if ret != nvml.SUCCESS {
			return nil, fmt.Errorf("failed to get device %d: %v", i, nvml.ErrorString(ret))
		}

		dev := Device{Ordinal: i}

		uuid, ret := handle.GetUUID()
		if ret != nvml.SUCCESS {
			return nil, fmt.Errorf("failed to get device %d UUID: %v", i, nvml.ErrorString(ret))
		}
		dev.UUID = uuid

		if name, ret := handle.GetName(); ret == nvml.SUCCESS {
			dev.Name = name
		}
		if mem, ret := handle.GetMemoryInfo(); ret == nvml.SUCCESS {
			dev.MemoryMiB = mem.Total / (1024 * 1024)
		}

		devices = append(devices, dev)
	}

	d.logger.Info("discovery.devices", "Device metadata collected", map[string]interface{}{
		"count":        len(devices),
		"capabilities": caps.String(),
	})

	return devices, nil
}
