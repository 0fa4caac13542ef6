// Package mount injects driver components and device nodes into a
// container's root filesystem using read-only bind mounts, and refreshes
// the container's ldcache so the injected libraries resolve.
package mount

import (
	"fmt"
	"path/filepath"

	"gpucfg/internal/capability"
	"gpucfg/internal/logging"
)

// Injector performs the filesystem side of container configuration.
type Injector struct {
	logger   *logging.Logger
	ldconfig string
}

// NewInjector creates an injector. ldconfig is the path of the ldconfig
// binary on the host, run against the container root after injection.
func NewInjector(logger *logging.Logger, ldconfig string) *Injector {
	return &Injector{logger: logger, ldconfig: ldconfig}
}

// libraryDirs are the host directories searched for driver libraries, in
// preference order.
var libraryDirs = []string{
	"/usr/lib/x86_64-linux-gnu",
	"/usr/lib64",
	"/usr/lib",
}

// compat32Dirs are searched instead when injecting 32-bit libraries.
var compat32Dirs = []string{
	"/usr/lib/i386-linux-gnu",
	"/usr/lib32",
}

const binaryDir = "/usr/bin"

// controlDevices are the driver control nodes shared by all GPUs. Only
// the first two are mandatory; the rest depend on the driver features in
// use and are injected when present.
var controlDevices = []string{
	"/dev/nvidiactl",
	"/dev/nvidia-uvm",
	"/dev/nvidia-uvm-tools",
	"/dev/nvidia-modeset",
}

// capabilityLibraries maps each capability to the driver libraries it
// needs inside the container.
var capabilityLibraries = map[capability.Capability][]string{
	capability.Utility: {
		"libnvidia-ml.so.1",
		"libnvidia-cfg.so.1",
	},
	capability.Compute: {
		"libcuda.so.1",
		"libnvidia-ptxjitcompiler.so.1",
		"libnvidia-nvvm.so.4",
	},
	capability.Video: {
		"libnvcuvid.so.1",
		"libnvidia-encode.so.1",
		"libnvidia-opticalflow.so.1",
	},
	capability.Graphics: {
		"libGLX_nvidia.so.0",
		"libEGL_nvidia.so.0",
		"libGLESv2_nvidia.so.2",
		"libnvidia-glcore.so.1",
	},
}

// capabilityBinaries maps each capability to the driver utilities it
// needs inside the container.
var capabilityBinaries = map[capability.Capability][]string{
	capability.Utility: {
		"nvidia-smi",
		"nvidia-debugdump",
	},
	capability.Compute: {
		"nvidia-cuda-mps-control",
		"nvidia-cuda-mps-server",
	},
}

// librariesFor returns the library file names required by caps, ordered
// by capability name for deterministic mount order.
func librariesFor(caps capability.Set) []string {
	var libs []string
	for _, c := range caps.List() {
		libs = append(libs, capabilityLibraries[c]...)
	}
	return libs
}

// binariesFor returns the binary file names required by caps.
func binariesFor(caps capability.Set) []string {
	var bins []string
	for _, c := range caps.List() {
		bins = append(bins, capabilityBinaries[c]...)
	}
	return bins
}

// devicePath returns the device node for a GPU discovery ordinal.
func devicePath(ordinal int) string {
	return fmt.Sprintf("/dev/nvidia%d", ordinal)
}

// containerPath maps a host path to its location under the container
// root.
func containerPath(root, hostPath string) string {
	return filepath.Join(root, hostPath)
}
