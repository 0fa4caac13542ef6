package driver

import (
	"fmt"

	"gpucfg/internal/capability"
)

// Info describes the installed driver stack for one invocation.
// The version strings are dotted-numeric as reported by the driver.
type Info struct {
	KmodVersion string         `json:"kmod_version"`
	CUDAVersion string         `json:"cuda_version"`
	Caps        capability.Set `json:"capabilities"`
}

// Device is one GPU in discovery order. Ordinals are assigned once at
// discovery time and never change for the lifetime of the invocation.
type Device struct {
	Ordinal   int    `json:"ordinal"`
	UUID      string `json:"uuid"`
	Name      string `json:"name"`
	MemoryMiB uint64 `json:"memory_mib"`
}

// cudaVersionString formats the packed CUDA driver version integer
// (major*1000 + minor*10) as a dotted literal, e.g. 12020 -> "12.2".
func cudaVersionString(v int) string {
	return fmt.Sprintf("%d.%d", v/1000, (v%1000)/10)
}
