//go:build cuda

package driver

import (
	"testing"

	"github.com/NVIDIA/go-nvml/pkg/nvml"

	"gpucfg/internal/capability"
	"gpucfg/internal/logging"
)

const mockKmodVersion = "535.104.05"

func newTestDiscovery(mock *MockNVML) *Discovery {
	return NewDiscoveryWithNVML(mock, logging.NewLogger(logging.LevelError))
}

func TestDiscovery_DriverInfo(t *testing.T) {
	mock := NewMockNVML()
	mock.DriverVersion = mockKmodVersion
	mock.CudaVersion = 12020 // CUDA 12.2

	d := newTestDiscovery(mock)
	if err := d.Init(false); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	defer d.Shutdown()

	caps := capability.NewSet(capability.Utility)
	info, err := d.DriverInfo(caps)
	if err != nil {
		t.Fatalf("DriverInfo() error: %v", err)
	}

	if info.KmodVersion != mockKmodVersion {
		t.Errorf("KmodVersion = %s, want %s", info.KmodVersion, mockKmodVersion)
	}
	if info.CUDAVersion != "12.2" {
		t.Errorf("CUDAVersion = %s, want 12.2", info.CUDAVersion)
	}
	if !info.Caps.Has(capability.Utility) {
		t.Error("Expected utility capability to be recorded")
	}
}

func TestDiscovery_InitFailed(t *testing.T) {
	mock := NewMockNVML()
	mock.InitReturn = nvml.ERROR_LIBRARY_NOT_FOUND

	d := newTestDiscovery(mock)
	if err := d.Init(false); err == nil {
		t.Fatal("Init() should fail when NVML init fails")
	}

	// Shutdown after a failed init must be a no-op
	if err := d.Shutdown(); err != nil {
		t.Errorf("Shutdown() after failed init should be nil, got: %v", err)
	}
}

func TestDiscovery_Devices(t *testing.T) {
	mock := NewMockNVML()
	mock.DeviceCount = 2
	mock.Devices = []MockDevice{
		{
			Name:        "NVIDIA GeForce RTX 4090",
			UUID:        "GPU-12345678-1234-1234-1234-123456789012",
			MemoryTotal: 24 * 1024 * 1024 * 1024,
		},
		{
			Name:        "NVIDIA GeForce RTX 3080",
			UUID:        "GPU-87654321-4321-4321-4321-210987654321",
			MemoryTotal: 10 * 1024 * 1024 * 1024,
		},
	}

	d := newTestDiscovery(mock)
	devices, err := d.Devices(capability.NewSet(capability.Compute))
	if err != nil {
		t.Fatalf("Devices() error: %v", err)
	}

	if len(devices) != 2 {
		t.Fatalf("Expected 2 devices, got %d", len(devices))
	}

	for i, dev := range devices {
		if dev.Ordinal != i {
			t.Errorf("Device %d ordinal = %d, want %d", i, dev.Ordinal, i)
		}
	}

	if devices[0].UUID != mock.Devices[0].UUID {
		t.Errorf("Device 0 UUID = %s, want %s", devices[0].UUID, mock.Devices[0].UUID)
	}
	if devices[0].MemoryMiB != 24*1024 {
		t.Errorf("Device 0 memory = %d MiB, want %d", devices[0].MemoryMiB, 24*1024)
	}
}

func TestDiscovery_DeviceCountFailed(t *testing.T) {
	mock := NewMockNVML()
	mock.DeviceCountReturn = nvml.ERROR_UNKNOWN

	d := newTestDiscovery(mock)
	if _, err := d.Devices(capability.NewSet()); err == nil {
		t.Error("Devices() should fail when device count fails")
	}
}

func TestDiscovery_DeviceUUIDFailed(t *testing.T) {
	mock := NewMockNVML()
	mock.DeviceCount = 1
	mock.Devices = []MockDevice{
		{UUID: "GPU-dead", UUIDReturn: nvml.ERROR_UNKNOWN},
	}

	d := newTestDiscovery(mock)
	if _, err := d.Devices(capability.NewSet()); err == nil {
		t.Error("Devices() should fail when a device UUID cannot be read")
	}
}
