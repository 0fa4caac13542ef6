package mount

import (
	"testing"

	"gpucfg/internal/capability"
)

func TestLibrariesFor(t *testing.T) {
	caps := capability.NewSet(capability.Utility, capability.Compute)

	libs := librariesFor(caps)
	if len(libs) == 0 {
		t.Fatal("Expected libraries for compute+utility")
	}

	// Capabilities are walked in name order, so compute libraries come
	// before utility libraries.
	if libs[0] != "libcuda.so.1" {
		t.Errorf("First library = %s, want libcuda.so.1", libs[0])
	}

	found := false
	for _, lib := range libs {
		if lib == "libnvidia-ml.so.1" {
			found = true
		}
	}
	if !found {
		t.Error("Expected libnvidia-ml.so.1 for the utility capability")
	}
}

func TestLibrariesFor_EmptySet(t *testing.T) {
	if libs := librariesFor(capability.NewSet()); len(libs) != 0 {
		t.Errorf("Expected no libraries for an empty set, got %v", libs)
	}
}

func TestBinariesFor(t *testing.T) {
	bins := binariesFor(capability.NewSet(capability.Utility))

	want := map[string]bool{"nvidia-smi": false, "nvidia-debugdump": false}
	for _, bin := range bins {
		if _, ok := want[bin]; ok {
			want[bin] = true
		}
	}
	for bin, seen := range want {
		if !seen {
			t.Errorf("Expected binary %s for the utility capability", bin)
		}
	}
}

func TestDevicePath(t *testing.T) {
	tests := []struct {
		ordinal int
		want    string
	}{
		{0, "/dev/nvidia0"},
		{3, "/dev/nvidia3"},
		{15, "/dev/nvidia15"},
	}

	for _, tt := range tests {
		if got := devicePath(tt.ordinal); got != tt.want {
			t.Errorf("devicePath(%d) = %s, want %s", tt.ordinal, got, tt.want)
		}
	}
}

func TestContainerPath(t *testing.T) {
	got := containerPath("/var/lib/ct/rootfs", "/usr/lib/libcuda.so.1")
	want := "/var/lib/ct/rootfs/usr/lib/libcuda.so.1"
	if got != want {
		t.Errorf("containerPath() = %s, want %s", got, want)
	}
}
