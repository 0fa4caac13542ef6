//go:build linux

package mount

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"golang.org/x/sys/unix"

	"gpucfg/internal/capability"
	"gpucfg/internal/container"
	"gpucfg/internal/driver"
)

// MountDriver injects the driver libraries, utilities and control device
// nodes required by the driver capability set into the container.
func (i *Injector) MountDriver(cnt *container.Container, info driver.Info) error {
	root := cnt.Root()

	for _, lib := range librariesFor(info.Caps) {
		if err := i.mountFirstFound(root, libraryDirs, lib); err != nil {
			return err
		}
	}
	if info.Caps.Has(capability.Compat32) {
		for _, lib := range librariesFor(info.Caps) {
			if err := i.mountFirstFound(root, compat32Dirs, lib); err != nil {
				return err
			}
		}
	}

	for _, bin := range binariesFor(info.Caps) {
		host := filepath.Join(binaryDir, bin)
		if _, err := os.Stat(host); err != nil {
			i.logger.Debug("mount", "driver binary not present, skipping", map[string]interface{}{"path": host})
			continue
		}
		if err := i.bindMount(host, containerPath(root, host)); err != nil {
			return err
		}
	}

	if cnt.Flags().NoDevbind {
		return nil
	}
	for n, dev := range controlDevices {
		if _, err := os.Stat(dev); err != nil {
			// nvidiactl is always present on a working driver; the
			// other control nodes depend on loaded modules.
			if n == 0 {
				return fmt.Errorf("control device %s: %w", dev, err)
			}
			continue
		}
		if err := i.bindMount(dev, containerPath(root, dev)); err != nil {
			return err
		}
	}
	return nil
}

// MountDevice injects the device node for one selected GPU.
func (i *Injector) MountDevice(cnt *container.Container, dev driver.Device) error {
	if cnt.Flags().NoDevbind {
		i.logger.Debug("mount", "device binding disabled, skipping device node", map[string]interface{}{"uuid": dev.UUID})
		return nil
	}

	host := devicePath(dev.Ordinal)
	if err := i.bindMount(host, containerPath(cnt.Root(), host)); err != nil {
		return err
	}

	i.logger.Info("mount", "mounted device", map[string]interface{}{
		"uuid": dev.UUID,
		"path": host,
	})
	return nil
}

// UpdateLdcache refreshes the dynamic linker cache inside the container
// so the injected libraries are resolvable by name.
func (i *Injector) UpdateLdcache(cnt *container.Container) error {
	out, err := exec.Command(i.ldconfig, "-r", cnt.Root()).CombinedOutput()
	if err != nil {
		return fmt.Errorf("ldconfig failed: %w: %s", err, out)
	}
	return nil
}

// mountFirstFound binds the first occurrence of name under dirs. A file
// absent from every directory is skipped; drivers do not ship every
// library on every platform.
func (i *Injector) mountFirstFound(root string, dirs []string, name string) error {
	for _, dir := range dirs {
		host := filepath.Join(dir, name)
		if _, err := os.Stat(host); err != nil {
			continue
		}
		return i.bindMount(host, containerPath(root, host))
	}
	i.logger.Debug("mount", "driver library not present, skipping", map[string]interface{}{"name": name})
	return nil
}

// bindMount binds host onto target inside the container, read-only. The
// target file is created if missing so the bind has an anchor.
func (i *Injector) bindMount(host, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("mount error: %w", err)
	}
	f, err := os.OpenFile(target, os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("mount error: %w", err)
	}
	f.Close()

	if err := unix.Mount(host, target, "", unix.MS_BIND, ""); err != nil {
		return fmt.Errorf("mount error: bind %s: %w", host, err)
	}
	if err := unix.Mount("", target, "", unix.MS_BIND|unix.MS_REMOUNT|unix.MS_RDONLY|unix.MS_NOSUID, ""); err != nil {
		return fmt.Errorf("mount error: remount %s: %w", target, err)
	}

	i.logger.Debug("mount", "bind mounted", map[string]interface{}{"source": host, "target": target})
	return nil
}
