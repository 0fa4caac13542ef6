//go:build !linux

package mount

import (
	"errors"

	"gpucfg/internal/container"
	"gpucfg/internal/driver"
)

var errUnsupported = errors.New("mount injection requires linux")

func (i *Injector) MountDriver(cnt *container.Container, info driver.Info) error {
	return errUnsupported
}

func (i *Injector) MountDevice(cnt *container.Container, dev driver.Device) error {
	return errUnsupported
}

func (i *Injector) UpdateLdcache(cnt *container.Container) error {
	return errUnsupported
}
