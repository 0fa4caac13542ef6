// Package configure drives a full container GPU configuration run: it
// discovers the driver stack, checks version requirements, resolves the
// device selection and injects the driver and devices into the container.
package configure

import (
	"fmt"

	"gpucfg/internal/capability"
	"gpucfg/internal/container"
	"gpucfg/internal/device"
	"gpucfg/internal/driver"
	"gpucfg/internal/logging"
	"gpucfg/internal/require"
)

// Discovery provides driver and device metadata. Satisfied by
// driver.Discovery.
type Discovery interface {
	Init(loadKmods bool) error
	Shutdown() error
	DriverInfo(caps capability.Set) (driver.Info, error)
	Devices(caps capability.Set) ([]driver.Device, error)
}

// Injector performs the filesystem mutations of a run. Satisfied by
// mount.Injector.
type Injector interface {
	MountDriver(cnt *container.Container, info driver.Info) error
	MountDevice(cnt *container.Container, dev driver.Device) error
	UpdateLdcache(cnt *container.Container) error
}

// Options collects everything one configure invocation needs.
type Options struct {
	// PID of the container init process; 0 targets the current process.
	PID    int
	Rootfs string

	// DeviceSpec is the comma-separated device selection string.
	DeviceSpec string
	// Requirements are version constraint expressions checked against the
	// installed driver stack before anything is mounted.
	Requirements []string

	DriverCaps capability.Set
	DeviceCaps capability.Set

	LoadKmods bool
	NoCgroups bool
	NoDevbind bool
}

// Orchestrator runs the configuration workflow over pluggable
// collaborators.
type Orchestrator struct {
	discovery Discovery
	injector  Injector
	logger    *logging.Logger
	rules     require.Rules

	newContainer func(container.Config, container.Flags) (*container.Container, error)
}

// New creates an orchestrator with the default requirement rules.
func New(discovery Discovery, injector Injector, logger *logging.Logger) *Orchestrator {
	return &Orchestrator{
		discovery:    discovery,
		injector:     injector,
		logger:       logger,
		rules:        require.DefaultRules(),
		newContainer: container.New,
	}
}

// Run executes the configuration phases in order. Completed mounts are
// not rolled back on a later failure; acquired handles are always
// released, in reverse acquisition order, whichever phase fails.
func (o *Orchestrator) Run(opts Options) error {
	if len(opts.Requirements) > require.MaxRequirements {
		return fmt.Errorf("initialization error: too many requirements (max %d)", require.MaxRequirements)
	}

	cfg, err := container.NewConfig(opts.PID, opts.Rootfs)
	if err != nil {
		return fmt.Errorf("initialization error: %w", err)
	}

	var release []func()
	defer func() {
		for i := len(release) - 1; i >= 0; i-- {
			release[i]()
		}
	}()

	if err := o.discovery.Init(opts.LoadKmods); err != nil {
		return fmt.Errorf("initialization error: %w", err)
	}
	release = append(release, func() {
		if err := o.discovery.Shutdown(); err != nil {
			o.logger.Warn("configure.shutdown", "Discovery shutdown failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	})

	cnt, err := o.newContainer(cfg, container.Flags{
		NoCgroups:  opts.NoCgroups,
		NoDevbind:  opts.NoDevbind,
		Supervised: opts.PID > 0,
	})
	if err != nil {
		return fmt.Errorf("container error: %w", err)
	}
	release = append(release, func() {
		if err := cnt.Close(); err != nil {
			o.logger.Warn("configure.close", "Container close failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	})

	info, err := o.discovery.DriverInfo(opts.DriverCaps)
	if err != nil {
		return fmt.Errorf("detection error: %w", err)
	}

	devices, err := o.discovery.Devices(opts.DeviceCaps)
	if err != nil {
		return fmt.Errorf("detection error: %w", err)
	}

	if err := require.EvaluateAll(opts.Requirements, info, o.rules); err != nil {
		return fmt.Errorf("requirement error: %w", err)
	}

	selected, err := device.Select(opts.DeviceSpec, devices)
	if err != nil {
		return fmt.Errorf("device error: %w", err)
	}

	if err := o.injector.MountDriver(cnt, info); err != nil {
		return fmt.Errorf("mount error: %w", err)
	}

	// Selection order is discovery order, so mounts happen by ordinal.
	for _, dev := range selected {
		if dev == nil {
			continue
		}
		if err := o.injector.MountDevice(cnt, *dev); err != nil {
			return fmt.Errorf("mount error: %w", err)
		}
	}

	if err := o.injector.UpdateLdcache(cnt); err != nil {
		return fmt.Errorf("mount error: %w", err)
	}

	o.logger.Info("configure.done", "Container configured", map[string]interface{}{
		"pid":          cnt.PID(),
		"rootfs":       cnt.Rootfs(),
		"devices":      selected.Count(),
		"kmod_version": info.KmodVersion,
		"cuda_version": info.CUDAVersion,
	})
	return nil
}
