// Package container models the target container for one configure
// invocation: its init process, its root filesystem, and the runtime
// flags that shape how devices are exposed to it.
package container

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config carries the caller-supplied target identity.
type Config struct {
	PID    int
	Rootfs string
}

// NewConfig validates the target identity. A zero PID means the current
// process (standalone mode).
func NewConfig(pid int, rootfs string) (Config, error) {
	if pid < 0 {
		return Config{}, fmt.Errorf("invalid pid: %d", pid)
	}
	if rootfs == "" {
		return Config{}, fmt.Errorf("rootfs must not be empty")
	}
	if !filepath.IsAbs(rootfs) {
		return Config{}, fmt.Errorf("rootfs must be an absolute path: %s", rootfs)
	}
	return Config{PID: pid, Rootfs: rootfs}, nil
}

// Flags control cgroup and device-node handling for the container.
type Flags struct {
	NoCgroups bool
	NoDevbind bool
	// Supervised is set when an external supervisor owns the container
	// process; otherwise the tool operates on its own process (standalone).
	Supervised bool
}

// Container is the handle for one validated target. It is owned by a
// single invocation and must be closed before the invocation returns.
type Container struct {
	pid    int
	rootfs string
	root   string
	flags  Flags
	closed bool
}

// New validates the target and produces a container handle. When the
// config names another process, the root filesystem is reached through
// that process's /proc root so mounts land inside its mount namespace
// view.
func New(cfg Config, flags Flags) (*Container, error) {
	pid := cfg.PID
	if pid == 0 {
		pid = os.Getpid()
		flags.Supervised = false
	}

	root := cfg.Rootfs
	if flags.Supervised {
		root = filepath.Join("/proc", strconv.Itoa(pid), "root", cfg.Rootfs)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("invalid rootfs %s: %w", cfg.Rootfs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("invalid rootfs %s: not a directory", cfg.Rootfs)
	}

	return &Container{
		pid:    pid,
		rootfs: cfg.Rootfs,
		root:   root,
		flags:  flags,
	}, nil
}

// PID returns the target process id.
func (c *Container) PID() int {
	return c.pid
}

// Rootfs returns the root filesystem path as supplied by the caller.
func (c *Container) Rootfs() string {
	return c.rootfs
}

// Root returns the resolved mount target for the container's root
// filesystem.
func (c *Container) Root() string {
	return c.root
}

// Flags returns the runtime flags for this container.
func (c *Container) Flags() Flags {
	return c.flags
}

// Close releases the handle. Closing twice is a no-op.
func (c *Container) Close() error {
	c.closed = true
	return nil
}

// Closed reports whether the handle has been released.
func (c *Container) Closed() bool {
	return c.closed
}
