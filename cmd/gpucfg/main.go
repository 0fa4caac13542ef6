package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"gpucfg/internal/capability"
	"gpucfg/internal/config"
	"gpucfg/internal/configure"
	"gpucfg/internal/driver"
	"gpucfg/internal/logging"
	"gpucfg/internal/mount"
	"gpucfg/internal/require"
	"gpucfg/internal/tui"
)

const version = "0.1.0-dev"

func main() {
	if len(os.Args) <= 1 {
		printUsage()
		os.Exit(1)
	}

	command := strings.ToLower(os.Args[1])
	if handler, ok := commandHandlers()[command]; ok {
		handler()
		return
	}

	fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
	printUsage()
	os.Exit(1)
}

func commandHandlers() map[string]func() {
	return map[string]func(){
		"configure": runConfigure,
		"info":      runInfo,
		"pick":      runPick,
		"config":    runConfig,
		"version":   runVersion,
		"help":      printUsage,
		"--help":    printUsage,
		"-h":        printUsage,
	}
}

func runVersion() {
	fmt.Printf("gpucfg version %s\n", version)
}

// requireList collects repeated --require flags, bounded so a runaway
// caller cannot queue an unbounded requirement list.
type requireList []string

func (r *requireList) String() string {
	return strings.Join(*r, ", ")
}

func (r *requireList) Set(value string) error {
	if len(*r) >= require.MaxRequirements {
		return fmt.Errorf("too many requirements (max %d)", require.MaxRequirements)
	}
	*r = append(*r, value)
	return nil
}

// runConfigure injects the driver and the selected devices into a
// container rootfs. Success is silent; any failure prints one diagnostic
// and exits non-zero.
func runConfigure() {
	fs := flag.NewFlagSet("configure", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: gpucfg configure [flags] ROOTFS\n\n")
		fs.PrintDefaults()
	}

	var reqs requireList
	pid := fs.Int("pid", 0, "container init process id (0 targets the current process)")
	deviceSpec := fs.String("device", "", "device selection: comma-separated indices, GPU- UUID prefixes, or \"all\"")
	fs.Var(&reqs, "require", "version requirement expression, repeatable (e.g. \"cuda>=9.0\")")
	computeFlag := fs.Bool("compute", false, "enable compute capability")
	utilityFlag := fs.Bool("utility", false, "enable utility capability")
	videoFlag := fs.Bool("video", false, "enable video capability")
	graphicsFlag := fs.Bool("graphics", false, "enable graphics capability")
	compat32Flag := fs.Bool("compat32", false, "also inject 32-bit compatibility libraries")
	noCgroups := fs.Bool("no-cgroups", false, "skip cgroup device rules")
	noDevbind := fs.Bool("no-devbind", false, "skip binding device nodes into the container")
	loadKmods := fs.Bool("load-kmods", false, "load kernel modules before discovery")
	debugFile := fs.String("debug", "", "write debug logs to FILE")

	if err := fs.Parse(os.Args[2:]); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}
	rootfs := fs.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "gpucfg: %v\n", err)
		os.Exit(1)
	}

	logger, err := newConfigureLogger(cfg, *debugFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gpucfg: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Close() }()

	driverCaps := capability.NewSet()
	if *computeFlag {
		driverCaps.Add(capability.Compute)
	}
	if *utilityFlag {
		driverCaps.Add(capability.Utility)
	}
	if *videoFlag {
		driverCaps.Add(capability.Video)
	}
	if *graphicsFlag {
		driverCaps.Add(capability.Graphics)
	}
	if driverCaps.Empty() {
		driverCaps = cfg.Capabilities()
	}

	// Device queries use the same capabilities; compat32 only affects the
	// driver component set.
	deviceCaps := capability.NewSet(driverCaps.List()...)
	if *compat32Flag {
		driverCaps.Add(capability.Compat32)
	}

	orchestrator := configure.New(
		driver.NewDiscovery(logger),
		mount.NewInjector(logger, cfg.LdconfigPath),
		logger,
	)

	err = orchestrator.Run(configure.Options{
		PID:          *pid,
		Rootfs:       rootfs,
		DeviceSpec:   *deviceSpec,
		Requirements: reqs,
		DriverCaps:   driverCaps,
		DeviceCaps:   deviceCaps,
		LoadKmods:    *loadKmods || cfg.LoadKmods,
		NoCgroups:    *noCgroups || cfg.NoCgroups,
		NoDevbind:    *noDevbind || cfg.NoDevbind,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "gpucfg: %v\n", err)
		os.Exit(1)
	}
}

// newConfigureLogger builds the run logger. A --debug file forces debug
// level logging to that file, matching the configured level otherwise.
func newConfigureLogger(cfg config.Config, debugFile string) (*logging.Logger, error) {
	if debugFile != "" {
		return logging.NewFileLogger(logging.LevelDebug, debugFile)
	}
	if cfg.Logging.File != "" {
		return logging.NewFileLogger(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.File)
	}
	return logging.NewLogger(logging.ParseLevel(cfg.Logging.Level)), nil
}

// runInfo prints the driver stack and device inventory.
func runInfo() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "gpucfg: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(logging.LevelWarn)
	caps := cfg.Capabilities()

	discovery := driver.NewDiscovery(logger)
	if err := discovery.Init(false); err != nil {
		fmt.Fprintf(os.Stderr, "gpucfg: initialization error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = discovery.Shutdown() }()

	info, err := discovery.DriverInfo(caps)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gpucfg: detection error: %v\n", err)
		os.Exit(1)
	}

	devices, err := discovery.Devices(caps)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gpucfg: detection error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=== Driver ===")
	fmt.Printf("Kernel Module: %s\n", info.KmodVersion)
	fmt.Printf("CUDA Version:  %s\n", info.CUDAVersion)
	fmt.Println()
	fmt.Printf("=== Devices (%d) ===\n", len(devices))
	for _, dev := range devices {
		fmt.Printf("Device %d:\n", dev.Ordinal)
		fmt.Printf("  Name:   %s\n", dev.Name)
		fmt.Printf("  UUID:   %s\n", dev.UUID)
		fmt.Printf("  Memory: %d MiB\n", dev.MemoryMiB)
	}
}

// runPick opens the interactive device picker and prints the resulting
// device specification, suitable for --device.
func runPick() {
	logger := logging.NewLogger(logging.LevelWarn)

	discovery := driver.NewDiscovery(logger)
	if err := discovery.Init(false); err != nil {
		fmt.Fprintf(os.Stderr, "gpucfg: initialization error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = discovery.Shutdown() }()

	devices, err := discovery.Devices(capability.NewSet(capability.Utility))
	if err != nil {
		fmt.Fprintf(os.Stderr, "gpucfg: detection error: %v\n", err)
		os.Exit(1)
	}

	spec, err := tui.RunPicker(devices)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gpucfg: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(spec)
}

// runConfig dispatches config subcommands.
func runConfig() {
	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, "Usage: gpucfg config <subcommand>\n")
		fmt.Fprintf(os.Stderr, "Subcommands:\n")
		fmt.Fprintf(os.Stderr, "  test [path]  Test configuration file for validity\n")
		os.Exit(1)
	}

	subcommand := strings.ToLower(os.Args[2])
	switch subcommand {
	case "test":
		runConfigTest()
	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", subcommand)
		fmt.Fprintf(os.Stderr, "Valid subcommands: test\n")
		os.Exit(1)
	}
}

// runConfigTest validates configuration file(s)
func runConfigTest() {
	var cfg config.Config
	var configErr error

	if len(os.Args) > 3 {
		path := os.Args[3]
		fmt.Printf("Testing configuration file: %s\n", path)
		cfg, configErr = config.LoadFrom(path)
	} else {
		fmt.Println("Testing configuration (system + user merge):")
		fmt.Printf("  System config: %s\n", config.SystemConfigPath())
		if userPath := config.UserConfigPath(); userPath != "" {
			fmt.Printf("  User config:   %s\n", userPath)
		}
		fmt.Println()

		cfg, configErr = config.Load()
	}

	if configErr != nil {
		fmt.Fprintf(os.Stderr, "Configuration validation FAILED:\n")
		fmt.Fprintf(os.Stderr, "   %v\n", configErr)
		os.Exit(1)
	}

	fmt.Println("Configuration is VALID")
	fmt.Println()
	fmt.Println("Configuration Summary:")
	fmt.Printf("  Driver Capabilities: %s\n", cfg.Capabilities().String())
	fmt.Printf("  Ldconfig Path:       %s\n", cfg.LdconfigPath)
	fmt.Printf("  Load Kmods:          %t\n", cfg.LoadKmods)
	fmt.Printf("  No Cgroups:          %t\n", cfg.NoCgroups)
	fmt.Printf("  No Devbind:          %t\n", cfg.NoDevbind)
	fmt.Printf("  Log Level:           %s\n", cfg.Logging.Level)
}

// printUsage displays usage information
func printUsage() {
	fmt.Printf(`gpucfg - GPU Container Configuration Tool (version %s)

Usage:
  gpucfg configure [flags] ROOTFS  Inject the driver and selected devices into a container rootfs
  gpucfg info                      Show driver stack and device inventory
  gpucfg pick                      Interactively pick devices and print a --device specification
  gpucfg config test [path]        Test configuration file for validity
  gpucfg version                   Print version information
  gpucfg help                      Show this help message

Configure flags:
  --pid N           Container init process id (0 targets the current process)
  --device SPEC     Comma-separated device selection: indices, GPU- UUID prefixes, or "all"
  --require EXPR    Version requirement, repeatable (e.g. "cuda>=9.0", "driver<390")
  --compute         Enable compute capability
  --utility         Enable utility capability
  --video           Enable video capability
  --graphics        Enable graphics capability
  --compat32        Also inject 32-bit compatibility libraries
  --no-cgroups      Skip cgroup device rules
  --no-devbind      Skip binding device nodes
  --load-kmods      Load kernel modules before discovery
  --debug FILE      Write debug logs to FILE

Configuration is read from %s, overridden by ~/.gpucfg/config.yaml.
`, version, config.SystemConfigPath())
}
