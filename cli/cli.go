package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"runtime/pprof"
	"syscall"

	"github.com/brimdata/parq/cli/logflags"
	"go.uber.org/zap"
)

// version can be set by the linker.
var version string

// Version returns the linker-set version, else the module version from the
// build information, else "unknown".
func Version() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		// This will be "(devel)" for binaries not built by
		// "go install PACKAGE@VERSION".
		return info.Main.Version
	}
	return "unknown"
}

var ErrExit = errors.New("exit")

type Flags struct {
	showVersion    bool
	cpuprofile     string
	memprofile     string
	cpuProfileFile *os.File
	Log            logflags.Flags
}

func (f *Flags) SetFlags(fs *flag.FlagSet) {
	fs.BoolVar(&f.showVersion, "version", false, "print version and exit")
	fs.StringVar(&f.cpuprofile, "cpuprofile", "", "write cpu profile to given file name")
	fs.StringVar(&f.memprofile, "memprofile", "", "write memory profile to given file name")
	f.Log.SetFlags(fs)
}

// Init opens the logger and starts profiling. It returns a context that is
// canceled on SIGINT, SIGPIPE or SIGTERM and a cleanup function that must
// be called when the command finishes. If -version was given, Init prints
// the version and returns ErrExit.
func (f *Flags) Init() (context.Context, *zap.Logger, func(), error) {
	if f.showVersion {
		fmt.Printf("Version: %s\n", Version())
		return nil, nil, nil, ErrExit
	}
	logger, err := f.Log.Open()
	if err != nil {
		return nil, nil, nil, err
	}
	if f.cpuprofile != "" {
		if err := f.runCPUProfile(f.cpuprofile); err != nil {
			return nil, nil, nil, err
		}
	}
	ctx, cancel := signal.NotifyContext(
		context.Background(), syscall.SIGINT, syscall.SIGPIPE, syscall.SIGTERM)
	cleanup := func() {
		cancel()
		f.cleanup(logger)
		logger.Sync()
	}
	return &interruptedContext{ctx}, logger, cleanup, nil
}

type interruptedContext struct{ context.Context }

func (i *interruptedContext) Err() error {
	err := i.Context.Err()
	if errors.Is(err, context.Canceled) {
		return errors.New("interrupted")
	}
	return err
}

func (f *Flags) cleanup(logger *zap.Logger) {
	if f.cpuProfileFile != nil {
		pprof.StopCPUProfile()
		f.cpuProfileFile.Close()
	}
	if f.memprofile != "" {
		if err := runMemProfile(f.memprofile); err != nil {
			logger.Error("Memory profile", zap.Error(err))
		}
	}
}

func (f *Flags) runCPUProfile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	f.cpuProfileFile = file
	return pprof.StartCPUProfile(file)
}

func runMemProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	runtime.GC()
	if err := pprof.Lookup("allocs").WriteTo(f, 0); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
