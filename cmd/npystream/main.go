// Command npystream writes an incrementing float32 array to an npy file one
// row at a time: npystream [flags] ROWS COLS
package main

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"runtime/pprof"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/usnistgov/npystream"
)

var githash = "githash not computed"
var buildDate = "build date not computed"

// parseShape reads the ROWS and COLS positional arguments into v, where they
// override any config file values. Each must come from an argument or from
// the config file; the defaults of 0 are never used silently.
func parseShape(v *viper.Viper, args []string) error {
	names := []string{"rows", "cols"}
	if len(args) > len(names) {
		return fmt.Errorf("expected at most %d arguments (ROWS COLS), have %d", len(names), len(args))
	}
	for i, name := range names {
		if i >= len(args) {
			if !v.InConfig(name) {
				return fmt.Errorf("%s is required: give ROWS COLS or set %q in the config file",
					strings.ToUpper(name), name)
			}
			continue
		}
		n, err := strconv.Atoi(args[i])
		if err != nil || n < 0 {
			return fmt.Errorf("%s must be a non-negative integer, have %q", strings.ToUpper(name), args[i])
		}
		v.Set(name, n)
	}
	return nil
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("npystream", pflag.ContinueOnError)
	fs.String("config", "", "config file (default: search for npystream.yaml)")
	fs.String("output-dir", "example_output", "directory for the output file")
	fs.Int("checkpoint-every", 0, "patch the header after every N rows (0: only at close)")
	fs.Bool("atomic", false, "write to a temporary file and rename it into place when finished")
	fs.Int("buffer-size", 32768, "write buffer size in bytes")
	fs.String("log-file", "", "rotating log file for problems (default: stderr)")
	fs.Bool("verify", false, "check the finished file's header and size")
	fs.Bool("verbose", false, "print the effective configuration")
	fs.Bool("version", false, "print version and quit")
	fs.String("cpuprofile", "", "write CPU profile to given file")
	fs.String("memprofile", "", "write memory profile to given file")
	return fs
}

// bindFlags makes each flag the source of its config key, with dashes in
// flag names standing for underscores in keys.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if e := v.BindPFlag(key, f); e != nil && err == nil {
			err = e
		}
	})
	return err
}

func run(args []string) error {
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return err
	}
	if version, _ := fs.GetBool("version"); version {
		fmt.Printf("This is npystream version %s\n", npystream.Build.Version)
		fmt.Printf("Git commit hash: %s\n", githash)
		fmt.Printf("Build time: %s\n", buildDate)
		fmt.Printf("Built on go version %s\n", runtime.Version())
		return nil
	}

	v := viper.New()
	configFile, _ := fs.GetString("config")
	if err := npystream.SetupViper(v, configFile); err != nil {
		return err
	}
	if err := bindFlags(v, fs); err != nil {
		return err
	}
	if err := parseShape(v, fs.Args()); err != nil {
		return err
	}
	cfg, err := npystream.LoadConfig(v)
	if err != nil {
		return err
	}
	if cfg.LogFile != "" {
		npystream.StartLogger(cfg.LogFile)
	}
	if cfg.Verbose {
		if used := v.ConfigFileUsed(); used != "" {
			log.Printf("npystream is using config file %s\n", used)
		}
		log.Print(spew.Sdump(cfg))
	}

	if cpuprofile, _ := fs.GetString("cpuprofile"); cpuprofile != "" {
		f, err := os.Create(cpuprofile)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return err
		}
		defer pprof.StopCPUProfile()
	}

	fname, err := npystream.WriteIncArray(cfg)
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %d x %d array to %s\n", cfg.Rows, cfg.Cols, fname)

	memprofile, _ := fs.GetString("memprofile")
	return writeMemoryProfile(memprofile)
}

// writeMemoryProfile writes the memory use profile to the indicated file.
// If `memprofile` is an empty string, do not write.
func writeMemoryProfile(memprofile string) error {
	if memprofile == "" {
		return nil
	}
	f, err := os.Create(memprofile)
	if err != nil {
		return fmt.Errorf("could not create memory profile: %w", err)
	}
	defer f.Close()
	runtime.GC() // get up-to-date statistics
	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("could not write memory profile: %w", err)
	}
	return nil
}

func main() {
	npystream.Build.Githash = githash
	npystream.Build.Date = strings.Replace(buildDate, ".", " ", -1) // workaround for Make problems
	npystream.Build.Summary = fmt.Sprintf("npystream version %s (git commit %s)", npystream.Build.Version, githash)

	if err := run(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		npystream.ProblemLogger.Printf("npystream failed: %v", err)
		log.Fatal(err)
	}
}
