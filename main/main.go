// wirecat packs files into a framed packet stream and walks such streams
// back, verifying every checksum on the way.
//
// Usage:
//
//	wirecat pack [--config FILE] [--compress ALG] FILE...  > stream
//	wirecat dump [--config FILE] [--extract DIR] [--metrics] [FILE...]
//	wirecat template toml|yaml
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rawbytedev/wirebuf/internal/logging"
	"github.com/rawbytedev/wirebuf/pkg/config"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

var errUsage = errors.New("usage: wirecat pack|dump|template [flags] [args]")

func run(args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, args := args[0], args[1:]
	if cmd == "template" {
		if len(args) != 1 {
			return errUsage
		}
		data, err := config.Template(args[0])
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	var (
		configPath string
		algorithm  string
		extractDir string
		metrics    bool
	)
	flagSet := pflag.NewFlagSet("wirecat "+cmd, pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", "", "TOML or YAML buffer settings")
	switch cmd {
	case "pack":
		flagSet.StringVar(&algorithm, "compress", "", "compression override: none, lz4, zstd or snappy")
	case "dump":
		flagSet.StringVarP(&extractDir, "extract", "x", "", "write each packed file into this directory")
		flagSet.BoolVar(&metrics, "metrics", false, "log packet counters when done")
	default:
		return errUsage
	}
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	}
	if algorithm != "" {
		cfg.Compression = algorithm
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	log := logging.ConfigureRuntime()
	opts, err := cfg.Options()
	if err != nil {
		return err
	}
	opts.Logger = &log

	switch cmd {
	case "pack":
		if flagSet.NArg() == 0 {
			return errUsage
		}
		return pack(os.Stdout, flagSet.Args(), opts, cfg.Algorithm(), log)
	default:
		return dumpFiles(flagSet.Args(), opts, dumpOptions{extractDir: extractDir, metrics: metrics}, log)
	}
}
