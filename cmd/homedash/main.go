package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/five82/homedash/internal/app"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	flags := pflag.NewFlagSet("homedash", pflag.ContinueOnError)
	configPath := flags.StringP("config", "c", "", "config file path (default ~/.config/homedash/config.toml)")
	envFile := flags.String("env-file", "", "dotenv file with Netatmo secrets (default .env, ignored when missing)")
	prefsPath := flags.String("prefs", "", "preferences file path (default ~/.config/homedash/prefs.toml)")
	logLevel := flags.String("log-level", "", "override the configured log level (debug, info, warn, error)")
	showVersion := flags.Bool("version", false, "print version and exit")

	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "homedash: %v\n", err)
		return 2
	}
	if *showVersion {
		fmt.Println("homedash", version)
		return 0
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		EnvFile:    *envFile,
		PrefsPath:  *prefsPath,
		LogLevel:   *logLevel,
	}
	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "homedash: %v\n", err)
		return 1
	}
	return 0
}
