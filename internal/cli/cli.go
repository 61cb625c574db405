// Package cli parses command line arguments into the App configuration.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/NVIDIA/confinject/internal/app"
)

// Environment variables providing option defaults.
const (
	EnvConfig    = "CONFINJECT_CONFIG"
	EnvLogLevel  = "CONFINJECT_LOG_LEVEL"
	EnvLogFormat = "CONFINJECT_LOG_FORMAT"
)

// ExitError is an error carrying the process exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command line arguments. It returns the App configuration,
// true when the program should exit cleanly, or an ExitError.
//
// Options not given on the command line fall back to the process environment,
// then to the env file, then to built-in defaults.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("confinject", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
confinject - wires an object graph from a descriptor and runs its entry point.

Usage:
  confinject [options] [CONFIG_PATH]

Arguments:
  CONFIG_PATH
    Path to a .yaml, .yml, .json or .hcl descriptor.

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Path to the descriptor file.")
	cFlag := flagSet.String("c", "", "Path to the descriptor file (shorthand).")
	envFileFlag := flagSet.String("env-file", ".env", "Path to the env file with option defaults. A missing file is ignored.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	listFlag := flagSet.Bool("list", false, "Print the catalog types and exit.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	env, err := readEnv(*envFileFlag)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	// Explicit flags win over the environment.
	explicit := map[string]bool{}
	flagSet.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
	option := func(name string, value *string, key string) string {
		if !explicit[name] {
			if envValue, ok := env(key); ok {
				return envValue
			}
		}
		return *value
	}

	path := ""
	switch {
	case *configFlag != "":
		path = *configFlag
	case *cFlag != "":
		path = *cFlag
	case flagSet.NArg() > 0:
		path = flagSet.Arg(0)
	default:
		path, _ = env(EnvConfig)
	}
	slog.Debug("Descriptor path determined.", "path", path)

	if path == "" && !*listFlag {
		flagSet.Usage()
		return nil, true, nil
	}

	config, err := app.NewConfig(app.Config{
		ConfigPath: path,
		LogLevel:   strings.ToLower(option("log-level", logLevelFlag, EnvLogLevel)),
		LogFormat:  strings.ToLower(option("log-format", logFormatFlag, EnvLogFormat)),
		List:       *listFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished.", "config", config)
	return config, false, nil
}

// readEnv returns a lookup over the process environment backed by the env file.
func readEnv(path string) (func(string) (string, bool), error) {
	fileEnv := map[string]string{}
	if path != "" {
		values, err := godotenv.Read(path)
		switch {
		case err == nil:
			fileEnv = values
		case errors.Is(err, fs.ErrNotExist):
			slog.Debug("Env file not found.", "path", path)
		default:
			return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
		}
	}

	return func(key string) (string, bool) {
		if value, ok := os.LookupEnv(key); ok {
			return value, true
		}
		value, ok := fileEnv[key]
		return value, ok
	}, nil
}
