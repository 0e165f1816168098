package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/minroll/minroll/pkg/api"
	"github.com/xyproto/env/v2"
)

// Environment variables that provide defaults for the matching flags
const (
	envFormat   = "MINROLL_FORMAT"
	envExports  = "MINROLL_EXPORTS"
	envLogLevel = "MINROLL_LOG_LEVEL"
)

type watchMode uint8

const (
	watchNone watchMode = iota
	watchNotify
	watchPoll
)

func newBuildOptions() api.BuildOptions {
	return api.BuildOptions{
		// Apply defaults appropriate for the CLI
		ErrorLimit: 10,
		LogLevel:   api.LogLevelInfo,
		Write:      true,
	}
}

// ParseBuildOptions turns command-line arguments into build options. Values
// from the environment (including a ".env" file in the current directory)
// are applied first, so flags always win.
func ParseBuildOptions(osArgs []string) (options api.BuildOptions, err error) {
	options = newBuildOptions()
	_, err = parseOptionsImpl(osArgs, &options)
	return
}

func applyEnvironment(options *api.BuildOptions) error {
	// A missing ".env" file is fine
	_ = godotenv.Load()

	if value := env.Str(envFormat); value != "" {
		if err := parseFormat(value, options); err != nil {
			return fmt.Errorf("Invalid %s: %s", envFormat, err.Error())
		}
	}
	if value := env.Str(envExports); value != "" {
		if err := parseExports(value, options); err != nil {
			return fmt.Errorf("Invalid %s: %s", envExports, err.Error())
		}
	}
	if value := env.Str(envLogLevel); value != "" {
		if err := parseLogLevel(value, options); err != nil {
			return fmt.Errorf("Invalid %s: %s", envLogLevel, err.Error())
		}
	}
	return nil
}

func parseFormat(value string, options *api.BuildOptions) error {
	switch value {
	case "cjs":
		options.Format = api.FormatCommonJS
	case "esm":
		options.Format = api.FormatESModule
	case "iife":
		options.Format = api.FormatIIFE
	default:
		return fmt.Errorf("Valid formats: cjs, esm, iife")
	}
	return nil
}

func parseExports(value string, options *api.BuildOptions) error {
	switch value {
	case "auto":
		options.Exports = api.ExportsAuto
	case "none":
		options.Exports = api.ExportsNone
	case "default":
		options.Exports = api.ExportsDefault
	case "named":
		options.Exports = api.ExportsNamed
	default:
		return fmt.Errorf("Valid export modes: auto, default, named, none")
	}
	return nil
}

func parseLogLevel(value string, options *api.BuildOptions) error {
	switch value {
	case "info":
		options.LogLevel = api.LogLevelInfo
	case "warning":
		options.LogLevel = api.LogLevelWarning
	case "error":
		options.LogLevel = api.LogLevelError
	case "silent":
		options.LogLevel = api.LogLevelSilent
	default:
		return fmt.Errorf("Valid log levels: info, warning, error, silent")
	}
	return nil
}

func parseOptionsImpl(osArgs []string, buildOpts *api.BuildOptions) (watchMode, error) {
	if err := applyEnvironment(buildOpts); err != nil {
		return watchNone, err
	}
	watch := watchNone

	// Parse the arguments now that we know what we're parsing
	for _, arg := range osArgs {
		switch {
		case arg == "--watch":
			watch = watchNotify

		case arg == "--watch=poll":
			watch = watchPoll

		case strings.HasPrefix(arg, "--outfile="):
			buildOpts.Outfile = arg[len("--outfile="):]

		case strings.HasPrefix(arg, "--format="):
			if err := parseFormat(arg[len("--format="):], buildOpts); err != nil {
				return watchNone, fmt.Errorf("Invalid format: %q (%s)", arg[len("--format="):], err.Error())
			}

		case strings.HasPrefix(arg, "--exports="):
			if err := parseExports(arg[len("--exports="):], buildOpts); err != nil {
				return watchNone, fmt.Errorf("Invalid export mode: %q (%s)", arg[len("--exports="):], err.Error())
			}

		case strings.HasPrefix(arg, "--name="):
			buildOpts.GlobalName = arg[len("--name="):]

		case strings.HasPrefix(arg, "--resolve-extensions="):
			buildOpts.ResolveExtensions = strings.Split(arg[len("--resolve-extensions="):], ",")

		case strings.HasPrefix(arg, "--error-limit="):
			value, err := strconv.Atoi(arg[len("--error-limit="):])
			if err != nil || value < 0 {
				return watchNone, fmt.Errorf("Invalid error limit: %s", arg)
			}
			buildOpts.ErrorLimit = value

		case strings.HasPrefix(arg, "--log-level="):
			if err := parseLogLevel(arg[len("--log-level="):], buildOpts); err != nil {
				return watchNone, fmt.Errorf("Invalid log level: %q (%s)", arg[len("--log-level="):], err.Error())
			}

		case arg == "--color=true":
			buildOpts.Color = api.ColorAlways

		case arg == "--color=false":
			buildOpts.Color = api.ColorNever

		case !strings.HasPrefix(arg, "-"):
			if buildOpts.EntryPoint != "" {
				return watchNone, fmt.Errorf("Only one entry point is supported: %q", arg)
			}
			buildOpts.EntryPoint = arg

		default:
			return watchNone, fmt.Errorf("Invalid flag: %q", arg)
		}
	}

	if buildOpts.EntryPoint == "" {
		return watchNone, fmt.Errorf("Missing an entry point")
	}
	if watch != watchNone && buildOpts.Outfile == "" {
		return watchNone, fmt.Errorf("Cannot use \"--watch\" without \"--outfile\"")
	}
	return watch, nil
}
