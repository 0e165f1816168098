package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/minroll/minroll/internal/logger"
	"github.com/minroll/minroll/pkg/cli"
)

const minrollVersion = "0.1.0"

const helpText = `
Usage:
  minroll [options] [entry point]

Options:
  --outfile=...         The output file (default stdout)
  --format=...          Output format (cjs, esm, iife; default cjs)
  --exports=...         How the entry module's exports are exposed
                        (auto, default, named, none; default auto)
  --name=...            The name of the global for the iife format
  --watch               Rebuild when an input file changes
  --watch=poll          Like --watch but checks files on a timer
  --color=...           Force use of color terminal escapes (true or false)

Advanced options:
  --version                 Print the current version and exit (` + minrollVersion + `)
  --error-limit=...         Maximum error count or 0 to disable (default 10)
  --log-level=...           Disable logging (info, warning, error, silent)
  --resolve-extensions=...  A comma-separated list of implicit extensions
  --cpuprofile=...          Write a CPU profile to this file

Environment:
  MINROLL_FORMAT        Default for --format
  MINROLL_EXPORTS       Default for --exports
  MINROLL_LOG_LEVEL     Default for --log-level

  Variables are also read from a ".env" file in the current directory.

Examples:
  # Bundle into a single CommonJS file
  minroll src/main.js --outfile=dist/main.js

  # Produce a browser script that assigns the exports to window.lib
  minroll src/main.js --format=iife --name=lib > lib.js

  # Keep dist/main.mjs up to date while editing
  minroll src/main.js --format=esm --outfile=dist/main.mjs --watch
`

func main() {
	osArgs := os.Args[1:]
	cpuprofileFile := ""

	// Do an initial scan over the argument list
	argsEnd := 0
	for _, arg := range osArgs {
		switch {
		// Show help if a common help flag is provided
		case arg == "-h", arg == "-help", arg == "--help", arg == "/?":
			fmt.Fprintf(os.Stderr, "%s\n", helpText)
			os.Exit(0)

		// Special-case the version flag here
		case arg == "--version":
			fmt.Fprintf(os.Stderr, "%s\n", minrollVersion)
			os.Exit(0)

		case strings.HasPrefix(arg, "--cpuprofile="):
			cpuprofileFile = arg[len("--cpuprofile="):]

		default:
			// Strip any arguments that were handled above
			osArgs[argsEnd] = arg
			argsEnd++
		}
	}
	osArgs = osArgs[:argsEnd]

	// Print help text when there are no arguments
	if len(osArgs) == 0 && logger.GetTerminalInfo(os.Stdin).IsTTY {
		fmt.Fprintf(os.Stderr, "%s\n", helpText)
		os.Exit(0)
	}

	// Capture the defer statements below so the profile is flushed first
	exitCode := 1
	func() {
		// To view a CPU profile, drop the file into https://speedscope.app
		if cpuprofileFile != "" {
			done := createCpuprofileFile(osArgs, cpuprofileFile)
			if done == nil {
				return
			}
			defer done()
		}

		exitCode = cli.Run(osArgs)
	}()

	os.Exit(exitCode)
}
