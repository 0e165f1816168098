package cli

import (
	"testing"

	"github.com/minroll/minroll/internal/exitcode"
	"github.com/minroll/minroll/internal/test"
	"github.com/minroll/minroll/pkg/api"
)

func TestParseBuildOptions(t *testing.T) {
	options, err := ParseBuildOptions([]string{
		"src/main.js",
		"--outfile=dist/out.js",
		"--format=iife",
		"--name=lib",
		"--exports=named",
		"--resolve-extensions=.mjs,.js",
		"--log-level=error",
		"--color=false",
	})
	if err != nil {
		t.Fatal(err)
	}
	test.AssertEqual(t, options.EntryPoint, "src/main.js")
	test.AssertEqual(t, options.Outfile, "dist/out.js")
	test.AssertEqual(t, options.Format, api.FormatIIFE)
	test.AssertEqual(t, options.GlobalName, "lib")
	test.AssertEqual(t, options.Exports, api.ExportsNamed)
	test.AssertEqual(t, len(options.ResolveExtensions), 2)
	test.AssertEqual(t, options.ResolveExtensions[0], ".mjs")
	test.AssertEqual(t, options.LogLevel, api.LogLevelError)
	test.AssertEqual(t, options.Color, api.ColorNever)
	test.AssertEqual(t, options.Write, true)
}

func TestParseErrors(t *testing.T) {
	expectError := func(args []string, expected string) {
		t.Helper()
		_, err := ParseBuildOptions(args)
		if err == nil {
			t.Fatalf("Expected an error for %v", args)
		}
		test.AssertEqualWithDiff(t, err.Error(), expected)
	}

	expectError([]string{}, "Missing an entry point")
	expectError([]string{"a.js", "b.js"}, `Only one entry point is supported: "b.js"`)
	expectError([]string{"a.js", "--format=amd"}, `Invalid format: "amd" (Valid formats: cjs, esm, iife)`)
	expectError([]string{"a.js", "--exports=some"}, `Invalid export mode: "some" (Valid export modes: auto, default, named, none)`)
	expectError([]string{"a.js", "--minify"}, `Invalid flag: "--minify"`)
	expectError([]string{"a.js", "--error-limit=x"}, "Invalid error limit: --error-limit=x")
	expectError([]string{"a.js", "--watch"}, `Cannot use "--watch" without "--outfile"`)
}

func TestWatchFlags(t *testing.T) {
	options := newBuildOptions()
	watch, err := parseOptionsImpl([]string{"a.js", "--outfile=b.js", "--watch"}, &options)
	test.AssertEqual(t, err, nil)
	test.AssertEqual(t, watch, watchNotify)

	options = newBuildOptions()
	watch, err = parseOptionsImpl([]string{"a.js", "--outfile=b.js", "--watch=poll"}, &options)
	test.AssertEqual(t, err, nil)
	test.AssertEqual(t, watch, watchPoll)
}

func TestEnvironmentDefaults(t *testing.T) {
	t.Setenv(envFormat, "esm")
	t.Setenv(envExports, "default")
	t.Setenv(envLogLevel, "silent")

	options, err := ParseBuildOptions([]string{"a.js"})
	if err != nil {
		t.Fatal(err)
	}
	test.AssertEqual(t, options.Format, api.FormatESModule)
	test.AssertEqual(t, options.Exports, api.ExportsDefault)
	test.AssertEqual(t, options.LogLevel, api.LogLevelSilent)

	// Flags win over the environment
	options, err = ParseBuildOptions([]string{"a.js", "--format=cjs"})
	if err != nil {
		t.Fatal(err)
	}
	test.AssertEqual(t, options.Format, api.FormatCommonJS)

	t.Setenv(envFormat, "umd")
	_, err = ParseBuildOptions([]string{"a.js"})
	test.AssertEqual(t, err.Error(), "Invalid MINROLL_FORMAT: Valid formats: cjs, esm, iife")
}

func TestRunExitCodes(t *testing.T) {
	test.AssertEqual(t, Run([]string{"--log-level=silent", "--minify"}), exitcode.Usage)
	test.AssertEqual(t, Run([]string{"--log-level=silent", "/does/not/exist.js"}), exitcode.BuildFailed)
}
