// Package api is the public interface to the bundler. Build runs a single
// build. Watch runs a build and then rebuilds whenever a file under the entry
// module's directory changes.
package api

type Format uint8

const (
	FormatDefault Format = iota
	FormatCommonJS
	FormatESModule
	FormatIIFE
)

type ExportMode uint8

const (
	ExportsAuto ExportMode = iota
	ExportsNone
	ExportsDefault
	ExportsNamed
)

type Location struct {
	File     string
	Line     int // 1-based
	Column   int // 0-based, in bytes
	Length   int // in bytes
	LineText string
}

type Message struct {
	Text     string
	Location *Location
}

type StderrColor uint8

const (
	ColorIfTerminal StderrColor = iota
	ColorNever
	ColorAlways
)

type LogLevel uint8

const (
	LogLevelSilent LogLevel = iota
	LogLevelInfo
	LogLevelWarning
	LogLevelError
)

////////////////////////////////////////////////////////////////////////////////
// Build API

type BuildOptions struct {
	Color      StderrColor
	ErrorLimit int
	LogLevel   LogLevel

	// The output goes to stdout if this is empty and "Write" is true
	Outfile string
	Write   bool

	Format            Format
	Exports           ExportMode
	GlobalName        string
	ResolveExtensions []string

	EntryPoint string
}

type BuildResult struct {
	Errors   []Message
	Warnings []Message

	OutputFiles []OutputFile
}

type OutputFile struct {
	Path     string
	Contents []byte
}

func Build(options BuildOptions) BuildResult {
	result, _ := buildImpl(options, newBuildState())
	return result
}

////////////////////////////////////////////////////////////////////////////////
// Watch API

type WatchOptions struct {
	// Called after every rebuild, but not after the initial build
	OnRebuild func(BuildResult)

	// Forces the polling watcher even where file change notifications are
	// available
	Poll bool
}

type WatchHandle interface {
	// Blocks until any rebuild in progress has finished
	Stop()
}

// Watch runs a build and keeps watching afterward. Each change starts a new
// build from scratch. The returned result is from the initial build.
func Watch(options BuildOptions, watchOptions WatchOptions) (BuildResult, WatchHandle) {
	return watchImpl(options, watchOptions)
}
