package api

import (
	"fmt"
	"os"

	"github.com/minroll/minroll/internal/bundler"
	"github.com/minroll/minroll/internal/cache"
	"github.com/minroll/minroll/internal/config"
	"github.com/minroll/minroll/internal/fs"
	"github.com/minroll/minroll/internal/js_lexer"
	"github.com/minroll/minroll/internal/logger"
)

func validateFormat(value Format) config.Format {
	switch value {
	case FormatDefault, FormatCommonJS:
		return config.FormatCommonJS
	case FormatESModule:
		return config.FormatESModule
	case FormatIIFE:
		return config.FormatIIFE
	default:
		panic("Invalid format")
	}
}

func validateExportMode(value ExportMode) config.ExportMode {
	switch value {
	case ExportsAuto:
		return config.ExportAuto
	case ExportsNone:
		return config.ExportNone
	case ExportsDefault:
		return config.ExportDefault
	case ExportsNamed:
		return config.ExportNamed
	default:
		panic("Invalid export mode")
	}
}

func validateColor(value StderrColor) logger.StderrColor {
	switch value {
	case ColorIfTerminal:
		return logger.ColorIfTerminal
	case ColorNever:
		return logger.ColorNever
	case ColorAlways:
		return logger.ColorAlways
	default:
		panic("Invalid color")
	}
}

func validateLogLevel(value LogLevel) logger.LogLevel {
	switch value {
	case LogLevelInfo:
		return logger.LevelInfo
	case LogLevelWarning:
		return logger.LevelWarning
	case LogLevelError:
		return logger.LevelError
	case LogLevelSilent:
		return logger.LevelSilent
	default:
		panic("Invalid log level")
	}
}

func validateResolveExtensions(log logger.Log, order []string) []string {
	if order == nil {
		return config.DefaultResolveExtensions
	}
	for _, ext := range order {
		if len(ext) < 2 || ext[0] != '.' {
			log.AddError(nil, logger.Loc{}, fmt.Sprintf("Invalid file extension: %q", ext))
		}
	}
	return order
}

func validateGlobalName(log logger.Log, text string) string {
	if text != "" && !js_lexer.IsIdentifier(text) {
		log.AddError(nil, logger.Loc{}, fmt.Sprintf("Invalid global name: %q", text))
	}
	return text
}

func validatePath(log logger.Log, fs fs.FS, relPath string) string {
	if relPath == "" {
		return ""
	}
	absPath, ok := fs.Abs(relPath)
	if !ok {
		log.AddError(nil, logger.Loc{}, fmt.Sprintf("Invalid path: %s", relPath))
	}
	return absPath
}

func convertMessagesToPublic(kind logger.MsgKind, msgs []logger.Msg) []Message {
	var filtered []Message
	for _, msg := range msgs {
		if msg.Kind == kind {
			var location *Location
			if loc := msg.Location; loc != nil {
				location = &Location{
					File:     loc.File,
					Line:     loc.Line,
					Column:   loc.Column,
					Length:   loc.Length,
					LineText: loc.LineText,
				}
			}
			filtered = append(filtered, Message{
				Text:     msg.Text,
				Location: location,
			})
		}
	}
	return filtered
}

////////////////////////////////////////////////////////////////////////////////
// Build API

// Everything that survives from one build to the next in watch mode. Only
// file contents are reused. Modules are always loaded and analyzed again.
type buildState struct {
	fs     fs.FS
	caches *cache.CacheSet
}

func newBuildState() *buildState {
	return &buildState{
		fs:     fs.RealFS(),
		caches: cache.MakeCacheSet(),
	}
}

func newLog(options BuildOptions) logger.Log {
	if options.LogLevel == LogLevelSilent {
		return logger.NewDeferLog()
	}
	return logger.NewStderrLog(logger.OutputOptions{
		IncludeSource: true,
		ErrorLimit:    options.ErrorLimit,
		Color:         validateColor(options.Color),
		LogLevel:      validateLogLevel(options.LogLevel),
	})
}

// Returns the result along with the absolute paths of every file that was
// loaded, which is what the polling watcher checks
func buildImpl(options BuildOptions, state *buildState) (BuildResult, []string) {
	log := newLog(options)
	realFS := state.fs

	// Convert and validate the options
	bundleOptions := config.Options{
		OutputFormat:      validateFormat(options.Format),
		ExportMode:        validateExportMode(options.Exports),
		GlobalName:        validateGlobalName(log, options.GlobalName),
		ResolveExtensions: validateResolveExtensions(log, options.ResolveExtensions),
		AbsOutputFile:     validatePath(log, realFS, options.Outfile),
		EntryPath:         validatePath(log, realFS, options.EntryPoint),
	}
	if bundleOptions.EntryPath == "" {
		log.AddError(nil, logger.Loc{}, "Must provide an entry point")
	}
	bundleOptions.WriteToStdout = options.Write && bundleOptions.AbsOutputFile == ""

	// Stop now if there were errors
	if log.HasErrors() {
		msgs := log.Done()
		return BuildResult{
			Errors:   convertMessagesToPublic(logger.Error, msgs),
			Warnings: convertMessagesToPublic(logger.Warning, msgs),
		}, nil
	}

	bundle := bundler.NewBundle(log, realFS, state.caches, bundleOptions)
	var outputFiles []OutputFile
	if bundle.Build() {
		if contents, ok := bundle.Generate(); ok {
			outputFiles = []OutputFile{{
				Path:     bundleOptions.AbsOutputFile,
				Contents: []byte(contents),
			}}
			if options.Write {
				writeOutputFiles(log, realFS, outputFiles)
			}
		}
	}

	msgs := log.Done()
	return BuildResult{
		Errors:      convertMessagesToPublic(logger.Error, msgs),
		Warnings:    convertMessagesToPublic(logger.Warning, msgs),
		OutputFiles: outputFiles,
	}, bundle.Files()
}

// A file without a path goes to stdout
func writeOutputFiles(log logger.Log, realFS fs.FS, outputFiles []OutputFile) {
	for _, outputFile := range outputFiles {
		if outputFile.Path == "" {
			os.Stdout.Write(outputFile.Contents)
			continue
		}
		if err := os.MkdirAll(realFS.Dir(outputFile.Path), 0755); err != nil {
			log.AddError(nil, logger.Loc{}, fmt.Sprintf("Failed to create output directory: %s", err.Error()))
			continue
		}
		if err := os.WriteFile(outputFile.Path, outputFile.Contents, 0644); err != nil {
			log.AddError(nil, logger.Loc{}, fmt.Sprintf("Failed to write to output file: %s", err.Error()))
		}
	}
}

////////////////////////////////////////////////////////////////////////////////
// Watch API

func watchImpl(options BuildOptions, watchOptions WatchOptions) (BuildResult, WatchHandle) {
	state := newBuildState()
	result, files := buildImpl(options, state)

	rebuild := func() []string {
		result, files := buildImpl(options, state)
		if watchOptions.OnRebuild != nil {
			watchOptions.OnRebuild(result)
		}
		return files
	}

	shouldLog := options.LogLevel == LogLevelInfo
	useColor := validateColor(options.Color)

	// Prefer change notifications for the whole directory of the entry module
	// so that files which failed to load are noticed too
	if !watchOptions.Poll {
		if absPath, ok := state.fs.Abs(options.EntryPoint); ok {
			outputPath, _ := state.fs.Abs(options.Outfile)
			if options.Outfile == "" {
				outputPath = ""
			}
			if w, err := newNotifyWatcher(state.fs, state.fs.Dir(absPath), outputPath, rebuild, shouldLog, useColor); err == nil {
				w.start()
				return result, w
			}
		}
	}

	w := &pollWatcher{
		fs:        state.fs,
		rebuild:   rebuild,
		shouldLog: shouldLog,
		useColor:  useColor,
	}
	w.setWatchData(makeWatchData(state.fs, files))
	w.start()
	return result, w
}
