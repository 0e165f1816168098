package main

import (
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/minroll/minroll/internal/logger"
)

func createCpuprofileFile(osArgs []string, cpuprofileFile string) func() {
	f, err := os.Create(cpuprofileFile)
	if err != nil {
		logger.PrintErrorToStderr(osArgs, fmt.Sprintf(
			"Failed to create cpuprofile file: %s", err.Error()))
		return nil
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		logger.PrintErrorToStderr(osArgs, fmt.Sprintf(
			"Failed to start CPU profile: %s", err.Error()))
		f.Close()
		return nil
	}
	return func() {
		pprof.StopCPUProfile()
		f.Close()
	}
}
