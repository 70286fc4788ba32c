// main is the entry point of the wim CLI.
package main

import (
	"fmt"
	"os"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/cmd"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/internal/iocache"
)

func main() {
	cmd.SetCacheManager(iocache.Manager)
	code := run()
	os.Exit(code)
}

// run executes the root command so that deferred cleanup happens before exit.
func run() int {
	defer iocache.CloseCaching()
	defer func() {
		if err := cmd.StopProfiling(); err != nil {
			_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		}
	}()

	if err := cmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
