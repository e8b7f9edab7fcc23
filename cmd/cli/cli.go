// Package cli wires the conversation orchestrator into a command-line
// surface.
package cli

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/jessevdk/go-flags"
)

// Run parses args and dispatches to the selected sub-command.
func Run(args []string) {
	setConfigPath(configPathArg(args))

	var first string
	if len(args) > 0 {
		first = args[0]
	}
	opts := &Options{}
	opts.Init(first)

	parser := flags.NewParser(opts, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := parser.ParseArgs(args); err != nil {
		log.Fatalf("%v", err)
	}
	if opts.Version {
		fmt.Println(Version())
		os.Exit(0)
	}
}

// configPathArg pre-scans the raw arguments for -f/--config; the shared
// runtime needs the config location before any sub-command Execute runs.
func configPathArg(args []string) string {
	for i, arg := range args {
		if arg == "-f" || arg == "--config" {
			if i+1 < len(args) {
				return args[i+1]
			}
			continue
		}
		if value, ok := strings.CutPrefix(arg, "--config="); ok {
			return value
		}
	}
	return ""
}
