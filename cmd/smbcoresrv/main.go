// Command smbcoresrv is a standalone harness for exercising the smbcore
// filesystem core (open-file tables, search slots, the background file
// loader, and reaper-managed file expiry) without a wire protocol in
// front of it.
package main

import (
	"fmt"
	"os"

	"github.com/dittofs-core/smbcore/cmd/smbcoresrv/commands"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
