// Package app assembles the forestryctl cli.App from each subsystem's
// NewCommands(), gathering the trie and serve commands into one binary.
package app

import (
	"fmt"
	"os"
	"runtime"

	"github.com/urfave/cli"

	"github.com/go-forestry/mpf/cli/serve"
	"github.com/go-forestry/mpf/cli/trie"
)

// Version is the forestryctl release version, overridable at build time
// with -ldflags "-X .../cli/app.Version=...".
var Version = "dev"

func versionPrinter(c *cli.Context) {
	_, _ = fmt.Fprintf(c.App.Writer, "forestryctl\nVersion: %s\nGoVersion: %s\n", Version, runtime.Version())
}

// New creates a forestryctl instance of cli.App with all commands included.
func New() *cli.App {
	cli.VersionPrinter = versionPrinter
	ctl := cli.NewApp()
	ctl.Name = "forestryctl"
	ctl.Version = Version
	ctl.Usage = "Build, query and serve a Merkle Patricia Forestry trie"
	ctl.ErrWriter = os.Stdout

	ctl.Commands = append(ctl.Commands, trie.NewCommands()...)
	ctl.Commands = append(ctl.Commands, serve.NewCommands()...)
	return ctl
}
