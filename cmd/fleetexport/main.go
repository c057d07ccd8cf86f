package main

import (
	"log/slog"
	"os"

	"github.com/aryankumar/fleetexport/internal/cli"
	"github.com/aryankumar/fleetexport/internal/util"
)

func main() {
	// Interrupting cancels the context, which force-stops a running export
	ctx := util.SetupSignalHandler()

	if err := cli.Execute(ctx); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
