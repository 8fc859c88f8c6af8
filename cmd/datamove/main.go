// Command datamove inserts host/accelerator transfer nodes into operation
// graphs.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/roach88/datamove/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(cli.GetExitCode(err))
}
