// Command wavecollapse fills a grid with tiles derived from a source image or
// a folder of tiles.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd(os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "wavecollapse:", err)
		os.Exit(1)
	}
}
