package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/arthur-debert/bulge/cmd/bulge"
	"github.com/arthur-debert/bulge/pkg/ui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := bulge.NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		ui.NewRenderer(os.Stderr, ui.FormatText).RenderError(err)
		stop()
		os.Exit(1)
	}
}
