package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra/doc"

	"github.com/arthur-debert/bulge/cmd/bulge"
	"github.com/arthur-debert/bulge/internal/version"
)

func main() {
	rootCmd := bulge.NewRootCmd()

	header := &doc.GenManHeader{
		Title:   "BULGE",
		Section: "8",
		Source:  "bulge " + version.Version,
		Manual:  "bulge manual",
	}

	if err := doc.GenMan(rootCmd, header, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating man page: %v\n", err)
		os.Exit(1)
	}
}
