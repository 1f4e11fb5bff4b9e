// Command itsxml extracts translatable text from an XML document
// under a set of ITS rules, and merges translations back in.
package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "itsxml",
	Short: "Extract and merge translations in ITS-annotated XML documents",
}

func main() {
	log.SetFlags(0)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
