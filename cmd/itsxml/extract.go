package main

import (
	"fmt"
	"log"
	"os"

	"github.com/CognitoIQ/go-its/dom"
	"github.com/CognitoIQ/go-its/internal/catalog"
	"github.com/CognitoIQ/go-its/internal/commandline"
	"github.com/CognitoIQ/go-its/its"
	"github.com/spf13/cobra"
)

var extractRuleFiles commandline.Strings
var extractOut string

var extractCmd = &cobra.Command{
	Use:   "extract [xml_file]",
	Short: "Extract translatable strings into a POT template",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runExtract(args[0]); err != nil {
			log.Fatal(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().Var(&extractRuleFiles, "rules", "path to an ITS rule file (repeatable)")
	extractCmd.Flags().StringVarP(&extractOut, "out", "o", "", "output POT path (default: stdout)")
}

func runExtract(xmlPath string) error {
	cfg := its.DefaultConfig(its.WithStdLogger(log.New(os.Stderr, "itsxml: ", 0)))
	var diag []its.Diagnostic

	rs := its.NewRuleSet()
	for _, path := range extractRuleFiles {
		if err := rs.LoadFile(cfg, path, &diag); err != nil {
			return fmt.Errorf("loading rules %s: %w", path, err)
		}
	}

	data, err := os.ReadFile(xmlPath)
	if err != nil {
		return err
	}
	root, err := dom.Parse(data)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", xmlPath, err)
	}
	rs.Apply(cfg, root, &diag)

	cat := catalog.New()
	its.Extract(cfg, rs, root, xmlPath, &diag, cat.Emit)

	w := os.Stdout
	if extractOut != "" {
		f, err := os.Create(extractOut)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return cat.WritePOT(w)
}
