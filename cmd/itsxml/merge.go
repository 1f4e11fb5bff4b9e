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

var (
	mergeRuleFiles commandline.Strings
	mergePOPath    string
	mergeLang      string
	mergeDuplicate bool
	mergeOut       string
)

var mergeCmd = &cobra.Command{
	Use:   "merge [xml_file]",
	Short: "Merge a translated catalog back into an XML document",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runMerge(args[0]); err != nil {
			log.Fatal(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(mergeCmd)
	mergeCmd.Flags().Var(&mergeRuleFiles, "rules", "path to an ITS rule file (repeatable)")
	mergeCmd.Flags().StringVar(&mergePOPath, "po", "", "translated PO file (required)")
	mergeCmd.Flags().StringVar(&mergeLang, "lang", "", "target language code, e.g. es_ES (required)")
	mergeCmd.Flags().BoolVar(&mergeDuplicate, "duplicate", false, "duplicate translated nodes as siblings instead of replacing in place")
	mergeCmd.Flags().StringVarP(&mergeOut, "out", "o", "", "output XML path (default: stdout)")
	mergeCmd.MarkFlagRequired("po")
	mergeCmd.MarkFlagRequired("lang")
}

func runMerge(xmlPath string) error {
	cfg := its.DefaultConfig(its.WithStdLogger(log.New(os.Stderr, "itsxml: ", 0)))
	var diag []its.Diagnostic

	rs := its.NewRuleSet()
	for _, path := range mergeRuleFiles {
		if err := rs.LoadFile(cfg, path, &diag); err != nil {
			return fmt.Errorf("loading rules %s: %w", path, err)
		}
	}

	poFile, err := os.Open(mergePOPath)
	if err != nil {
		return err
	}
	cat, err := catalog.ReadPO(poFile)
	poFile.Close()
	if err != nil {
		return fmt.Errorf("reading %s: %w", mergePOPath, err)
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

	mode := its.ReplaceInPlace
	if mergeDuplicate {
		mode = its.DuplicateAsSibling
	}
	its.Merge(cfg, rs, root, mode, mergeLang, &diag, cat.Lookup)

	out := os.Stdout
	if mergeOut != "" {
		f, err := os.Create(mergeOut)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	_, err = out.Write(dom.Marshal(root))
	return err
}
