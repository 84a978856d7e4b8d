package cmd

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

// https://pmarsceill.github.io/just-the-docs/docs/navigation-structure/
const rootDoc = `---
layout: default
title: %s
nav_order: %d
has_children: true
permalink: /
---
`

// child command without children
const childDoc = `---
layout: default
title: %s
parent: %s
nav_order: %d
---
`

var docsDir string

// docsCmd writes Markdown documentation for every command
var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Write Markdown documentation for mhcseq's commands",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.MkdirAll(docsDir, 0755); err != nil {
			return err
		}
		return doc.GenMarkdownTreeCustom(rootCmd, docsDir, filePrepender, linkHandler)
	},
}

func init() {
	rootCmd.AddCommand(docsCmd)

	docsCmd.Flags().StringVar(&docsDir, "dir", "docs", "directory to write the docs to")
}

// filePrepender adds YAML headings that are required by the just-the-docs theme
// https://github.com/spf13/cobra/blob/master/doc/md_docs.md
func filePrepender(filename string) string {
	base := docName(filename)
	if base == rootCmd.Name() {
		return fmt.Sprintf(rootDoc, base, 0)
	}

	name := strings.TrimPrefix(base, rootCmd.Name()+"_")
	order := 0
	for i, c := range rootCmd.Commands() {
		if c.Name() == name {
			order = i + 1
			break
		}
	}
	return fmt.Sprintf(childDoc, name, rootCmd.Name(), order)
}

// linkHandler returns the URL to a documentation page
func linkHandler(filename string) string {
	base := docName(filename)
	if base == rootCmd.Name() {
		return "/"
	}
	return base
}

// docName is the base name of a doc file without its extension, ex: mhcseq_derive
func docName(filename string) string {
	name := filepath.Base(filename)
	return strings.TrimSuffix(name, path.Ext(name))
}
