package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the MCP tools and their descriptions",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, svcCtx, err := loadServiceContext()
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, t := range svcCtx.Tools.Tools() {
			desc, _, _ := strings.Cut(t.Definition.Description, "\n")
			fmt.Fprintf(w, "%s\t%s\n", t.Name(), desc)
		}
		return w.Flush()
	},
}
