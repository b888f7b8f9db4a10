package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"
)

var queryArgs string

var queryCmd = &cobra.Command{
	Use:   "query <tool>",
	Short: "Call one tool and print its JSON result",
	Example: `  crypto-mcp query get_open_interest --args '{"symbol":"BTCUSDT"}'
  crypto-mcp query get_funding_rate_batch --args '{"symbols":["BTCUSDT","ETHUSDT"],"exchange":"bybit"}'`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&queryArgs, "args", "a", "{}", "tool arguments as a JSON object")
}

func runQuery(cmd *cobra.Command, args []string) error {
	var arguments map[string]any
	if err := json.Unmarshal([]byte(queryArgs), &arguments); err != nil {
		return fmt.Errorf("invalid --args: %w", err)
	}

	_, svcCtx, err := loadServiceContext()
	if err != nil {
		return err
	}

	name := args[0]
	for _, t := range svcCtx.Tools.Tools() {
		if t.Name() != name {
			continue
		}
		var req mcp.CallToolRequest
		req.Params.Name = name
		req.Params.Arguments = arguments
		res, err := t.Handler(cmd.Context(), req)
		if err != nil {
			return err
		}
		for _, c := range res.Content {
			if text, ok := c.(mcp.TextContent); ok {
				fmt.Fprintln(cmd.OutOrStdout(), text.Text)
			}
		}
		if res.IsError {
			return errors.New("tool returned an error")
		}
		return nil
	}
	return fmt.Errorf("unknown tool %q", name)
}
