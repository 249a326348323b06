package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Fetch a single entity and print it as JSON",
	Long:  "Fetch a single entity and print it as JSON",
}

var getAuthorCmd = &cobra.Command{
	Use:   "author <id>",
	Short: "Fetch one author by source id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid author id: %v", args[0])
		}
		service, err := buildService()
		if err != nil {
			return fmt.Errorf("failed to build service: %w", err)
		}
		author, err := service.GetAuthor(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to get author: %w", err)
		}
		return printJSON(author)
	},
}

var getWorkCmd = &cobra.Command{
	Use:   "work <id>",
	Short: "Fetch one work (or single edition) by source id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid work id: %v", args[0])
		}
		service, err := buildService()
		if err != nil {
			return fmt.Errorf("failed to build service: %w", err)
		}
		work, err := service.GetWork(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to get work: %w", err)
		}
		return printJSON(work)
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the source site",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, err := buildService()
		if err != nil {
			return fmt.Errorf("failed to build service: %w", err)
		}
		results, err := service.Search(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		return printJSON(results)
	},
}

func init() {
	getCmd.AddCommand(getAuthorCmd)
	getCmd.AddCommand(getWorkCmd)
	RootCmd.AddCommand(getCmd)
	RootCmd.AddCommand(searchCmd)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
