package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func dumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Dump raw message payloads as JSON",
		Long: `Fetches the newest inbox messages and prints their raw Gmail payloads
as a JSON array, useful for building test fixtures.`,
		RunE: runDump,
	}

	cmd.Flags().IntP("count", "n", 5, "number of messages to dump")

	return cmd
}

func runDump(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	count, _ := cmd.Flags().GetInt("count")

	client, err := initMail(ctx)
	if err != nil {
		return err
	}

	ids, err := client.ListMessageIDs(ctx, count)
	if err != nil {
		return err
	}

	messages := make([]any, 0, len(ids))
	for _, id := range ids {
		msg, err := client.FetchRaw(ctx, id)
		if err != nil {
			return fmt.Errorf("fetching %s: %w", id, err)
		}
		messages = append(messages, msg)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(messages)
}
