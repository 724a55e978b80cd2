package main

import (
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mailsift/mailsift/internal/approval"
	"github.com/mailsift/mailsift/internal/service"
)

func processCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Fetch and triage a batch of inbox messages",
		Long: `Fetches the newest inbox messages, classifies each against the spam
ruleset, asks you to review every verdict, routes non-spam mail into triage
labels, and records everything in the dataset.`,
		RunE: runProcess,
	}

	cmd.Flags().IntP("count", "n", 10, "maximum number of messages to process")
	cmd.Flags().String("rules", "", "path to the ruleset file")
	cmd.Flags().String("datasets", "", "path to the dataset directory")
	_ = viper.BindPFlag("rules.path", cmd.Flags().Lookup("rules"))
	_ = viper.BindPFlag("datasets.path", cmd.Flags().Lookup("datasets"))

	return cmd
}

func runProcess(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	count, _ := cmd.Flags().GetInt("count")

	var bar *progressbar.ProgressBar
	progress := func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("Processing inbox"),
				progressbar.OptionShowCount(),
			)
		}
		_ = bar.Set(done)
	}

	orch, _, cleanup, err := buildOrchestrator(ctx, progress)
	if err != nil {
		return err
	}
	defer cleanup()

	stats, err := orch.ProcessBatch(ctx, count)
	if bar != nil {
		_ = bar.Finish()
		fmt.Println()
	}
	printRunStats(stats)
	return err
}

func printRunStats(stats service.RunStats) {
	fmt.Println(approval.TitleStyle.Render("Run " + stats.RunID))
	fmt.Printf("  fetched:   %d\n", stats.Fetched)
	fmt.Printf("  processed: %d\n", stats.Processed)
	if stats.Failed > 0 {
		fmt.Println(approval.ErrorStyle.Render(fmt.Sprintf("  failed:    %d", stats.Failed)))
	}
	fmt.Printf("  duration:  %s\n", stats.Duration.Round(time.Millisecond))

	c := stats.ByCategory
	fmt.Println(approval.SubtleStyle.Render(fmt.Sprintf(
		"  spam %d · read_today %d · read_later %d · notify %d · draft %d",
		c.Spam, c.ReadToday, c.ReadLater, c.NotifyImmediately, c.DraftReply)))
}
