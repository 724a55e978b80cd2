package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mailsift/mailsift/internal/approval"
	"github.com/mailsift/mailsift/internal/dataset"
)

func runsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded pipeline runs",
		RunE:  runRuns,
	}

	cmd.Flags().String("datasets", "", "path to the dataset directory")
	_ = viper.BindPFlag("datasets.path", cmd.Flags().Lookup("datasets"))

	return cmd
}

func runRuns(cmd *cobra.Command, _ []string) error {
	recorder := dataset.NewRecorder(datasetsPath())

	runs, err := recorder.ListRuns(cmd.Context())
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println(approval.SubtleStyle.Render("No runs recorded yet."))
		return nil
	}

	for _, run := range runs {
		c := run.ClassificationSummary
		fmt.Println(approval.TitleStyle.Render(run.RunID))
		fmt.Printf("  %s · %d emails · rules %s · model %s\n",
			run.Timestamp, run.EmailCount,
			run.ProcessingContext.RulesVersion, run.ProcessingContext.ModelVersion)
		fmt.Println(approval.SubtleStyle.Render(fmt.Sprintf(
			"  spam %d · read_today %d · read_later %d · notify %d · draft %d",
			c.Spam, c.ReadToday, c.ReadLater, c.NotifyImmediately, c.DraftReply)))
	}
	return nil
}
