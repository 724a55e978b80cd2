package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mailsift/mailsift/internal/approval"
	"github.com/mailsift/mailsift/internal/dataset"
)

func driftCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drift",
		Short: "Show messages whose classification changed across runs",
		Long: `Scans the dataset for messages processed in more than one run and prints
those whose spam verdict or final category differs between runs. Drift points
at ruleset or model changes worth investigating.`,
		RunE: runDrift,
	}

	cmd.Flags().String("datasets", "", "path to the dataset directory")
	_ = viper.BindPFlag("datasets.path", cmd.Flags().Lookup("datasets"))

	return cmd
}

func runDrift(cmd *cobra.Command, _ []string) error {
	recorder := dataset.NewRecorder(datasetsPath())

	drifts, err := recorder.FindDrift(cmd.Context())
	if err != nil {
		return err
	}
	if len(drifts) == 0 {
		fmt.Println(approval.SuccessStyle.Render("No classification drift found."))
		return nil
	}

	for _, d := range drifts {
		fmt.Println(approval.TitleStyle.Render(d.Subject))
		fmt.Println(approval.SubtleStyle.Render("  " + d.MessageID))
		for _, o := range d.Outcomes {
			verdict := "ham"
			if o.IsSpam {
				verdict = "spam"
			}
			fmt.Printf("  %s  %-20s %-5s rules=%s model=%s\n",
				o.RunID, o.Category, verdict, o.RulesVersion, o.ModelVersion)
		}
		fmt.Println()
	}
	return nil
}
