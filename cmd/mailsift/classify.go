package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mailsift/mailsift/internal/approval"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <message-id>",
		Short: "Classify a single message without review or side effects",
		Long: `Fetches one message by its Gmail id and prints the spam verdict the
current ruleset produces. Nothing is labeled, reviewed, or recorded.`,
		Args: cobra.ExactArgs(1),
		RunE: runClassify,
	}

	cmd.Flags().String("rules", "", "path to the ruleset file")
	_ = viper.BindPFlag("rules.path", cmd.Flags().Lookup("rules"))

	return cmd
}

func runClassify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	orch, _, cleanup, err := buildOrchestrator(ctx, nil)
	if err != nil {
		return err
	}
	defer cleanup()

	email, verdict, err := orch.ClassifyOne(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Println(approval.TitleStyle.Render(email.Envelope.Subject))
	fmt.Printf("From: %s\n", email.Envelope.From)

	if verdict.IsSpam {
		fmt.Println(approval.ErrorStyle.Render("Verdict: SPAM"))
	} else {
		fmt.Println(approval.SuccessStyle.Render("Verdict: not spam"))
	}
	if verdict.HighConfidence {
		fmt.Println(approval.SubtleStyle.Render("high confidence"))
	}
	if len(verdict.MatchedRules) > 0 {
		fmt.Printf("Matched rules:\n  - %s\n", strings.Join(verdict.MatchedRules, "\n  - "))
	}
	if len(verdict.SpammyQualities) > 0 {
		fmt.Printf("Spammy qualities:\n  - %s\n", strings.Join(verdict.SpammyQualities, "\n  - "))
	}
	return nil
}
