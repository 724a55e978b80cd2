package approval

import (
	"context"
	"fmt"
	"io"
	"os"
)

// CLINotifier delivers notify-immediately messages on the terminal. It is the
// default notification channel; anything that can print a line can replace it.
type CLINotifier struct {
	out io.Writer
}

// NewCLINotifier creates a notifier writing to out, defaulting to stdout.
func NewCLINotifier(out io.Writer) *CLINotifier {
	if out == nil {
		out = os.Stdout
	}
	return &CLINotifier{out: out}
}

// Notify prints the message prominently.
func (n *CLINotifier) Notify(_ context.Context, message string) error {
	fmt.Fprintln(n.out, RenderBox("Notification", WarningStyle.Render(message)))
	return nil
}

// CLIDraftReviewer shows a drafted reply on the terminal and collects the
// human's feedback on it.
type CLIDraftReviewer struct {
	reader *nonBlockingReader
	out    io.Writer
}

// NewCLIDraftReviewer creates a draft reviewer on the given streams,
// defaulting to stdin/stdout.
func NewCLIDraftReviewer(in io.Reader, out io.Writer) *CLIDraftReviewer {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &CLIDraftReviewer{
		reader: newNonBlockingReader(in),
		out:    out,
	}
}

// ReviewDraft presents the draft and waits for the human's reaction. The
// reaction is informational; sending the reply stays a human decision.
func (r *CLIDraftReviewer) ReviewDraft(ctx context.Context, summary, body string) error {
	content := SubtleStyle.Render(summary) + "\n\n" + body
	fmt.Fprintln(r.out, RenderBox("Drafted reply", content))
	fmt.Fprintln(r.out, FormatPrompt("Feedback on this draft (enter to skip)"))

	feedback, err := r.reader.ReadLine(ctx)
	if err != nil {
		return err
	}
	if feedback != "" {
		fmt.Fprintln(r.out, SuccessStyle.Render("Noted: "+feedback))
	}
	return nil
}
