package approval

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

const previewLength = 100

// CLIApprover collects the reviewer's judgment on the terminal.
type CLIApprover struct {
	reader *nonBlockingReader
	out    io.Writer
}

// NewCLIApprover creates a CLI approver reading from in and writing to out.
// Nil arguments default to stdin/stdout.
func NewCLIApprover(in io.Reader, out io.Writer) *CLIApprover {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &CLIApprover{
		reader: newNonBlockingReader(in),
		out:    out,
	}
}

// RequestApproval shows the email and the proposed verdict, then reads the
// reviewer's judgment. Accepting the verdict agrees with it; anything typed
// beyond a bare yes becomes disagreement feedback for the rule repair.
func (a *CLIApprover) RequestApproval(ctx context.Context, req Request) (Response, error) {
	fmt.Fprintln(a.out, RenderBox("Email under review", a.formatEmail(req)))
	fmt.Fprintln(a.out, a.formatVerdict(req))
	fmt.Fprintln(a.out, FormatPrompt("Agree with this verdict? [y]es / [n]o"))

	answer, err := a.reader.ReadLine(ctx)
	if err != nil {
		return Response{}, err
	}

	switch strings.ToLower(answer) {
	case "", "y", "yes":
		return Response{Agrees: true}, nil
	case "n", "no":
		fmt.Fprintln(a.out, FormatPrompt("Why is the verdict wrong?"))
		feedback, err := a.reader.ReadLine(ctx)
		if err != nil {
			return Response{}, err
		}
		return Response{Agrees: false, Feedback: feedback}, nil
	default:
		// Free text is treated as disagreement feedback directly.
		return Response{Agrees: false, Feedback: answer}, nil
	}
}

func (a *CLIApprover) formatEmail(req Request) string {
	// Truncate on a rune boundary so a multi-byte character is never split.
	preview := req.Email.Content.Markdown
	if runes := []rune(preview); len(runes) > previewLength {
		preview = string(runes[:previewLength]) + "..."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From:    %s\n", req.Email.Envelope.From)
	fmt.Fprintf(&b, "Subject: %s\n", req.Email.Envelope.Subject)
	b.WriteString(SubtleStyle.Render(preview))
	return b.String()
}

func (a *CLIApprover) formatVerdict(req Request) string {
	var b strings.Builder
	if req.Verdict.IsSpam {
		b.WriteString(ErrorStyle.Render("Verdict: SPAM"))
	} else {
		b.WriteString(SuccessStyle.Render("Verdict: not spam"))
	}
	if req.Verdict.HighConfidence {
		b.WriteString(SubtleStyle.Render(" (high confidence)"))
	}
	if len(req.Verdict.MatchedRules) > 0 {
		b.WriteString("\nMatched rules:\n")
		for _, rule := range req.Verdict.MatchedRules {
			fmt.Fprintf(&b, "  - %s\n", rule)
		}
	}
	return b.String()
}
