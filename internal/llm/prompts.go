package llm

import (
	"fmt"
	"strings"

	"github.com/mailsift/mailsift/internal/model"
	"github.com/mailsift/mailsift/internal/rules"
)

const spamSystemPrompt = "You are an email spam classifier. You MUST respond with ONLY a valid JSON object with keys is_spam (bool), high_confidence (bool), spam_rules_matched (array of strings quoting the matched rules), and spammy_qualities (array of strings). Start your response directly with { and end with }."

const actionSystemPrompt = "You are an email triage assistant. Choose exactly one action for the email. You MUST respond with ONLY a valid JSON object with key category (one of read_today, read_later, notify_immediately, draft_reply). For notify_immediately include message (one sentence for the recipient). For draft_reply include summary (one sentence) and body (the drafted reply). Start your response directly with { and end with }."

const editSystemPrompt = "You are a ruleset editor. Given a spam ruleset, an email, and human feedback about a misclassification, propose the smallest edit that makes the ruleset agree with the human. You MUST respond with ONLY a valid JSON object with keys old_fragment (an exact substring of the current ruleset) and new_fragment (its replacement). Start your response directly with { and end with }."

func buildSpamPrompt(email *model.Email, ruleset string) string {
	var b strings.Builder
	b.WriteString("Classify the following email against this ruleset.\n\n")
	b.WriteString("Ruleset:\n")
	b.WriteString(ruleset)
	b.WriteString("\n\nEmail:\n")
	b.WriteString(email.Summary())
	b.WriteString("\n")
	b.WriteString(email.Content.Markdown)
	return b.String()
}

func buildActionPrompt(email *model.Email, ruleset string) string {
	var b strings.Builder
	b.WriteString("Choose the triage action for the following email, guided by this ruleset.\n\n")
	b.WriteString("Ruleset:\n")
	b.WriteString(ruleset)
	b.WriteString("\n\nEmail:\n")
	b.WriteString(email.Summary())
	b.WriteString("\n")
	b.WriteString(email.Content.Markdown)
	return b.String()
}

func buildEditPrompt(req rules.EditRequest) string {
	var b strings.Builder
	b.WriteString("Current ruleset:\n")
	b.WriteString(req.Ruleset)
	b.WriteString("\n\nEmail:\n")
	b.WriteString(req.Email.Summary())
	fmt.Fprintf(&b, "\nClassifier verdict: is_spam=%t, matched rules: %s\n",
		req.Verdict.IsSpam, strings.Join(req.Verdict.MatchedRules, "; "))
	b.WriteString("\nThe human reviewer disagreed with this verdict. Their feedback:\n")
	b.WriteString(req.Feedback)
	return b.String()
}
