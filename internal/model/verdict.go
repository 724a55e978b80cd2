package model

// SpamVerdict is the spam classifier's structured output for one email.
// Produced once per email per run; never mutated, only superseded by the
// verdict of a later run.
type SpamVerdict struct {
	IsSpam          bool     `json:"is_spam"`
	HighConfidence  bool     `json:"high_confidence"`
	MatchedRules    []string `json:"spam_rules_matched"`
	SpammyQualities []string `json:"spammy_qualities"`
}

// ApprovalOutcome records how the human reviewer resolved a proposed verdict.
// UpdatedRuleset is set only when the reviewer rejected the verdict and the
// ruleset repair succeeded.
type ApprovalOutcome struct {
	Approved        bool   `json:"approved"`
	UpdatedRuleset  string `json:"updated_ruleset,omitempty"`
	ReviewerComment string `json:"feedback,omitempty"`
}

// RuleEdit is a fragment patch proposed by the rule-edit capability. The old
// fragment must locate verbatim in the current ruleset for the edit to apply.
type RuleEdit struct {
	OldFragment string `json:"old_fragment"`
	NewFragment string `json:"new_fragment"`
}
