package domain

// Verdict is the outcome of a gate
type Verdict int

const (
	Pass Verdict = iota

	// Silent rejects
	RejectOrigin
	RejectFanOut
	RejectCooldown

	// Soft rejects, answered with an explanation
	RejectEmptyQuestion
	RejectContainsLink
	RejectOverLimit
)

var verdictNames = map[Verdict]string{
	Pass:                "pass",
	RejectOrigin:        "origin_not_allowed",
	RejectFanOut:        "fan_out",
	RejectCooldown:      "cooldown",
	RejectEmptyQuestion: "empty_question",
	RejectContainsLink:  "contains_link",
	RejectOverLimit:     "over_limit",
}

func (v Verdict) String() string {
	if s, ok := verdictNames[v]; ok {
		return s
	}
	return "unknown"
}

// Silent reports whether the verdict drops the mention without a reply
func (v Verdict) Silent() bool {
	return v == RejectOrigin || v == RejectFanOut || v == RejectCooldown
}

// Soft reports whether the verdict is answered with an explanatory reply
func (v Verdict) Soft() bool {
	return v == RejectEmptyQuestion || v == RejectContainsLink || v == RejectOverLimit
}
