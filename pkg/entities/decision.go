package entities

import "strings"

// Decision is the action a reviewer picked on a review card.
type Decision string

const (
	// DecisionAccept publishes the submission to the channel
	DecisionAccept Decision = "accept"

	// DecisionAcceptNoCaption publishes the submission without its caption
	DecisionAcceptNoCaption Decision = "accept-without-caption"

	// DecisionDecline discards the submission and tells the submitter
	DecisionDecline Decision = "decline"

	// DecisionDeclineSilent discards the submission without a reply
	DecisionDeclineSilent Decision = "decline-silent"
)

// ParseDecision prefix-matches a button payload. Longer tags are checked first
// since "accept-without-caption" also starts with "accept".
func ParseDecision(data string) (Decision, bool) {
	for _, d := range []Decision{
		DecisionAcceptNoCaption,
		DecisionAccept,
		DecisionDeclineSilent,
		DecisionDecline,
	} {
		if strings.HasPrefix(data, string(d)) {
			return d, true
		}
	}

	return "", false
}

func (d Decision) IsAccept() bool {
	return d == DecisionAccept || d == DecisionAcceptNoCaption
}

func (d Decision) IsSilent() bool {
	return d == DecisionDeclineSilent
}

func (d Decision) KeepsCaption() bool {
	return d != DecisionAcceptNoCaption
}
