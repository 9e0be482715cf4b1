package entities

import "time"

// PendingSubmission links a submitter's original message to the review card
// posted for it. SecondaryMessageID is an optional second review-chat message
// that resolves to the same entry.
type PendingSubmission struct {
	Origin             MessageRef
	SubmitterID        int64
	SubmitterName      string // attribution shown on the review card
	Review             MessageRef
	SecondaryMessageID *int
	CreatedAt          time.Time
	DecidedAt          *time.Time
}

func (p PendingSubmission) IsDecided() bool {
	return p.DecidedAt != nil
}

type UserStats struct {
	UserID   int64
	Offered  int64
	Accepted int64
	Declined int64
}

type Ban struct {
	UserID   int64
	UserName string
	BannedAt time.Time
}
