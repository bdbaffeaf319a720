package checkin

import "fmt"

type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeInfo    NoticeKind = "info"
	NoticeError   NoticeKind = "error"
)

// Notice is the user-facing message for a check-in attempt.
type Notice struct {
	Kind    NoticeKind   `json:"kind"`
	Title   string       `json:"title"`
	Message string       `json:"message"`
	Outcome string       `json:"outcome,omitempty"`
	Entry   *RosterEntry `json:"registration,omitempty"`
}

func (r Result) Notice() Notice {
	n := Notice{Outcome: r.Outcome.String(), Entry: r.Entry}
	switch r.Outcome {
	case OutcomeSuccess:
		n.Kind, n.Title = NoticeSuccess, "Attendance Recorded"
		n.Message = fmt.Sprintf("%s marked as attended!", r.Entry.DisplayName())
	case OutcomeAlreadyAttended:
		n.Kind, n.Title = NoticeInfo, "Already Attended"
		n.Message = fmt.Sprintf("%s has already been marked as attended.", r.Entry.DisplayName())
	case OutcomeNotFound:
		n.Kind, n.Title = NoticeError, "Scan Error"
		n.Message = "User not registered for this event."
	case OutcomeRejected:
		n.Kind, n.Title = NoticeError, "Invalid Pass"
		n.Message = "This code is not a ClubHive entry pass."
	default:
		n.Kind, n.Title = NoticeError, "Update Error"
		n.Message = "Failed to mark attendance."
		if r.Err != nil {
			n.Message = fmt.Sprintf("Failed to mark attendance: %v", r.Err)
		}
	}
	return n
}
