package annotate

// AlertAction is what to do with the failure alert comment.
type AlertAction int

const (
	// AlertNone leaves the alert comment alone.
	AlertNone AlertAction = iota
	// AlertCreate posts a new alert comment.
	AlertCreate
	// AlertRecreate deletes the existing alert and posts a new one so it
	// stays the latest item in the thread.
	AlertRecreate
)

func (a AlertAction) String() string {
	switch a {
	case AlertCreate:
		return "create"
	case AlertRecreate:
		return "recreate"
	default:
		return "none"
	}
}

// DecideAlertAction picks the alert action for a run. Green runs never
// post an alert; removing a stale one is the caller's policy.
func DecideAlertAction(hasFailures, alertExists bool) AlertAction {
	switch {
	case !hasFailures:
		return AlertNone
	case alertExists:
		return AlertRecreate
	default:
		return AlertCreate
	}
}
