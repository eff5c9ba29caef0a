package login

// State is the position of a form in the submission state machine:
//
//	Idle -> Validating -> Submitting -> {Success, Failure} -> Idle
//
// Validating falls straight back to Idle when a field is rejected.
type State int

const (
	Idle State = iota
	Validating
	Submitting
	Success
	Failure
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Submitting:
		return "submitting"
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "unknown"
	}
}

// NoticeKind distinguishes success toasts from error toasts.
type NoticeKind int

const (
	NoticeSuccess NoticeKind = iota + 1
	NoticeError
)

func (k NoticeKind) String() string {
	if k == NoticeSuccess {
		return "success"
	}
	return "error"
}

// Notice is a transient, user visible notification.
type Notice struct {
	Kind    NoticeKind
	Message string
}
