package line

// ProcessOutcome is the closed set of results a storage or fetch handler
// can report. Each value's description is used verbatim in replies and logs.
type ProcessOutcome string

const (
	AllOk                   ProcessOutcome = "all is well"
	UserNotFound            ProcessOutcome = "no user found in the authorized database"
	UserCreateError         ProcessOutcome = "creating user failed"
	DatabaseWriteError      ProcessOutcome = "writing in database failed"
	DatabaseReadError       ProcessOutcome = "reading from database failed"
	DatabaseUpdateError     ProcessOutcome = "updating database failed"
	DatabaseDeleteError     ProcessOutcome = "deleting from database failed"
	DatabaseConnectionError ProcessOutcome = "database connection failed"
)

// Description returns the fixed human-readable text for the outcome.
func (o ProcessOutcome) Description() string {
	return string(o)
}

// HandleStatus pairs a success flag with a ProcessOutcome. It is the
// atomic result unit any handler returns to the reporter.
type HandleStatus struct {
	Success bool
	Outcome ProcessOutcome
}

// OK is the all-good HandleStatus.
func OK() HandleStatus {
	return HandleStatus{Success: true, Outcome: AllOk}
}

// Failure builds a failed HandleStatus with the given outcome.
func Failure(outcome ProcessOutcome) HandleStatus {
	return HandleStatus{Success: false, Outcome: outcome}
}
