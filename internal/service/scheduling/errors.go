package scheduling

// Reason identifies which validation step rejected a scheduling request.
type Reason string

const (
	ReasonInvalidDate  Reason = "invalid_date"
	ReasonPastDate     Reason = "past_date"
	ReasonSlotConflict Reason = "slot_conflict"
	ReasonInvalidState Reason = "invalid_state"
)

// ValidationError is a caller-correctable rejection. Callers match on the
// sentinel values below with errors.Is; validation failures are values,
// never panics.
type ValidationError struct {
	Reason  Reason
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var (
	ErrInvalidDate  = &ValidationError{Reason: ReasonInvalidDate, Message: "date_hour is not a valid instant"}
	ErrPastDate     = &ValidationError{Reason: ReasonPastDate, Message: "appointment cannot be scheduled in the past"}
	ErrSlotConflict = &ValidationError{Reason: ReasonSlotConflict, Message: "slot conflicts with an existing booking"}
	ErrInvalidState = &ValidationError{Reason: ReasonInvalidState, Message: "appointment is in a terminal state"}
)
