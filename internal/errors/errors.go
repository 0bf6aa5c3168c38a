package errors

import "fmt"

const (
	ErrNotFound          = "NOT_FOUND"
	ErrInvalidTransition = "INVALID_TRANSITION"
	ErrNoAmbulance       = "NO_AMBULANCE_AVAILABLE"
	ErrNoHospital        = "NO_HOSPITAL_AVAILABLE"
	ErrUnauthorized      = "UNAUTHORIZED"
	ErrForbidden         = "FORBIDDEN"
	ErrConflict          = "CONFLICT"
	ErrValidation        = "VALIDATION"
	ErrInternal          = "INTERNAL"
)

type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// --- Generic ---

func NewNotFound(entity, id string) *DomainError {
	return &DomainError{Code: ErrNotFound, Message: fmt.Sprintf("%s with id %s not found", entity, id)}
}

func NewInvalidTransition(from, to string) *DomainError {
	return &DomainError{Code: ErrInvalidTransition, Message: fmt.Sprintf("cannot transition from %s to %s", from, to)}
}

func NewUnauthorized(msg string) *DomainError {
	return &DomainError{Code: ErrUnauthorized, Message: msg}
}

func NewForbidden(msg string) *DomainError {
	return &DomainError{Code: ErrForbidden, Message: msg}
}

func NewConflict(msg string) *DomainError {
	return &DomainError{Code: ErrConflict, Message: msg}
}

func NewValidation(msg string) *DomainError {
	return &DomainError{Code: ErrValidation, Message: msg}
}

func NewInternal(msg string, err error) *DomainError {
	return &DomainError{Code: ErrInternal, Message: msg, Err: err}
}

// --- Dispatch ---

// NoAmbulanceAvailable is a domain outcome, not an I/O failure: the caller
// may retry after a delay.
func NoAmbulanceAvailable() *DomainError {
	return &DomainError{Code: ErrNoAmbulance, Message: "no available ambulances at the moment"}
}

// NoHospitalAvailable means no hospital with known coordinates exists;
// recoverable only by onboarding one.
func NoHospitalAvailable() *DomainError {
	return &DomainError{Code: ErrNoHospital, Message: "no hospitals with known coordinates"}
}

// --- Case ---

func CaseNotFound(id string) *DomainError {
	return NewNotFound("case", id)
}

func CaseClosed(id string) *DomainError {
	return &DomainError{Code: ErrInvalidTransition, Message: fmt.Sprintf("case %s is closed", id)}
}

func UnknownStatus(status string) *DomainError {
	return &DomainError{Code: ErrInvalidTransition, Message: fmt.Sprintf("unrecognized status %q", status)}
}

// --- Ambulance ---

func AmbulanceNotFound(id string) *DomainError {
	return NewNotFound("ambulance", id)
}

func AmbulanceNotAvailable(id string) *DomainError {
	return NewConflict(fmt.Sprintf("ambulance %s is not available", id))
}

// --- Hospital ---

func HospitalNotFound(id string) *DomainError {
	return NewNotFound("hospital", id)
}
