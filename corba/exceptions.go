package corba

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ifabos/go-cspi/giop"
)

// CompletionStatus indicates the status of an operation that raised an exception
type CompletionStatus uint32

const (
	// CompletionStatusYes indicates the operation was completed
	CompletionStatusYes CompletionStatus = 0
	// CompletionStatusNo indicates the operation was not completed
	CompletionStatusNo CompletionStatus = 1
	// CompletionStatusMaybe indicates the operation completion status is unknown
	CompletionStatusMaybe CompletionStatus = 2
)

func (c CompletionStatus) String() string {
	switch c {
	case CompletionStatusYes:
		return "COMPLETED_YES"
	case CompletionStatusNo:
		return "COMPLETED_NO"
	case CompletionStatusMaybe:
		return "COMPLETED_MAYBE"
	default:
		return fmt.Sprintf("COMPLETED(%d)", uint32(c))
	}
}

const systemExceptionPrefix = "IDL:omg.org/CORBA/"

// Exception is the base interface for all CORBA exceptions
type Exception interface {
	error
	ID() string                  // Repository ID of this exception
	Name() string                // Name of this exception
	Minor() uint32               // Minor code for the exception
	Completed() CompletionStatus // Completion status of the operation
}

// SystemException represents a CORBA system exception
type SystemException struct {
	exceptionName  string
	minorCode      uint32
	completedValue CompletionStatus
}

// UserException represents a user-defined exception. Body holds the CDR
// encoded members following the repository id.
type UserException struct {
	exceptionName string
	exceptionID   string
	Body          []byte
}

// NewCORBASystemException creates a new CORBA system exception
func NewCORBASystemException(name string, minor uint32, completed CompletionStatus) *SystemException {
	return &SystemException{
		exceptionName:  name,
		minorCode:      minor,
		completedValue: completed,
	}
}

// NewCORBAUserException creates a new user-defined exception
func NewCORBAUserException(name string, id string) *UserException {
	return &UserException{
		exceptionName: name,
		exceptionID:   id,
	}
}

func (e *SystemException) Error() string {
	return fmt.Sprintf("CORBA System Exception: %s (minor code: %d, completion status: %v)",
		e.exceptionName, e.minorCode, e.completedValue)
}

// ID returns the repository ID of this system exception
func (e *SystemException) ID() string {
	return systemExceptionPrefix + e.exceptionName + ":1.0"
}

// Name returns the name of this system exception
func (e *SystemException) Name() string {
	return e.exceptionName
}

// Minor returns the minor code of this system exception
func (e *SystemException) Minor() uint32 {
	return e.minorCode
}

// Completed returns the completion status of the operation that raised this exception
func (e *SystemException) Completed() CompletionStatus {
	return e.completedValue
}

// Is matches system exceptions by name so errors.Is(err, OBJECT_NOT_EXIST(0, ...)) works
func (e *SystemException) Is(target error) bool {
	t, ok := target.(*SystemException)
	return ok && t.exceptionName == e.exceptionName
}

func (e *UserException) Error() string {
	return fmt.Sprintf("CORBA User Exception: %s (ID: %s)", e.exceptionName, e.exceptionID)
}

// ID returns the repository ID of this user exception
func (e *UserException) ID() string {
	return e.exceptionID
}

// Name returns the name of this user exception
func (e *UserException) Name() string {
	return e.exceptionName
}

// Minor always returns 0 for user exceptions
func (e *UserException) Minor() uint32 {
	return 0
}

// Completed always returns CompletionStatusNo for user exceptions
func (e *UserException) Completed() CompletionStatus {
	return CompletionStatusNo
}

// System exceptions raised by this ORB
var (
	// UNKNOWN - The unknown exception
	UNKNOWN = func(minor uint32, completed CompletionStatus) *SystemException {
		return NewCORBASystemException("UNKNOWN", minor, completed)
	}

	// BAD_PARAM - An invalid parameter was passed
	BAD_PARAM = func(minor uint32, completed CompletionStatus) *SystemException {
		return NewCORBASystemException("BAD_PARAM", minor, completed)
	}

	// COMM_FAILURE - Communication failure
	COMM_FAILURE = func(minor uint32, completed CompletionStatus) *SystemException {
		return NewCORBASystemException("COMM_FAILURE", minor, completed)
	}

	// MARSHAL - Error marshalling parameter or result
	MARSHAL = func(minor uint32, completed CompletionStatus) *SystemException {
		return NewCORBASystemException("MARSHAL", minor, completed)
	}

	// NO_IMPLEMENT - Operation implementation unavailable
	NO_IMPLEMENT = func(minor uint32, completed CompletionStatus) *SystemException {
		return NewCORBASystemException("NO_IMPLEMENT", minor, completed)
	}

	// BAD_OPERATION - Invalid operation
	BAD_OPERATION = func(minor uint32, completed CompletionStatus) *SystemException {
		return NewCORBASystemException("BAD_OPERATION", minor, completed)
	}

	// OBJECT_NOT_EXIST - Non-existent object, delete reference
	OBJECT_NOT_EXIST = func(minor uint32, completed CompletionStatus) *SystemException {
		return NewCORBASystemException("OBJECT_NOT_EXIST", minor, completed)
	}

	// TIMEOUT - Operation timed out
	TIMEOUT = func(minor uint32, completed CompletionStatus) *SystemException {
		return NewCORBASystemException("TIMEOUT", minor, completed)
	}

	// INTERNAL - ORB internal error
	INTERNAL = func(minor uint32, completed CompletionStatus) *SystemException {
		return NewCORBASystemException("INTERNAL", minor, completed)
	}
)

// IsSystemException checks if an error is a CORBA system exception
func IsSystemException(err error) bool {
	var sysEx *SystemException
	return errors.As(err, &sysEx)
}

// IsUserException checks if an error is a CORBA user exception
func IsUserException(err error) bool {
	var userEx *UserException
	return errors.As(err, &userEx)
}

// IsException checks if an error is a CORBA exception (system or user)
func IsException(err error) bool {
	return IsSystemException(err) || IsUserException(err)
}

// GetExceptionFromError extracts a CORBA exception from an error chain
func GetExceptionFromError(err error) (Exception, bool) {
	var ex Exception
	if errors.As(err, &ex) {
		return ex, true
	}
	return nil, false
}

// MarshalException writes ex as a reply body: repository id followed by
// minor code and completion status for system exceptions, or the member
// body for user exceptions.
func MarshalException(m *giop.CDRMarshaller, ex Exception) (uint32, error) {
	switch e := ex.(type) {
	case *SystemException:
		m.WriteString(e.ID())
		m.WriteULong(e.Minor())
		m.WriteULong(uint32(e.Completed()))
		return giop.ReplyStatusSystemException, nil
	case *UserException:
		m.WriteString(e.ID())
		m.WriteRaw(e.Body)
		return giop.ReplyStatusUserException, nil
	default:
		return 0, fmt.Errorf("unsupported exception type: %T", ex)
	}
}

// UnmarshalException reads an exception body for the given reply status
func UnmarshalException(status uint32, u *giop.CDRUnmarshaller) (Exception, error) {
	id, err := u.ReadString()
	if err != nil {
		return nil, fmt.Errorf("failed to read exception id: %w", err)
	}

	switch status {
	case giop.ReplyStatusSystemException:
		minor, err := u.ReadULong()
		if err != nil {
			return nil, fmt.Errorf("failed to read minor code: %w", err)
		}
		completed, err := u.ReadULong()
		if err != nil {
			return nil, fmt.Errorf("failed to read completion status: %w", err)
		}
		name := strings.TrimSuffix(strings.TrimPrefix(id, systemExceptionPrefix), ":1.0")
		return NewCORBASystemException(name, minor, CompletionStatus(completed)), nil

	case giop.ReplyStatusUserException:
		name := id
		if parts := strings.Split(strings.TrimSuffix(id, ":1.0"), "/"); len(parts) > 0 {
			name = parts[len(parts)-1]
		}
		ex := NewCORBAUserException(name, id)
		if u.Remaining() > 0 {
			ex.Body, _ = u.ReadRaw(u.Remaining())
		}
		return ex, nil

	default:
		return nil, fmt.Errorf("reply status %d does not carry an exception", status)
	}
}

// ThrowableToException converts a Go error or panic value to a CORBA exception
func ThrowableToException(err interface{}) Exception {
	switch e := err.(type) {
	case nil:
		return nil
	case Exception:
		return e
	case error:
		if ex, ok := GetExceptionFromError(e); ok {
			return ex
		}
		return UNKNOWN(0, CompletionStatusMaybe)
	default:
		return UNKNOWN(1, CompletionStatusMaybe)
	}
}

// SafeInvoke runs fn and converts a returned error or a panic into an exception
func SafeInvoke(fn func() error) (ex Exception) {
	defer func() {
		if r := recover(); r != nil {
			ex = ThrowableToException(r)
		}
	}()

	return ThrowableToException(fn())
}
