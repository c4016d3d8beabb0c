package server

const (
	// Validation (1xxx)
	ErrCodeInvalidArgument  = 1000
	ErrCodeInvalidJSON      = 1001
	ErrCodeRequestTooLarge  = 1002
	ErrCodeInvalidQuery     = 1003
	ErrCodeInvalidID        = 1004
	ErrCodeInvalidStatus    = 1005
	ErrCodeInvalidDay       = 1006
	ErrCodeInvalidPeriod    = 1007
	ErrCodeInvalidSetting   = 1008
	ErrCodeMissingRequired  = 1009
	ErrCodeInvalidTimeRange = 1010
	ErrCodeInvalidURL       = 1011

	// Domain state (2xxx)
	ErrCodeTaskNotFound     = 2001
	ErrCodeSegmentNotFound  = 2002
	ErrCodeReminderNotFound = 2003
	ErrCodeConflict         = 2102

	// Internal/system (4xxx)
	ErrCodeInternal       = 4001
	ErrCodeStoreFailure   = 4002
	ErrCodeSettingsWrite  = 4003
	ErrCodeNotImplemented = 4005

	// Calendar (5xxx)
	ErrCodeCalendarDisabled    = 5001
	ErrCodeCalendarInvalid     = 5002
	ErrCodeCalendarUnavailable = 5003
	ErrCodeCalendarTimeout     = 5004
	ErrCodeCalendarNotFound    = 5005
	ErrCodeCalendarPermission  = 5006
	ErrCodeCalendarFailure     = 5007
)

func defaultErrorCodeByStatus(status int) int {
	switch status {
	case 400:
		return ErrCodeInvalidArgument
	case 404:
		return ErrCodeTaskNotFound
	case 409:
		return ErrCodeConflict
	case 500:
		return ErrCodeInternal
	case 501:
		return ErrCodeNotImplemented
	case 502:
		return ErrCodeCalendarFailure
	default:
		return 0
	}
}
