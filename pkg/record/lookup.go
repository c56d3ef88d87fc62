package record

// Status classifies the outcome of a single whois lookup.
type Status int

const (
	// LookupFailedStatus covers transport errors and unusable responses.
	LookupFailedStatus Status = iota
	// RegisteredStatus means the registry returned an active registration.
	RegisteredStatus
	// UnregisteredStatus means the registry answered that no registration exists.
	UnregisteredStatus
)

func (s Status) String() string {
	switch s {
	case RegisteredStatus:
		return "Registered"
	case UnregisteredStatus:
		return "Not Registered"
	default:
		return "Lookup Failed"
	}
}

// LookupResult is the normalized answer of a lookup adapter. It is never
// persisted directly.
type LookupResult struct {
	Status Status

	// RawExpiration is set only for RegisteredStatus
	RawExpiration string

	// FailureDetail is set only for LookupFailedStatus
	FailureDetail string
}

// RegisteredResult returns a registered result carrying the raw expiration text.
func RegisteredResult(rawExpiration string) LookupResult {
	return LookupResult{Status: RegisteredStatus, RawExpiration: rawExpiration}
}

// UnregisteredResult returns an unregistered result.
func UnregisteredResult() LookupResult {
	return LookupResult{Status: UnregisteredStatus}
}

// FailedResult returns a failed result with the best available diagnostic.
func FailedResult(detail string) LookupResult {
	return LookupResult{Status: LookupFailedStatus, FailureDetail: detail}
}
