package authz

// State is the externally asserted authorization decision.
//
// It is a single tri-state value, never a pair of flags, so the device can
// not be Authorized and Unauthorized at the same time.
type State int

const (
	// Unknown is the state from power-on until the first decision arrives.
	Unknown State = iota
	Authorized
	Unauthorized
)

// Payloads accepted on the status topic.
const (
	PayloadAuthorized   = "Authorized"
	PayloadUnauthorized = "Unauthorized"
)

func (s State) String() string {
	switch s {
	case Authorized:
		return "Authorized"
	case Unauthorized:
		return "Unauthorized"
	default:
		return "Unknown"
	}
}

// parsePayload maps a status payload to a State. ok is false for anything
// that is not an exact decision.
func parsePayload(payload string) (s State, ok bool) {
	switch payload {
	case PayloadAuthorized:
		return Authorized, true
	case PayloadUnauthorized:
		return Unauthorized, true
	default:
		return Unknown, false
	}
}
