package session

// State is a step of the driver's lifecycle.
type State int

const (
	StateIdle State = iota
	StateLaunching
	StateAuthenticating
	StateNavigating
	StateExtractingCredential
	StateResolvingManifest
	StateDispatching
	StateClosingSession
	StateDone
)

var stateNames = [...]string{
	StateIdle:                 "Idle",
	StateLaunching:            "Launching",
	StateAuthenticating:       "Authenticating",
	StateNavigating:           "Navigating",
	StateExtractingCredential: "ExtractingCredential",
	StateResolvingManifest:    "ResolvingManifest",
	StateDispatching:          "Dispatching",
	StateClosingSession:       "ClosingSession",
	StateDone:                 "Done",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}
