package domain

// State names a step of a dialog. Each state that receives input has its own callback endpoint.
type State string

// Location flow.
const (
	StateEntryPrompt        State = "entry_prompt"
	StateIdentifierReceived State = "identifier_received"
	StateSelectionReceived  State = "selection_received"
	StateModeReceived       State = "mode_received"
	StateRepeatPrompt       State = "repeat_prompt"
)

// Message flow.
const (
	StatePasscodePrompt   State = "passcode_prompt"
	StatePasscodeReceived State = "passcode_received"
)

// Callback endpoints, relative to the configured base URL.
const (
	PathEntryPrompt        = "/location"
	PathIdentifierReceived = "/location/id_received"
	PathSelectionReceived  = "/location/selection"
	PathModeReceived       = "/location/mode"
	PathRepeatPrompt       = "/location/repeat"
	PathPasscodePrompt     = "/message"
	PathPasscodeReceived   = "/message/passcode"
)

// Path returns the callback endpoint that handles s.
func (s State) Path() string {
	switch s {
	case StateEntryPrompt:
		return PathEntryPrompt
	case StateIdentifierReceived:
		return PathIdentifierReceived
	case StateSelectionReceived:
		return PathSelectionReceived
	case StateModeReceived:
		return PathModeReceived
	case StateRepeatPrompt:
		return PathRepeatPrompt
	case StatePasscodePrompt:
		return PathPasscodePrompt
	case StatePasscodeReceived:
		return PathPasscodeReceived
	default:
		return ""
	}
}

// States lists every dialog state in flow order.
func States() []State {
	return []State{
		StateEntryPrompt,
		StateIdentifierReceived,
		StateSelectionReceived,
		StateModeReceived,
		StateRepeatPrompt,
		StatePasscodePrompt,
		StatePasscodeReceived,
	}
}

// StateForPath returns the state served at the callback endpoint path.
func StateForPath(path string) (State, bool) {
	for _, s := range States() {
		if s.Path() == path {
			return s, true
		}
	}
	return "", false
}
