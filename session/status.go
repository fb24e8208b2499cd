package session

import "babel.town/stt"

type Status int

const (
	StatusIdle Status = iota
	StatusRecording
	StatusStopped
	StatusStartError
	StatusUnsupported
	StatusNoSpeech
	StatusNetworkError
	StatusPermissionError
)

// Messages is the user-facing text for every status.
var Messages = map[Status]string{
	StatusIdle:            `Click "Start Recording" to begin`,
	StatusRecording:       "Recording in progress... Speak clearly",
	StatusStopped:         "Recording stopped. Your transcript is ready.",
	StatusStartError:      "Error starting recognition. Please try again.",
	StatusUnsupported:     "Speech recognition is not available on this server.",
	StatusNoSpeech:        "No speech detected. Please try again.",
	StatusNetworkError:    "Network error. Please check your internet connection.",
	StatusPermissionError: "Microphone permission denied. Please allow microphone access.",
}

var statusNames = map[Status]string{
	StatusIdle:            "idle",
	StatusRecording:       "recording",
	StatusStopped:         "stopped",
	StatusStartError:      "start-error",
	StatusUnsupported:     "unsupported",
	StatusNoSpeech:        "no-speech",
	StatusNetworkError:    "network-error",
	StatusPermissionError: "permission-error",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s Status) Message() string {
	return Messages[s]
}

// IsError reports whether s describes a failure.
func (s Status) IsError() bool {
	switch s {
	case StatusStartError, StatusUnsupported, StatusNetworkError, StatusPermissionError:
		return true
	}
	return false
}

// errorStatus maps a recognition error kind to the status shown for it.
func errorStatus(kind string) Status {
	switch kind {
	case stt.ErrorNetwork:
		return StatusNetworkError
	case stt.ErrorNotAllowed, "service-not-allowed":
		return StatusPermissionError
	default:
		return StatusStartError
	}
}
