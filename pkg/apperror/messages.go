package apperror

var userMessages = map[Kind]string{
	KindNetwork:     "Unable to connect to the service. Please check your internet connection and try again.",
	KindForbidden:   "Access blocked! Please check your permissions and try again.",
	KindNotFound:    "The requested resource was not found. Please check your project configuration.",
	KindRateLimited: "Too many requests. Please wait a moment and try again.",
	KindServer:      "Server temporarily unavailable. Please try again in a few moments.",
	KindFile:        "Failed to process the file. Please check the file format and size, then try again.",
	KindSession:     "Unable to process your request. Please try again.",
	KindCredential:  "Setup hiccup! Please check your configuration and try again.",
	KindTimeout:     "Request timed out. Please check your connection and try again.",
	KindValidation:  "Invalid input provided. Please check your data and try again.",
	KindQuota:       "Storage limit reached. Please free up space or upgrade your plan.",
	KindUnknown:     "Something went wrong. Please try again, or contact support if the issue persists.",
}

// UserMessage maps any error to exactly one fixed user-facing sentence.
func UserMessage(err error) string {
	return MessageFor(KindOf(err))
}

func MessageFor(kind Kind) string {
	if msg, ok := userMessages[kind]; ok {
		return msg
	}
	return userMessages[KindUnknown]
}

// Slot names the store whose error field receives a routed error.
type Slot string

const (
	SlotNone     Slot = ""
	SlotAuth     Slot = "auth"
	SlotSessions Slot = "sessions"
	SlotLibrary  Slot = "library"
)

func SlotFor(kind Kind) Slot {
	switch kind {
	case KindCredential, KindForbidden:
		return SlotAuth
	case KindSession:
		return SlotSessions
	case KindFile:
		return SlotLibrary
	}
	return SlotNone
}

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

func SeverityFor(kind Kind) Severity {
	switch kind {
	case KindForbidden, KindCredential:
		return SeverityHigh
	case KindServer, KindNetwork, KindTimeout:
		return SeverityMedium
	}
	return SeverityLow
}
