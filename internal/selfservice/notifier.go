package selfservice

// Level classifies a notification for display.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notifier is the flow's channel to the user: toast-style messages and
// yes/no confirmations. Injected by the embedding UI, never a singleton.
type Notifier interface {
	Notify(level Level, message string)
	Confirm(message string) bool
}

// NopNotifier drops messages and answers yes to every confirmation.
type NopNotifier struct{}

func (NopNotifier) Notify(Level, string) {}

func (NopNotifier) Confirm(string) bool { return true }
