package bootstrap

// State is the bootstrap state machine position.
type State int

const (
	// Unpaired means no identity credentials are stored.
	Unpaired State = iota

	// PairedAwaitingLogin means identity credentials exist but no session
	// has been opened in this process.
	PairedAwaitingLogin

	// Authenticated means transport credentials are available.
	Authenticated

	// Degraded means bootstrap stopped short of Authenticated.
	Degraded
)

func (s State) String() string {
	switch s {
	case Unpaired:
		return "unpaired"
	case PairedAwaitingLogin:
		return "paired_awaiting_login"
	case Authenticated:
		return "authenticated"
	case Degraded:
		return "degraded"
	default:
		return "unknown"
	}
}
