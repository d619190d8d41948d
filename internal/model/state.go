package model

// ConnectionState is the tri-state link indicator shown to the user.
type ConnectionState int

const (
	Connecting ConnectionState = iota
	Connected
	Disconnected
)

func (s ConnectionState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// MediaState is the observable state of the media refresher.
// RetryCount grows by one on every transition into the error state.
type MediaState struct {
	IsLoading  bool
	HasError   bool
	RetryCount int
}
