package domain

// TransportMode is the delivery path chosen once during initialization.
type TransportMode int32

const (
	Uninitialized TransportMode = iota
	Native
	HTTPFallback
)

func (m TransportMode) String() string {
	switch m {
	case Native:
		return "native"
	case HTTPFallback:
		return "http_fallback"
	default:
		return "uninitialized"
	}
}
