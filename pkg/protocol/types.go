package protocol

// Kind discriminates frame content on the shared medium.
type Kind uint8

const (
	// KindData marks a frame carrying sender payload.
	KindData Kind = 0x01
	// KindNoise marks the collision signal broadcast by the channel.
	// A noise frame carries no payload and the zero station id.
	KindNoise Kind = 0xFF
)

func (k Kind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindNoise:
		return "noise"
	default:
		return "unknown"
	}
}
