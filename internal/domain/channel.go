package domain

// ChannelKey names a delivery mechanism.
type ChannelKey string

const (
	ChannelInApp ChannelKey = "IN_APP"
	ChannelEmail ChannelKey = "EMAIL"
	ChannelChat  ChannelKey = "CHAT"
	ChannelPush  ChannelKey = "PUSH"
)

// DefaultChannels is the channel set used when a caller requests none.
func DefaultChannels() []ChannelKey {
	return []ChannelKey{ChannelInApp, ChannelEmail}
}
