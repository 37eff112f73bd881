package domain

// Channel identifies the origin and delivery transport for a message.
type Channel string

const (
	ChannelChat      Channel = "CHAT"
	ChannelThreads   Channel = "THREADS"
	ChannelMessenger Channel = "MESSENGER"
	ChannelWebhook   Channel = "WEBHOOK"
)

// KnownChannel reports whether the channel is one the service understands.
func KnownChannel(c Channel) bool {
	switch c {
	case ChannelChat, ChannelThreads, ChannelMessenger, ChannelWebhook:
		return true
	}
	return false
}

// ChannelIdentity maps a reporter to an addressable recipient on a channel.
type ChannelIdentity struct {
	ID         string
	ReporterID string
	Channel    Channel
	Address    string
}
