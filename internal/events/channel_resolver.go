package events

// ChannelResolver determines which Redis channels to publish to
type ChannelResolver interface {
	ResolveChannels(env Envelope) []string
}

// ScopedChannelResolver routes feed events to their project channel and
// per-recipient events to the recipient's user channel.
type ScopedChannelResolver struct{}

func NewScopedChannelResolver() *ScopedChannelResolver {
	return &ScopedChannelResolver{}
}

func (r *ScopedChannelResolver) ResolveChannels(env Envelope) []string {
	var channels []string
	if env.RecipientID != nil {
		channels = append(channels, ChannelPrefixUser+env.RecipientID.String())
		return channels
	}
	if env.ProjectID != nil {
		channels = append(channels, ChannelPrefixProject+env.ProjectID.String())
	}
	return channels
}
