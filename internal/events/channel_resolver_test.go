package events

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestResolveChannels_ProjectScoped(t *testing.T) {
	projectID := uuid.New()
	env := Envelope{EventType: EventThreadCreated, ProjectID: &projectID}

	channels := NewScopedChannelResolver().ResolveChannels(env)

	assert.Equal(t, []string{ChannelPrefixProject + projectID.String()}, channels)
}

func TestResolveChannels_RecipientWinsOverProject(t *testing.T) {
	projectID := uuid.New()
	recipientID := uuid.New()
	env := Envelope{
		EventType:   EventNotificationNew,
		ProjectID:   &projectID,
		RecipientID: &recipientID,
	}

	channels := NewScopedChannelResolver().ResolveChannels(env)

	assert.Equal(t, []string{ChannelPrefixUser + recipientID.String()}, channels)
}

func TestResolveChannels_Unroutable(t *testing.T) {
	assert.Empty(t, NewScopedChannelResolver().ResolveChannels(Envelope{EventType: EventThreadCreated}))
}
