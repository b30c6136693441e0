package websocket

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"chatter-server/internal/events"
	"chatter-server/internal/repository"
	chatter_errors "chatter-server/pkg/errors"
)

// ChannelAuthorizer gates channel subscriptions. Project channels
// require roster membership; a user channel belongs to its user alone.
type ChannelAuthorizer struct {
	roster repository.RosterRepository
}

func NewChannelAuthorizer(roster repository.RosterRepository) *ChannelAuthorizer {
	return &ChannelAuthorizer{roster: roster}
}

func (a *ChannelAuthorizer) CanSubscribe(ctx context.Context, userID uuid.UUID, channel string) (bool, error) {
	if strings.HasPrefix(channel, events.ChannelPrefixUser) {
		return channel == events.ChannelPrefixUser+userID.String(), nil
	}

	if strings.HasPrefix(channel, events.ChannelPrefixProject) {
		projectID, err := uuid.Parse(strings.TrimPrefix(channel, events.ChannelPrefixProject))
		if err != nil {
			return false, nil
		}
		_, err = a.roster.Get(ctx, projectID, userID)
		if err != nil {
			if errors.Is(err, chatter_errors.ErrNotFound) {
				return false, nil
			}
			return false, err
		}
		return true, nil
	}

	return false, nil
}
