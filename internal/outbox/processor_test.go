package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainoutbox "chatter-server/internal/domain/outbox"
	"chatter-server/internal/events"
	"chatter-server/pkg/logger"
)

type fakeOutboxRepo struct {
	mu     sync.Mutex
	events []domainoutbox.Event
}

func (r *fakeOutboxRepo) Create(ctx context.Context, e *domainoutbox.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *e)
	return nil
}

func (r *fakeOutboxRepo) GetPending(ctx context.Context, limit int) ([]domainoutbox.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domainoutbox.Event
	for _, e := range r.events {
		if e.Status == domainoutbox.StatusPending {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeOutboxRepo) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.events {
		if r.events[i].ID == id {
			r.events[i].Status = domainoutbox.StatusCompleted
		}
	}
	return nil
}

func (r *fakeOutboxRepo) MarkFailed(ctx context.Context, id uuid.UUID, errorMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.events {
		if r.events[i].ID == id {
			r.events[i].Error = errorMsg
			r.events[i].RetryCount++
		}
	}
	return nil
}

type capturingPublisher struct {
	mu        sync.Mutex
	published []publishedMessage
	failUntil int
}

type publishedMessage struct {
	channel string
	payload []byte
}

func (p *capturingPublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failUntil > 0 {
		p.failUntil--
		return errors.New("redis down")
	}
	p.published = append(p.published, publishedMessage{channel: channel, payload: payload})
	return nil
}

func pendingEvent(projectID uuid.UUID) domainoutbox.Event {
	return domainoutbox.Event{
		ID:            uuid.New(),
		EventType:     events.EventThreadCreated,
		AggregateType: events.AggregateMessage,
		AggregateID:   uuid.New().String(),
		ProjectID:     &projectID,
		Payload:       []byte(`{"hello":"world"}`),
		Status:        domainoutbox.StatusPending,
		CreatedAt:     time.Now(),
	}
}

func TestProcessBatch_PublishesToProjectChannelAndCompletes(t *testing.T) {
	repo := &fakeOutboxRepo{}
	pub := &capturingPublisher{}
	projectID := uuid.New()
	e := pendingEvent(projectID)
	require.NoError(t, repo.Create(context.Background(), &e))

	p := DefaultProcessor(repo, pub, logger.New(logger.DevelopmentMode))
	p.processBatch(context.Background())

	require.Len(t, pub.published, 1)
	assert.Equal(t, events.ChannelPrefixProject+projectID.String(), pub.published[0].channel)

	var env events.Envelope
	require.NoError(t, json.Unmarshal(pub.published[0].payload, &env))
	assert.Equal(t, events.EventThreadCreated, env.EventType)
	assert.JSONEq(t, `{"hello":"world"}`, string(env.Payload))

	assert.Equal(t, domainoutbox.StatusCompleted, repo.events[0].Status)
}

func TestProcessBatch_RecipientEventsUseUserChannel(t *testing.T) {
	repo := &fakeOutboxRepo{}
	pub := &capturingPublisher{}
	projectID := uuid.New()
	recipientID := uuid.New()
	e := pendingEvent(projectID)
	e.EventType = events.EventNotificationNew
	e.AggregateType = events.AggregateNotification
	e.RecipientID = &recipientID
	require.NoError(t, repo.Create(context.Background(), &e))

	p := DefaultProcessor(repo, pub, logger.New(logger.DevelopmentMode))
	p.processBatch(context.Background())

	require.Len(t, pub.published, 1)
	assert.Equal(t, events.ChannelPrefixUser+recipientID.String(), pub.published[0].channel)
}

func TestProcessBatch_FailedPublishRetriesNextTick(t *testing.T) {
	repo := &fakeOutboxRepo{}
	pub := &capturingPublisher{failUntil: 1}
	e := pendingEvent(uuid.New())
	require.NoError(t, repo.Create(context.Background(), &e))

	p := DefaultProcessor(repo, pub, logger.New(logger.DevelopmentMode))

	p.processBatch(context.Background())
	assert.Empty(t, pub.published)
	assert.Equal(t, domainoutbox.StatusPending, repo.events[0].Status)
	assert.Equal(t, 1, repo.events[0].RetryCount)

	p.processBatch(context.Background())
	require.Len(t, pub.published, 1)
	assert.Equal(t, domainoutbox.StatusCompleted, repo.events[0].Status)
}

func TestProcessBatch_PreservesCreationOrder(t *testing.T) {
	repo := &fakeOutboxRepo{}
	pub := &capturingPublisher{}
	projectID := uuid.New()

	first := pendingEvent(projectID)
	second := pendingEvent(projectID)
	second.EventType = events.EventReplyCreated
	require.NoError(t, repo.Create(context.Background(), &first))
	require.NoError(t, repo.Create(context.Background(), &second))

	p := DefaultProcessor(repo, pub, logger.New(logger.DevelopmentMode))
	p.processBatch(context.Background())

	require.Len(t, pub.published, 2)
	var env events.Envelope
	require.NoError(t, json.Unmarshal(pub.published[0].payload, &env))
	assert.Equal(t, events.EventThreadCreated, env.EventType)
	require.NoError(t, json.Unmarshal(pub.published[1].payload, &env))
	assert.Equal(t, events.EventReplyCreated, env.EventType)
}
