package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatter-server/internal/domain/chatter"
	"chatter-server/internal/domain/notification"
	"chatter-server/internal/events"
)

func TestMentionFanout_NotifiesMentionedUsers(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addMember("Alice Wong", chatter.RoleMember)
	bob := env.addMember("Bob Smith", chatter.RoleMember)

	env.mustCreateThread(t, alice, "hey @Bob Smith, look at this")

	items, err := env.notifier.List(context.Background(), bob, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, notification.TypeMention, items[0].Type)
	assert.Equal(t, alice, items[0].ActorID)

	unread, err := env.notifier.UnreadCount(context.Background(), bob)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)
}

func TestMentionFanout_SelfMentionIsSilent(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addMember("Alice Wong", chatter.RoleMember)

	env.mustCreateThread(t, alice, "note to @Alice Wong")

	items, err := env.notifier.List(context.Background(), alice, 10)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestReplyFanout_NotifiesThreadParticipantsOnce(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addMember("Alice Wong", chatter.RoleMember)
	bob := env.addMember("Bob Smith", chatter.RoleMember)
	carol := env.addMember("Carol Diaz", chatter.RoleMember)

	thread := env.mustCreateThread(t, alice, "topic")
	env.mustCreateReply(t, thread.Message.ID, bob, "first")
	env.mustCreateReply(t, thread.Message.ID, carol, "mentioning @Alice Wong here")

	// Alice is both thread author and mentioned: the mention wins and
	// she gets exactly one notification for carol's reply.
	items, err := env.notifier.List(context.Background(), alice, 10)
	require.NoError(t, err)
	var forCarolsReply []notification.Notification
	for _, n := range items {
		if n.ActorID == carol {
			forCarolsReply = append(forCarolsReply, n)
		}
	}
	require.Len(t, forCarolsReply, 1)
	assert.Equal(t, notification.TypeMention, forCarolsReply[0].Type)

	// Bob replied earlier, so he hears about carol's reply too.
	items, err = env.notifier.List(context.Background(), bob, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, notification.TypeReply, items[0].Type)

	// Carol gets nothing for her own reply.
	items, err = env.notifier.List(context.Background(), carol, 10)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestNotificationLifecycle_SurvivesSourceDeletion(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addMember("Alice Wong", chatter.RoleMember)
	bob := env.addMember("Bob Smith", chatter.RoleMember)

	thread := env.mustCreateThread(t, alice, "hey @Bob Smith")
	require.NoError(t, env.chatter.DeleteMessage(context.Background(), thread.Message.ID, alice))

	items, err := env.notifier.List(context.Background(), bob, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestMarkRead_DecrementsUnreadOnce(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addMember("Alice Wong", chatter.RoleMember)
	bob := env.addMember("Bob Smith", chatter.RoleMember)

	env.mustCreateThread(t, alice, "hey @Bob Smith")
	items, err := env.notifier.List(context.Background(), bob, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)

	require.NoError(t, env.notifier.MarkRead(context.Background(), items[0].ID, bob))
	require.NoError(t, env.notifier.MarkRead(context.Background(), items[0].ID, bob))

	unread, err := env.notifier.UnreadCount(context.Background(), bob)
	require.NoError(t, err)
	assert.Equal(t, int64(0), unread)
}

func TestMarkAllReadAndClearAll_ZeroTheCounter(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addMember("Alice Wong", chatter.RoleMember)
	bob := env.addMember("Bob Smith", chatter.RoleMember)

	env.mustCreateThread(t, alice, "one @Bob Smith")
	env.mustCreateThread(t, alice, "two @Bob Smith")

	require.NoError(t, env.notifier.MarkAllRead(context.Background(), bob))
	unread, err := env.notifier.UnreadCount(context.Background(), bob)
	require.NoError(t, err)
	assert.Equal(t, int64(0), unread)

	require.NoError(t, env.notifier.ClearAll(context.Background(), bob))
	items, err := env.notifier.List(context.Background(), bob, 10)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestClear_UnreadNotificationDecrementsCounter(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addMember("Alice Wong", chatter.RoleMember)
	bob := env.addMember("Bob Smith", chatter.RoleMember)

	env.mustCreateThread(t, alice, "hello @Bob Smith")
	items, err := env.notifier.List(context.Background(), bob, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)

	require.NoError(t, env.notifier.Clear(context.Background(), items[0].ID, bob))

	unread, err := env.notifier.UnreadCount(context.Background(), bob)
	require.NoError(t, err)
	assert.Equal(t, int64(0), unread)
}

func TestNotificationFanout_EmitsUserScopedEvents(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addMember("Alice Wong", chatter.RoleMember)
	bob := env.addMember("Bob Smith", chatter.RoleMember)

	env.mustCreateThread(t, alice, "ping @Bob Smith")

	emitted := env.st.eventsOfType(events.EventNotificationNew)
	require.Len(t, emitted, 1)
	require.NotNil(t, emitted[0].RecipientID)
	assert.Equal(t, bob, *emitted[0].RecipientID)
}
