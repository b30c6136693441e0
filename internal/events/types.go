package events

// Wire event names pushed to subscribed clients. Format: subject:action.

// Thread and reply events
const (
	EventThreadCreated = "thread:created"
	EventThreadUpdated = "thread:updated"
	EventThreadDeleted = "thread:deleted"
	EventReplyCreated  = "reply:created"
	EventReplyUpdated  = "reply:updated"
	EventReplyDeleted  = "reply:deleted"
)

// Reaction and receipt events
const (
	EventReactionUpdated = "reaction:updated"
	EventReceiptUpdated  = "receipt:updated"
)

// Notification events (delivered on the recipient's user channel)
const (
	EventNotificationNew = "notification:new"
)

// Activity log events
const (
	EventActivityRecorded = "activity:recorded"
)

// Aggregate type constants
const (
	AggregateMessage      = "message"
	AggregateReaction     = "reaction"
	AggregateReceipt      = "receipt"
	AggregateNotification = "notification"
	AggregateActivity     = "activity"
)

// Redis channel prefixes. Project channels carry feed events in commit
// order; user channels carry per-recipient notifications.
const (
	ChannelPrefixProject = "channel:project:"
	ChannelPrefixUser    = "channel:user:"
)
