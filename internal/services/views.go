package services

import (
	"context"

	"chatter-server/internal/domain/chatter"
	"chatter-server/internal/repository"
)

// MessageView is a message with its read-side decorations loaded.
type MessageView struct {
	Message     chatter.Message         `json:"message"`
	Mentions    []chatter.Mention       `json:"mentions"`
	Reactions   []chatter.ReactionGroup `json:"reactions"`
	Attachments []chatter.AttachmentRef `json:"attachments"`
}

// ThreadView is a thread root plus all of its replies.
type ThreadView struct {
	MessageView
	Replies []MessageView `json:"replies"`
}

func loadMessageView(ctx context.Context, r repository.Repositories, m chatter.Message) (MessageView, error) {
	view := MessageView{Message: m}

	// Tombstones carry no decorations beyond what audit needs.
	if !m.IsLive() {
		view.Mentions = []chatter.Mention{}
		view.Reactions = []chatter.ReactionGroup{}
		view.Attachments = []chatter.AttachmentRef{}
		return view, nil
	}

	mentions, err := r.Messages.GetMentions(ctx, m.ID)
	if err != nil {
		return MessageView{}, err
	}
	reactions, err := r.Reactions.GroupsByMessage(ctx, m.ID)
	if err != nil {
		return MessageView{}, err
	}
	attachments, err := r.Attachments.GetByMessage(ctx, m.ID)
	if err != nil {
		return MessageView{}, err
	}

	if mentions == nil {
		mentions = []chatter.Mention{}
	}
	if attachments == nil {
		attachments = []chatter.AttachmentRef{}
	}
	view.Mentions = mentions
	view.Reactions = reactions
	view.Attachments = attachments
	return view, nil
}

func loadThreadView(ctx context.Context, r repository.Repositories, thread chatter.Message) (ThreadView, error) {
	root, err := loadMessageView(ctx, r, thread)
	if err != nil {
		return ThreadView{}, err
	}

	replies, err := r.Messages.ListReplies(ctx, thread.ID)
	if err != nil {
		return ThreadView{}, err
	}

	replyViews := make([]MessageView, 0, len(replies))
	for _, reply := range replies {
		rv, err := loadMessageView(ctx, r, reply)
		if err != nil {
			return ThreadView{}, err
		}
		replyViews = append(replyViews, rv)
	}

	return ThreadView{MessageView: root, Replies: replyViews}, nil
}
