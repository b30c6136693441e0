package httpdto

type CreateThreadRequest struct {
	Content       string   `json:"content"`
	PlainText     string   `json:"plain_text"`
	AttachmentIDs []string `json:"attachment_ids"`
}

type CreateReplyRequest struct {
	Content       string   `json:"content"`
	PlainText     string   `json:"plain_text"`
	AttachmentIDs []string `json:"attachment_ids"`
}

type EditMessageRequest struct {
	Content   string `json:"content"`
	PlainText string `json:"plain_text"`
}

type ReactRequest struct {
	Emoji string `json:"emoji"`
}
