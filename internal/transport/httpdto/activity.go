package httpdto

type RecordActivityRequest struct {
	ActionType string `json:"action_type"`
	Field      string `json:"field"`
	OldValue   string `json:"old_value"`
	NewValue   string `json:"new_value"`
}
