package mastodon

// Account is the subset of a Mastodon account the bridge uses
type Account struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Acct     string `json:"acct"`
	URL      string `json:"url"`
}

// Mention is an account mentioned in a status
type Mention struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Acct     string `json:"acct"`
	URL      string `json:"url"`
}

// Status is the subset of a Mastodon status the bridge uses
type Status struct {
	ID          string    `json:"id"`
	URI         string    `json:"uri"`
	URL         string    `json:"url"`
	Visibility  string    `json:"visibility"`
	Content     string    `json:"content"`
	InReplyToID string    `json:"in_reply_to_id"`
	Account     Account   `json:"account"`
	Mentions    []Mention `json:"mentions"`
}

// Notification is a user notification delivered by the streaming API
type Notification struct {
	ID      string   `json:"id"`
	Type    string   `json:"type"`
	Account *Account `json:"account"`
	Status  *Status  `json:"status"`
}

// StatusRequest is the body of POST /api/v1/statuses
type StatusRequest struct {
	Status      string `json:"status"`
	InReplyToID string `json:"in_reply_to_id,omitempty"`
	Visibility  string `json:"visibility,omitempty"`
}

// streamMessage is one websocket frame from /api/v1/streaming.
// Payload is itself JSON encoded as a string.
type streamMessage struct {
	Stream  []string `json:"stream"`
	Event   string   `json:"event"`
	Payload string   `json:"payload"`
}
