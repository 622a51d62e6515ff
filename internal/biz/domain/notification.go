package domain

// Visibility is the audience scope of a status
type Visibility string

const (
	VisibilityPublic   Visibility = "public"
	VisibilityUnlisted Visibility = "unlisted"
	VisibilityPrivate  Visibility = "private"
	VisibilityDirect   Visibility = "direct"
)

// ParseVisibility converts the wire value, falling back to public for unknown values
func ParseVisibility(s string) Visibility {
	switch Visibility(s) {
	case VisibilityUnlisted, VisibilityPrivate, VisibilityDirect:
		return Visibility(s)
	default:
		return VisibilityPublic
	}
}

// ReplyVisibility returns the visibility used when answering a status.
// Direct messages are answered privately, everything else goes out unlisted.
func (v Visibility) ReplyVisibility() Visibility {
	if v == VisibilityDirect {
		return VisibilityDirect
	}
	return VisibilityUnlisted
}

// NotificationTypeMention is the only notification type the bot reacts to
const NotificationTypeMention = "mention"

// Notification is one event delivered by the stream
type Notification struct {
	ID     string
	Type   string
	Status *Status
}

// IsMention reports whether the notification carries a mention status
func (n *Notification) IsMention() bool {
	return n.Type == NotificationTypeMention && n.Status != nil
}

// Status is the part of a posted status the bot needs
type Status struct {
	ID           string
	URI          string
	Visibility   Visibility
	Content      string // HTML body
	AccountName  string // username of the author
	AccountAcct  string // username@domain for remote authors, username for local ones
	MentionCount int
}

// Question is the parsed, immutable view of a mention
type Question struct {
	Visibility   Visibility
	MentionCount int
	RequesterID  string
	OriginURI    string
	RawBody      string
	Text         string
}
