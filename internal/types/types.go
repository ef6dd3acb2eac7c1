package types

// Platform identifies the chat source a message came from.
type Platform string

const (
	PlatformTwitch  Platform = "twitch"
	PlatformKick    Platform = "kick"
	PlatformYouTube Platform = "youtube"
	PlatformRelay   Platform = "relay"
)

// Sentiment is the server-classified tone of a message.
type Sentiment string

const (
	SentimentHappy   Sentiment = "happy"
	SentimentNeutral Sentiment = "neutral"
	SentimentSad     Sentiment = "sad"
	SentimentUnknown Sentiment = "unknown"
)

// Message is one normalized chat message. Immutable once created: for a
// fixed ID every field is stable, and re-delivery of the same ID is a no-op.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Author         string    `json:"author"`
	Text           string    `json:"text"`
	TS             int64     `json:"ts"` // unix millis
	IsQuestion     bool      `json:"is_question,omitempty"`
	Sentiment      Sentiment `json:"sentiment,omitempty"`
	Flagged        bool      `json:"flagged,omitempty"`
	Platform       Platform  `json:"platform"`
}

// VisibilityState is the lifecycle state of a followed conversation.
type VisibilityState string

const (
	VisibilityActive    VisibilityState = "active"
	VisibilityCollapsed VisibilityState = "collapsed"
	VisibilityClosed    VisibilityState = "closed"
)

// ConnectionStatus reflects the transport link for a conversation.
type ConnectionStatus string

const (
	StatusConnected    ConnectionStatus = "connected"
	StatusReconnecting ConnectionStatus = "reconnecting"
	StatusDisconnected ConnectionStatus = "disconnected"
)

// Conversation is one followed chat source.
type Conversation struct {
	ID           string           `json:"id"`
	SourceURL    string           `json:"source_url"`
	Platform     Platform         `json:"platform"`
	Title        string           `json:"title"`
	ConnectionID string           `json:"connection_id,omitempty"` // empty until connected
	Visibility   VisibilityState  `json:"visibility"`
	Status       ConnectionStatus `json:"status"`
	ConnectedAt  int64            `json:"connected_at,omitempty"` // unix millis
}

// RecentConversation is a closed conversation remembered for reopening.
type RecentConversation struct {
	ID         string   `json:"id"`
	SourceURL  string   `json:"source_url"`
	Platform   Platform `json:"platform"`
	Title      string   `json:"title"`
	LastViewed int64    `json:"last_viewed"` // unix millis
}

// FilterOptions restrict a derived message view. Zero value means "all
// messages of the conversation".
type FilterOptions struct {
	QuestionsOnly bool
	AllQuestions  bool // union of questions across ActiveConversations
	CalmMode      bool // hide flagged and sad-sentiment messages
	Query         string
	// ActiveConversations scopes AllQuestions; ignored otherwise.
	ActiveConversations []string
}

// UnreadStats is the unread boundary report for one conversation.
type UnreadStats struct {
	Total     int `json:"total"`
	Questions int `json:"questions"`
}

// ConversationStats aggregates the derived per-conversation counters.
type ConversationStats struct {
	Messages  int         `json:"messages"`
	Questions int         `json:"questions"`
	Unread    UnreadStats `json:"unread"`
}

// PageRequest asks the persistence collaborator for a page of history.
// Exactly one of BeforeID or DateBucket is normally set; with neither the
// newest page is returned.
type PageRequest struct {
	ConversationID string
	BeforeID       string
	DateBucket     string // YYYY-MM-DD
	Limit          int
}

// Page is the persistence collaborator's answer to a PageRequest.
type Page struct {
	Messages   []Message
	HasMore    bool
	TotalCount int
}

// Preferences are the user toggles persisted across sessions.
type Preferences struct {
	CalmMode      bool            `json:"calm_mode"`
	QuestionsOnly bool            `json:"questions_only"`
	Collapsed     map[string]bool `json:"collapsed,omitempty"` // conversation ID -> collapsed
}

// Snapshot is what survives a restart: the bounded buffer, the read
// anchors, and the preferences.
type Snapshot struct {
	Messages    []Message         `json:"messages"`
	ReadAnchors map[string]string `json:"read_anchors"` // conversation ID -> message ID
	Preferences Preferences       `json:"preferences"`
}
