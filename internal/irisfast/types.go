package irisfast

// Message is one chat event pushed by the Iris bridge over WebSocket.
type Message struct {
	Room   string       `json:"room"`
	Msg    string       `json:"msg"`
	Sender *string      `json:"sender,omitempty"`
	JSON   *MessageMeta `json:"json,omitempty"`
}

// MessageMeta carries the decoded sender fields when the bridge provides them.
type MessageMeta struct {
	UserID    string `json:"user_id,omitempty"`
	UserName  string `json:"user_name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	LogID     string `json:"log_id,omitempty"`
	Time      int64  `json:"t,omitempty"`
}

// Config is the bridge's /config payload, used as a startup health probe.
type Config struct {
	BotName string `json:"bot_name"`
	BotID   int64  `json:"bot_id"`
	Version string `json:"version"`
}

// ReplyRequest is the outbound frame for both HTTP /reply and the WS channel.
type ReplyRequest struct {
	Type string `json:"type"`
	Room string `json:"room"`
	Data string `json:"data"`
}

// WebSocketState tracks the ingest connection lifecycle.
type WebSocketState string

const (
	WSStateDisconnected WebSocketState = "disconnected"
	WSStateConnecting   WebSocketState = "connecting"
	WSStateConnected    WebSocketState = "connected"
	WSStateReconnecting WebSocketState = "reconnecting"
	WSStateFailed       WebSocketState = "failed"
)

func (s WebSocketState) String() string { return string(s) }
