package domain

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

const (
	PresenceOnline  = "ONLINE"
	PresenceAway    = "AWAY"
	PresenceBusy    = "BUSY"
	PresenceOffline = "OFFLINE"
)

const (
	ConnectionPending  = "PENDING"
	ConnectionAccepted = "ACCEPTED"
	ConnectionRejected = "REJECTED"
)

const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
	MessageTypeFile  = "file"
	MessageTypeLink  = "link"
)

// Websocket event names, shared by the chat handler and the services that
// broadcast through the hub.
const (
	EventNewMessage        = "new_message"
	EventMessagesRead      = "messages_read"
	EventMessageDeleted    = "message_deleted"
	EventUserTyping        = "user_typing"
	EventUserOnline        = "user_online"
	EventUserOffline       = "user_offline"
	EventUserStatusChanged = "user_status_changed"
	EventNotification      = "notification"
)

// ValidPresenceStatus reports whether s is one of the four presence states.
func ValidPresenceStatus(s string) bool {
	switch s {
	case PresenceOnline, PresenceAway, PresenceBusy, PresenceOffline:
		return true
	}
	return false
}

// ValidMessageType reports whether t is a supported message type.
func ValidMessageType(t string) bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeFile, MessageTypeLink:
		return true
	}
	return false
}
