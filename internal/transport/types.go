package transport

import "context"

// ResponseTypeInChannel makes a slash command reply visible to the whole channel.
const ResponseTypeInChannel = "in_channel"

// Field is one titled block inside an attachment message.
type Field struct {
	Title string
	Value string
	Short bool
}

// Message is a single-attachment chat message (pretext + color + fields).
type Message struct {
	Pretext string
	Color   string
	Fields  []Field
}

// Callback is a reply sent to a slash command's response_url.
//
// Exactly one of Text or Message is meaningful:
//   - Text replies are sent as {response_type, channel, text}
//   - Message replies are sent as the raw attachment message
type Callback struct {
	ResponseType string
	Channel      string
	Text         string
	Message      *Message
}

// Poster is the outbound side of the chat platform.
type Poster interface {
	// PostMessage posts an attachment message to a channel using the bot credential.
	PostMessage(ctx context.Context, channel string, msg Message) error
	// PostText posts plain text to a channel using the bot credential.
	PostText(ctx context.Context, channel string, text string) error
	// PostCallback posts to a request-scoped response_url (no credential).
	PostCallback(ctx context.Context, url string, cb Callback) error
}
