// Package telegram carries the Bot API surface this service touches:
// incoming webhook updates and the sendMessage call for replies.
package telegram

// Update is an incoming Bot API webhook payload. Only the fields the
// webhook reads are declared.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// Message is the inbound message of an update.
type Message struct {
	MessageID int64  `json:"message_id"`
	Text      string `json:"text"`
	Chat      Chat   `json:"chat"`
}

// Chat identifies where the reply goes.
type Chat struct {
	ID int64 `json:"id"`
}
