package domain

import "time"

// ChatType represents the chat type
type ChatType string

const (
	ChatTypeGroup ChatType = "group"
	ChatTypeP2P   ChatType = "p2p"
)

// InboundMessage represents a conversation event delivered by the gateway
type InboundMessage struct {
	MsgID      string
	ChatID     string
	ChatName   string
	ChatType   ChatType
	SenderID   string
	Body       string
	Mentions   MentionFields
	CreateTime time.Time
}

// IsGroup checks if the message came from a group chat
func (m *InboundMessage) IsGroup() bool {
	return m.ChatType == ChatTypeGroup
}

// MentionFields carries the mention id lists the gateway may populate.
// Gateway builds disagree on the field name, so every variant is kept and
// probed in a fixed order instead of sniffing the raw payload.
type MentionFields struct {
	MentionedJID     []string `json:"mentionedJid,omitempty"`
	MentionedJIDList []string `json:"mentionedJidList,omitempty"`
	MentionedJIDs    []string `json:"mentionedJids,omitempty"`
	Mentions         []string `json:"mentions,omitempty"`
}

// Sources returns the mention lists in probe priority order
func (f MentionFields) Sources() [][]string {
	return [][]string{f.MentionedJID, f.MentionedJIDList, f.MentionedJIDs, f.Mentions}
}

// All returns every mention id across all field variants
func (f MentionFields) All() []string {
	var out []string
	for _, src := range f.Sources() {
		out = append(out, src...)
	}
	return out
}

// Group represents a group chat known to the gateway
type Group struct {
	ChatID string
	Name   string
}
