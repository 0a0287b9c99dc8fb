package repo

import (
	"context"
	"time"

	"github.com/kykmenu/yemekbot/internal/biz/domain"
)

// MessageRepo is the outbound message repository interface.
// Responsible for handing sends to the chat transport.
type MessageRepo interface {
	// Reply sends a text message as a reply to an existing message
	Reply(ctx context.Context, chatID, msgID, text string) error

	// SendText sends a plain text message to a chat
	SendText(ctx context.Context, chatID, text string) error

	// Groups lists the group chats the bot participates in
	Groups(ctx context.Context) ([]domain.Group, error)
}

// MenuRepo is the menu data provider interface.
// A nil menu with a nil error means "no data for that date/slot".
type MenuRepo interface {
	Fetch(ctx context.Context, date string, slot domain.MealSlot) (*domain.Menu, error)
}

// LogEntry is one recorded inbound message
type LogEntry struct {
	From      string
	Body      string
	IsGroup   bool
	GroupID   string
	GroupName string
	IsCommand bool
	CreatedAt time.Time
}

// MessageLogRepo is the local activity log interface
type MessageLogRepo interface {
	// RecordMessage appends an inbound message to the log
	RecordMessage(ctx context.Context, entry *LogEntry) error

	// UpsertGroup records a group the bot has seen
	UpsertGroup(ctx context.Context, chatID, name string) error

	// RecentMessages returns the newest entries, newest first
	RecentMessages(ctx context.Context, limit int) ([]LogEntry, error)

	// Close releases the underlying store
	Close() error
}
