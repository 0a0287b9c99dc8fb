// Package server wires the inbound pipeline: gateway events are deduplicated,
// resolved for addressing, classified into commands or date queries, admitted
// through the gate and handed to the reply orchestrator.
package server

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kykmenu/yemekbot/internal/biz/domain"
	"github.com/kykmenu/yemekbot/internal/biz/repo"
	"github.com/kykmenu/yemekbot/internal/gate"
	"github.com/kykmenu/yemekbot/internal/gateway"
	"github.com/kykmenu/yemekbot/internal/intent"
	"github.com/kykmenu/yemekbot/internal/mention"
	"github.com/kykmenu/yemekbot/internal/panel"
	"github.com/kykmenu/yemekbot/internal/service"
)

// BotServer handles inbound message processing
type BotServer struct {
	transport *gateway.Client
	resolver  *mention.Resolver
	gate      *gate.Gate
	orch      *service.Orchestrator
	scheduler *service.NotifyScheduler
	logRepo   repo.MessageLogRepo
	panel     *panel.Notifier
	debug     bool

	// Message deduplication cache
	seenMsgsMu sync.RWMutex
	seenMsgs   map[string]time.Time // msgID -> timestamp

	now func() time.Time
}

// NewBotServer creates a bot server
func NewBotServer(
	transport *gateway.Client,
	resolver *mention.Resolver,
	g *gate.Gate,
	orch *service.Orchestrator,
	scheduler *service.NotifyScheduler,
	logRepo repo.MessageLogRepo,
	panelNotifier *panel.Notifier,
	debug bool,
) *BotServer {
	return &BotServer{
		transport: transport,
		resolver:  resolver,
		gate:      g,
		orch:      orch,
		scheduler: scheduler,
		logRepo:   logRepo,
		panel:     panelNotifier,
		debug:     debug,
		seenMsgs:  make(map[string]time.Time),
		now:       time.Now,
	}
}

// Start starts the server
func (s *BotServer) Start() error {
	if s.scheduler != nil {
		s.scheduler.Start(context.Background())
	}
	s.transport.OnMessage(s.handleMessage)
	return s.transport.Start()
}

// Stop stops the server
func (s *BotServer) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	if s.transport != nil {
		s.transport.Stop()
	}
}

// handleMessage is the gateway inbound callback. Processing runs on its own
// goroutine so the gateway read loop stays free to deliver send acks.
func (s *BotServer) handleMessage(msg *domain.InboundMessage) {
	if s.debug {
		fmt.Printf("[Server] Received from %s (chatType=%s): %s\n",
			msg.ChatID, msg.ChatType, truncate(msg.Body, 50))
	}

	// Message deduplication: gateways redeliver on reconnect.
	if s.isMessageSeen(msg.MsgID) {
		fmt.Printf("[Server] Duplicate message ignored: %s\n", msg.MsgID)
		return
	}
	s.markMessageSeen(msg.MsgID)

	go s.process(context.Background(), msg)
}

// process runs the full pipeline for one inbound message
func (s *BotServer) process(ctx context.Context, msg *domain.InboundMessage) {
	res := s.resolver.Resolve(ctx, msg)
	if res.Blocked {
		fmt.Printf("[Server] Blocked identity referenced, ignoring message %s\n", msg.MsgID)
		return
	}

	if msg.IsGroup() {
		s.recordGroup(ctx, msg)
	}
	if !res.Addressed {
		return
	}

	text := intent.Normalize(msg.Body)
	cmd := intent.ParseCommand(text)

	// Fall back from command to date expression to chat-type defaults.
	date, hasDate := "", false
	if cmd == domain.CommandNone {
		date, hasDate = intent.ExtractDate(text, s.now())
	}
	unknown := ""
	if cmd == domain.CommandNone && !hasDate {
		switch {
		case hasMenuKeyword(text):
			cmd = domain.CommandMenu
		case !msg.IsGroup():
			// Any other unrecognized private message gets the help text.
			cmd = domain.CommandHelp
		case intent.IsUnknownCandidate(text):
			unknown = text
		default:
			// Addressed with no command: treat a bare mention as a menu request.
			cmd = domain.CommandMenu
		}
	}

	s.recordMessage(ctx, msg, cmd != domain.CommandNone || hasDate)

	d := s.gate.Evaluate(msg.SenderID, msg.ChatID, cmd.IsExempt())
	if !d.Allowed {
		s.handleRejection(ctx, msg, d)
		return
	}

	var err error
	switch {
	case hasDate:
		err = s.orch.SendMenu(ctx, msg, date, true)
	case unknown != "":
		err = s.orch.ReplyUnknownCommand(ctx, msg, unknown)
	default:
		err = s.orch.HandleCommand(ctx, msg, cmd)
	}
	if err != nil {
		fmt.Printf("[Server] Handle message error: %v\n", err)
	}
}

// handleRejection notifies the user about cooldown and per-user rate
// rejections. Global ceiling rejections stay silent: a notice would itself
// breach the ceiling being enforced.
func (s *BotServer) handleRejection(ctx context.Context, msg *domain.InboundMessage, d gate.Decision) {
	switch d.Reason {
	case gate.ReasonCooldown:
		if err := s.orch.NoticeCooldown(ctx, msg, d.RemainingSeconds()); err != nil {
			fmt.Printf("[Server] Cooldown notice failed: %v\n", err)
		}
	case gate.ReasonUserRateExceeded:
		if err := s.orch.NoticeUserRate(ctx, msg, d.RemainingMinutes()); err != nil {
			fmt.Printf("[Server] Rate notice failed: %v\n", err)
		}
	case gate.ReasonDailyLimit, gate.ReasonHourlyLimit:
		daily, hourly := s.gate.SendCounts()
		fmt.Printf("[Server] Global ceiling reached (daily=%d hourly=%d), dropping silently\n", daily, hourly)
	}
}

// recordMessage mirrors an inbound message to the activity log and the panel
func (s *BotServer) recordMessage(ctx context.Context, msg *domain.InboundMessage, isCommand bool) {
	entry := &repo.LogEntry{
		From:      msg.SenderID,
		Body:      msg.Body,
		IsGroup:   msg.IsGroup(),
		IsCommand: isCommand,
		CreatedAt: msg.CreateTime,
	}
	if msg.IsGroup() {
		entry.GroupID = msg.ChatID
		entry.GroupName = msg.ChatName
	}
	if s.logRepo != nil {
		if err := s.logRepo.RecordMessage(ctx, entry); err != nil {
			fmt.Printf("[Server] Failed to log message: %v\n", err)
		}
	}
	if s.panel != nil {
		s.panel.Notify("messages", panel.MessageRecord{
			From:      msg.SenderID,
			Body:      msg.Body,
			IsGroup:   entry.IsGroup,
			GroupID:   entry.GroupID,
			GroupName: entry.GroupName,
			IsCommand: isCommand,
			Timestamp: msg.CreateTime.Format(time.RFC3339),
		})
	}
}

// recordGroup tracks a group chat the bot has seen
func (s *BotServer) recordGroup(ctx context.Context, msg *domain.InboundMessage) {
	if s.logRepo != nil {
		if err := s.logRepo.UpsertGroup(ctx, msg.ChatID, msg.ChatName); err != nil {
			fmt.Printf("[Server] Failed to record group: %v\n", err)
		}
	}
	if s.panel != nil {
		s.panel.Notify("groups", panel.GroupRecord{ID: msg.ChatID, Name: msg.ChatName})
	}
}

// menuKeywords are the vocabulary spellings that address the bot without
// forming a command. A keyword-addressed message is a plain menu request.
var menuKeywords = []string{"yemek", "ne var"}

func hasMenuKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range menuKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// isMessageSeen checks if a message has been processed
func (s *BotServer) isMessageSeen(msgID string) bool {
	s.seenMsgsMu.RLock()
	defer s.seenMsgsMu.RUnlock()
	_, exists := s.seenMsgs[msgID]
	return exists
}

// markMessageSeen marks a message as processed and expires stale entries
func (s *BotServer) markMessageSeen(msgID string) {
	s.seenMsgsMu.Lock()
	defer s.seenMsgsMu.Unlock()
	s.seenMsgs[msgID] = s.now()

	cutoff := s.now().Add(-5 * time.Minute)
	for id, ts := range s.seenMsgs {
		if ts.Before(cutoff) {
			delete(s.seenMsgs, id)
		}
	}
}
