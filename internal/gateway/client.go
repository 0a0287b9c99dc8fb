// Package gateway implements the client side of the local WhatsApp gateway
// socket. The gateway process owns the session and the connection lifecycle;
// this client only consumes inbound message events and performs sends.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/kykmenu/yemekbot/internal/biz/domain"
)

const (
	writeWait      = 10 * time.Second
	requestTimeout = 15 * time.Second
	maxMsgSize     = 1 << 20 // 1MB
)

// frame is the wire envelope in both directions
type frame struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	ChatID  string          `json:"chatId,omitempty"`
	ReplyTo string          `json:"replyTo,omitempty"`
	MsgID   string          `json:"msgId,omitempty"`
	Text    string          `json:"text,omitempty"`
	OK      bool            `json:"ok,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message json.RawMessage `json:"message,omitempty"`
	IDs     []string        `json:"ids,omitempty"`
	Groups  []wireGroup     `json:"groups,omitempty"`
}

type wireGroup struct {
	ChatID string `json:"chatId"`
	Name   string `json:"name"`
}

// wireMessage is the gateway's inbound message payload
type wireMessage struct {
	MsgID     string `json:"msgId"`
	ChatID    string `json:"chatId"`
	ChatName  string `json:"chatName"`
	ChatType  string `json:"chatType"`
	SenderID  string `json:"senderId"`
	Body      string `json:"body"`
	Timestamp int64  `json:"timestamp"`
	domain.MentionFields
}

// Client is a websocket client for the gateway socket
type Client struct {
	url  string
	conn *websocket.Conn

	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[string]chan *frame

	onMessage func(*domain.InboundMessage)

	done     chan struct{}
	stopOnce sync.Once
}

// Dial connects to the gateway socket
func Dial(url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial gateway: %w", err)
	}
	conn.SetReadLimit(maxMsgSize)
	return &Client{
		url:     url,
		conn:    conn,
		pending: make(map[string]chan *frame),
		done:    make(chan struct{}),
	}, nil
}

// OnMessage sets the inbound message handler
func (c *Client) OnMessage(fn func(*domain.InboundMessage)) {
	c.onMessage = fn
}

// Start runs the read loop until the connection closes or Stop is called
func (c *Client) Start() error {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				return nil
			default:
				return fmt.Errorf("gateway read: %w", err)
			}
		}

		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			fmt.Printf("[Gateway] bad frame: %v\n", err)
			continue
		}

		switch f.Type {
		case "message":
			c.handleInbound(&f)
		case "ack":
			c.handleAck(&f)
		default:
			fmt.Printf("[Gateway] unknown frame type: %s\n", f.Type)
		}
	}
}

// Stop closes the connection
func (c *Client) Stop() {
	c.stopOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

func (c *Client) handleInbound(f *frame) {
	if c.onMessage == nil {
		return
	}
	var wm wireMessage
	if err := json.Unmarshal(f.Message, &wm); err != nil {
		fmt.Printf("[Gateway] bad message payload: %v\n", err)
		return
	}
	chatType := domain.ChatTypeP2P
	if wm.ChatType == "group" {
		chatType = domain.ChatTypeGroup
	}
	c.onMessage(&domain.InboundMessage{
		MsgID:      wm.MsgID,
		ChatID:     wm.ChatID,
		ChatName:   wm.ChatName,
		ChatType:   chatType,
		SenderID:   wm.SenderID,
		Body:       wm.Body,
		Mentions:   wm.MentionFields,
		CreateTime: time.UnixMilli(wm.Timestamp),
	})
}

func (c *Client) handleAck(f *frame) {
	c.pendingMu.Lock()
	ch, ok := c.pending[f.ID]
	if ok {
		delete(c.pending, f.ID)
	}
	c.pendingMu.Unlock()
	if ok {
		ch <- f
	}
}

// Reply sends text as a reply to msgID
func (c *Client) Reply(ctx context.Context, chatID, msgID, text string) error {
	_, err := c.request(ctx, &frame{Type: "send", ChatID: chatID, ReplyTo: msgID, Text: text})
	return err
}

// SendText sends plain text to a chat
func (c *Client) SendText(ctx context.Context, chatID, text string) error {
	_, err := c.request(ctx, &frame{Type: "send", ChatID: chatID, Text: text})
	return err
}

// Groups lists the group chats the session participates in
func (c *Client) Groups(ctx context.Context) ([]domain.Group, error) {
	ack, err := c.request(ctx, &frame{Type: "groups"})
	if err != nil {
		return nil, err
	}
	groups := make([]domain.Group, 0, len(ack.Groups))
	for _, g := range ack.Groups {
		groups = append(groups, domain.Group{ChatID: g.ChatID, Name: g.Name})
	}
	return groups, nil
}

// MentionedContacts resolves the mention contacts of a message
func (c *Client) MentionedContacts(ctx context.Context, msgID string) ([]string, error) {
	ack, err := c.request(ctx, &frame{Type: "mentions", MsgID: msgID})
	if err != nil {
		return nil, err
	}
	return ack.IDs, nil
}

// request writes a frame and waits for its ack. Every request is bounded by
// requestTimeout so a stuck gateway cannot stall the dispatch queue.
func (c *Client) request(ctx context.Context, f *frame) (*frame, error) {
	f.ID = uuid.NewString()

	ch := make(chan *frame, 1)
	c.pendingMu.Lock()
	c.pending[f.ID] = ch
	c.pendingMu.Unlock()

	if err := c.write(f); err != nil {
		c.pendingMu.Lock()
		delete(c.pending, f.ID)
		c.pendingMu.Unlock()
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	select {
	case ack := <-ch:
		if !ack.OK {
			return nil, fmt.Errorf("gateway %s: %s", f.Type, ack.Error)
		}
		return ack, nil
	case <-ctx.Done():
		c.pendingMu.Lock()
		delete(c.pending, f.ID)
		c.pendingMu.Unlock()
		return nil, fmt.Errorf("gateway %s: %w", f.Type, ctx.Err())
	case <-c.done:
		return nil, fmt.Errorf("gateway closed")
	}
}

func (c *Client) write(f *frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}
