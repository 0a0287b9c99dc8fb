// Package mention decides whether the bot is the addressee of an inbound
// conversation message. Signal sources are probed in a fixed priority order
// because any one of them may be absent or malformed on a given gateway build.
package mention

import (
	"context"
	"fmt"
	"strings"

	"github.com/kykmenu/yemekbot/internal/biz/domain"
)

// ContactLookup enumerates the resolved mention contacts of a message.
// The call may fail; resolution then falls through to the next signal source.
type ContactLookup interface {
	MentionedContacts(ctx context.Context, msgID string) ([]string, error)
}

// Result is the outcome of a resolution
type Result struct {
	Addressed bool
	Blocked   bool // a blocked identity was referenced; overrides everything
}

// Resolver determines whether the bot is addressed by a message
type Resolver struct {
	botNumber     string // normalized digits
	blockedNumber string // normalized digits
	contacts      ContactLookup
	keywords      []string
}

// NewResolver creates a mention resolver. contacts may be nil when the
// gateway offers no contact resolution capability.
func NewResolver(botNumber, blockedNumber string, contacts ContactLookup) *Resolver {
	return &Resolver{
		botNumber:     NormalizeJID(botNumber),
		blockedNumber: NormalizeJID(blockedNumber),
		contacts:      contacts,
		keywords:      []string{"yemek", "menü", "menu", "ne var"},
	}
}

// NormalizeJID strips the gateway domain suffixes and every non-digit rune,
// reducing a jid to its bare number for comparison.
func NormalizeJID(id string) string {
	id = strings.ReplaceAll(id, "@c.us", "")
	id = strings.ReplaceAll(id, "@s.whatsapp.net", "")
	var b strings.Builder
	for _, r := range id {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Resolve determines whether msg addresses the bot. The blocked-identity
// exclusion is checked first and short-circuits every other signal.
func (r *Resolver) Resolve(ctx context.Context, msg *domain.InboundMessage) Result {
	if r.referencesBlocked(msg) {
		return Result{Blocked: true}
	}

	// In a direct chat any non-empty message is implicitly addressed.
	if !msg.IsGroup() {
		return Result{Addressed: strings.TrimSpace(msg.Body) != ""}
	}

	// 1. Structured mention lists, in field priority order.
	for _, src := range msg.Mentions.Sources() {
		for _, id := range src {
			if jidMatches(NormalizeJID(id), r.botNumber) {
				return Result{Addressed: true}
			}
		}
	}

	// 2. Resolved contact enumeration, when the gateway supports it.
	if r.contacts != nil {
		ids, err := r.contacts.MentionedContacts(ctx, msg.MsgID)
		if err == nil {
			for _, id := range ids {
				if jidMatches(NormalizeJID(id), r.botNumber) {
					return Result{Addressed: true}
				}
			}
		} else {
			fmt.Printf("[Mention] contact lookup failed: %v\n", err)
		}
	}

	// 3. Text heuristic: an @ sigil plus either a bot-number variant or the
	// menu vocabulary.
	if strings.Contains(msg.Body, "@") {
		lower := strings.ToLower(msg.Body)
		for _, variant := range r.numberVariants() {
			if variant != "" && strings.Contains(lower, "@"+variant) {
				return Result{Addressed: true}
			}
		}
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return Result{Addressed: true}
			}
		}
	}

	return Result{}
}

// referencesBlocked reports whether any mention field or the raw text
// references the blocked identity.
func (r *Resolver) referencesBlocked(msg *domain.InboundMessage) bool {
	if r.blockedNumber == "" {
		return false
	}
	for _, id := range msg.Mentions.All() {
		clean := NormalizeJID(id)
		if clean == r.blockedNumber || strings.Contains(clean, r.blockedNumber) || strings.Contains(id, r.blockedNumber) {
			return true
		}
	}
	return strings.Contains(msg.Body, r.blockedNumber)
}

// numberVariants returns the bot number spellings users type in mentions:
// the full number, without the country code, and without the leading trunk
// digit group.
func (r *Resolver) numberVariants() []string {
	return []string{
		r.botNumber,
		strings.TrimPrefix(r.botNumber, "90"),
		strings.TrimPrefix(r.botNumber, "905"),
	}
}

// jidMatches compares two normalized numbers: exact match or either number
// embedded in the other (gateways sometimes prepend routing digits).
func jidMatches(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}
