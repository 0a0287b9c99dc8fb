package mention

import (
	"context"
	"errors"
	"testing"

	"github.com/kykmenu/yemekbot/internal/biz/domain"
)

const (
	botNumber     = "905335445983"
	blockedNumber = "5428055983"
)

type stubContacts struct {
	ids []string
	err error
}

func (s *stubContacts) MentionedContacts(ctx context.Context, msgID string) ([]string, error) {
	return s.ids, s.err
}

func groupMsg(body string, mentions domain.MentionFields) *domain.InboundMessage {
	return &domain.InboundMessage{
		MsgID:    "m1",
		ChatID:   "g1@g.us",
		ChatType: domain.ChatTypeGroup,
		SenderID: "905551112233@c.us",
		Body:     body,
		Mentions: mentions,
	}
}

func TestStructuredMentionMatch(t *testing.T) {
	r := NewResolver(botNumber, blockedNumber, nil)

	msg := groupMsg("@905335445983 menu", domain.MentionFields{
		MentionedJID: []string{"905335445983@c.us"},
	})
	if res := r.Resolve(context.Background(), msg); !res.Addressed {
		t.Fatal("expected addressed via structured mention list")
	}
}

func TestStructuredMentionOtherUser(t *testing.T) {
	r := NewResolver(botNumber, blockedNumber, nil)

	msg := groupMsg("@905551119999 selam", domain.MentionFields{
		MentionedJID: []string{"905551119999@c.us"},
	})
	if res := r.Resolve(context.Background(), msg); res.Addressed {
		t.Fatal("expected not addressed for unrelated mention")
	}
}

func TestAlternateMentionFieldsProbed(t *testing.T) {
	r := NewResolver(botNumber, blockedNumber, nil)

	msg := groupMsg("@bot menu", domain.MentionFields{
		Mentions: []string{"905335445983@s.whatsapp.net"},
	})
	if res := r.Resolve(context.Background(), msg); !res.Addressed {
		t.Fatal("expected addressed via alternate mention field")
	}
}

func TestContactLookupFallback(t *testing.T) {
	r := NewResolver(botNumber, blockedNumber, &stubContacts{
		ids: []string{"905335445983@c.us"},
	})

	msg := groupMsg("menu lütfen", domain.MentionFields{})
	if res := r.Resolve(context.Background(), msg); !res.Addressed {
		t.Fatal("expected addressed via contact lookup")
	}
}

func TestContactLookupErrorFallsThrough(t *testing.T) {
	r := NewResolver(botNumber, blockedNumber, &stubContacts{
		err: errors.New("gateway busy"),
	})

	// Lookup fails; the text heuristic still finds the bot number.
	msg := groupMsg("@905335445983 menu", domain.MentionFields{})
	if res := r.Resolve(context.Background(), msg); !res.Addressed {
		t.Fatal("expected addressed via text heuristic after lookup failure")
	}
}

func TestTextHeuristicNumberVariants(t *testing.T) {
	r := NewResolver(botNumber, blockedNumber, nil)

	for _, body := range []string{
		"@905335445983 menu",
		"@5335445983 yarın",
		"@335445983 bugün ne var",
	} {
		msg := groupMsg(body, domain.MentionFields{})
		if res := r.Resolve(context.Background(), msg); !res.Addressed {
			t.Fatalf("body %q: expected addressed", body)
		}
	}
}

func TestTextHeuristicKeyword(t *testing.T) {
	r := NewResolver(botNumber, blockedNumber, nil)

	msg := groupMsg("@herkes bugün yemek ne", domain.MentionFields{})
	if res := r.Resolve(context.Background(), msg); !res.Addressed {
		t.Fatal("expected addressed via vocabulary keyword")
	}

	// No @ sigil at all: the heuristic never fires.
	msg = groupMsg("bugün yemek ne", domain.MentionFields{})
	if res := r.Resolve(context.Background(), msg); res.Addressed {
		t.Fatal("expected not addressed without @ sigil")
	}
}

func TestDirectChatImplicitlyAddressed(t *testing.T) {
	r := NewResolver(botNumber, blockedNumber, nil)

	msg := &domain.InboundMessage{
		MsgID:    "m2",
		ChatID:   "905551112233@c.us",
		ChatType: domain.ChatTypeP2P,
		Body:     "selam",
	}
	if res := r.Resolve(context.Background(), msg); !res.Addressed {
		t.Fatal("expected direct chat message to be addressed")
	}

	msg.Body = "   "
	if res := r.Resolve(context.Background(), msg); res.Addressed {
		t.Fatal("expected empty direct message not addressed")
	}
}

func TestBlockedIdentityOverridesBotMention(t *testing.T) {
	r := NewResolver(botNumber, blockedNumber, nil)

	// Both the bot and the blocked number appear in the same mention list.
	msg := groupMsg("@905335445983 @5428055983 menu", domain.MentionFields{
		MentionedJID: []string{"905335445983@c.us", "5428055983@c.us"},
	})
	res := r.Resolve(context.Background(), msg)
	if res.Addressed {
		t.Fatal("expected not addressed when blocked identity is mentioned")
	}
	if !res.Blocked {
		t.Fatal("expected Blocked flag")
	}
}

func TestBlockedIdentityInBody(t *testing.T) {
	r := NewResolver(botNumber, blockedNumber, nil)

	msg := groupMsg("bakın @5428055983 ne demiş", domain.MentionFields{})
	if res := r.Resolve(context.Background(), msg); !res.Blocked {
		t.Fatal("expected Blocked from raw text reference")
	}
}

func TestNormalizeJID(t *testing.T) {
	cases := map[string]string{
		"905335445983@c.us":           "905335445983",
		"905335445983@s.whatsapp.net": "905335445983",
		"@90 533 544 59 83":           "905335445983",
		"abc":                         "",
	}
	for in, want := range cases {
		if got := NormalizeJID(in); got != want {
			t.Fatalf("NormalizeJID(%q) = %q, want %q", in, got, want)
		}
	}
}
