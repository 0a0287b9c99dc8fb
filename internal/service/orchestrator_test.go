package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kykmenu/yemekbot/internal/biz/domain"
	"github.com/kykmenu/yemekbot/internal/dispatch"
	"github.com/kykmenu/yemekbot/internal/gate"
)

type fakeMenuRepo struct {
	menus map[string]map[domain.MealSlot]*domain.Menu
	err   error
}

func (f *fakeMenuRepo) Fetch(_ context.Context, date string, slot domain.MealSlot) (*domain.Menu, error) {
	if f.err != nil {
		return nil, f.err
	}
	day, ok := f.menus[date]
	if !ok {
		return nil, nil
	}
	return day[slot], nil
}

type sentMessage struct {
	chatID string
	msgID  string
	text   string
	plain  bool
}

type fakeMessageRepo struct {
	mu        sync.Mutex
	sent      []sentMessage
	replyErr  error
	sendErr   error
	groups    []domain.Group
	groupsErr error
}

func (f *fakeMessageRepo) Reply(_ context.Context, chatID, msgID, text string) error {
	if f.replyErr != nil {
		return f.replyErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{chatID: chatID, msgID: msgID, text: text})
	return nil
}

func (f *fakeMessageRepo) SendText(_ context.Context, chatID, text string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text, plain: true})
	return nil
}

func (f *fakeMessageRepo) Groups(_ context.Context) ([]domain.Group, error) {
	return f.groups, f.groupsErr
}

func (f *fakeMessageRepo) all() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentMessage, len(f.sent))
	copy(out, f.sent)
	return out
}

func newTestOrchestrator(menus *fakeMenuRepo, msgs *fakeMessageRepo) (*Orchestrator, *gate.Gate) {
	g := gate.New(gate.DefaultConfig())
	q := dispatch.New(dispatch.Config{}) // zero delays in tests
	o := NewOrchestrator(menus, menus, msgs, g, q)
	o.now = func() time.Time { return time.Date(2024, 1, 15, 12, 0, 0, 0, time.Local) }
	return o, g
}

func groupMsg() *domain.InboundMessage {
	return &domain.InboundMessage{
		MsgID:    "m1",
		ChatID:   "g1@g.us",
		ChatType: domain.ChatTypeGroup,
		SenderID: "905551112233@c.us",
	}
}

func menuFor(date string) map[domain.MealSlot]*domain.Menu {
	return map[domain.MealSlot]*domain.Menu{
		domain.MealBreakfast: {Date: date, Slot: domain.MealBreakfast, Dishes: []string{"Peynir", "Zeytin", "Çay"}},
		domain.MealDinner:    {Date: date, Slot: domain.MealDinner, Dishes: []string{"Mercimek Çorbası", "Pilav"}},
	}
}

func TestHandleCommandMenuRepliesWithBothSlots(t *testing.T) {
	menus := &fakeMenuRepo{menus: map[string]map[domain.MealSlot]*domain.Menu{
		"2024-01-15": menuFor("2024-01-15"),
	}}
	msgs := &fakeMessageRepo{}
	o, g := newTestOrchestrator(menus, msgs)

	if err := o.HandleCommand(context.Background(), groupMsg(), domain.CommandMenu); err != nil {
		t.Fatalf("HandleCommand: %v", err)
	}

	sent := msgs.all()
	if len(sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sent))
	}
	text := sent[0].text
	for _, want := range []string{"KAHVALTI", "AKŞAM YEMEĞİ", "Peynir", "Mercimek Çorbası", "15 Ocak 2024"} {
		if !strings.Contains(text, want) {
			t.Errorf("reply missing %q:\n%s", want, text)
		}
	}
	if sent[0].msgID != "m1" {
		t.Errorf("msgID = %q, want reply to m1", sent[0].msgID)
	}

	daily, hourly := g.SendCounts()
	if daily != 1 || hourly != 1 {
		t.Errorf("send counts = %d/%d, want 1/1", daily, hourly)
	}
}

func TestHandleCommandStampsCooldown(t *testing.T) {
	menus := &fakeMenuRepo{menus: map[string]map[domain.MealSlot]*domain.Menu{
		"2024-01-15": menuFor("2024-01-15"),
	}}
	o, g := newTestOrchestrator(menus, &fakeMessageRepo{})

	msg := groupMsg()
	if err := o.HandleCommand(context.Background(), msg, domain.CommandMenu); err != nil {
		t.Fatalf("HandleCommand: %v", err)
	}

	d := g.Evaluate(msg.SenderID, msg.ChatID, false)
	if d.Allowed || d.Reason != gate.ReasonCooldown {
		t.Fatalf("decision = %+v, want cooldown rejection after reply", d)
	}
}

func TestHandleCommandTomorrowTagged(t *testing.T) {
	menus := &fakeMenuRepo{menus: map[string]map[domain.MealSlot]*domain.Menu{
		"2024-01-16": menuFor("2024-01-16"),
	}}
	msgs := &fakeMessageRepo{}
	o, _ := newTestOrchestrator(menus, msgs)

	if err := o.HandleCommand(context.Background(), groupMsg(), domain.CommandTomorrow); err != nil {
		t.Fatalf("HandleCommand: %v", err)
	}
	sent := msgs.all()
	if len(sent) != 1 || !strings.Contains(sent[0].text, "(Yarın)") {
		t.Fatalf("want tomorrow tag in reply, got %+v", sent)
	}
}

func TestSendMenuNoDataForDate(t *testing.T) {
	msgs := &fakeMessageRepo{}
	o, _ := newTestOrchestrator(&fakeMenuRepo{}, msgs)

	if err := o.SendMenu(context.Background(), groupMsg(), "2024-02-01", true); err != nil {
		t.Fatalf("SendMenu: %v", err)
	}
	sent := msgs.all()
	if len(sent) != 1 || !strings.Contains(sent[0].text, "menü henüz eklenmedi") {
		t.Fatalf("want not-added reply, got %+v", sent)
	}
}

func TestSendMenuProviderDown(t *testing.T) {
	msgs := &fakeMessageRepo{}
	o, _ := newTestOrchestrator(&fakeMenuRepo{err: errors.New("connection refused")}, msgs)

	if err := o.SendMenu(context.Background(), groupMsg(), "2024-01-15", false); err != nil {
		t.Fatalf("SendMenu: %v", err)
	}
	sent := msgs.all()
	if len(sent) != 1 || !strings.Contains(sent[0].text, "ulaşılamıyor") {
		t.Fatalf("want unavailable reply, got %+v", sent)
	}
}

func TestHelpTextDependsOnChatType(t *testing.T) {
	msgs := &fakeMessageRepo{}
	o, _ := newTestOrchestrator(&fakeMenuRepo{}, msgs)

	if err := o.HandleCommand(context.Background(), groupMsg(), domain.CommandHelp); err != nil {
		t.Fatalf("group help: %v", err)
	}
	private := groupMsg()
	private.ChatType = domain.ChatTypeP2P
	if err := o.HandleCommand(context.Background(), private, domain.CommandHelp); err != nil {
		t.Fatalf("private help: %v", err)
	}

	sent := msgs.all()
	if len(sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(sent))
	}
	if !strings.Contains(sent[0].text, "Komutlar") || !strings.Contains(sent[0].text, "etiketleyin") {
		t.Errorf("group help missing mention instructions:\n%s", sent[0].text)
	}
	if !strings.Contains(sent[1].text, "Özel Mesaj") || !strings.Contains(sent[1].text, "mention gerekmez") {
		t.Errorf("private help wrong:\n%s", sent[1].text)
	}
}

func TestStartCommandSendsWelcome(t *testing.T) {
	msgs := &fakeMessageRepo{}
	o, _ := newTestOrchestrator(&fakeMenuRepo{}, msgs)

	private := groupMsg()
	private.ChatType = domain.ChatTypeP2P
	if err := o.HandleCommand(context.Background(), private, domain.CommandStart); err != nil {
		t.Fatalf("HandleCommand: %v", err)
	}
	sent := msgs.all()
	if len(sent) != 1 || !strings.Contains(sent[0].text, "Hoş Geldiniz") {
		t.Fatalf("want welcome reply, got %+v", sent)
	}
}

func TestSendWeeklySkipsEmptyDays(t *testing.T) {
	menus := &fakeMenuRepo{menus: map[string]map[domain.MealSlot]*domain.Menu{
		"2024-01-15": menuFor("2024-01-15"),
		"2024-01-17": menuFor("2024-01-17"),
	}}
	msgs := &fakeMessageRepo{}
	o, _ := newTestOrchestrator(menus, msgs)

	if err := o.SendWeekly(context.Background(), groupMsg()); err != nil {
		t.Fatalf("SendWeekly: %v", err)
	}
	sent := msgs.all()
	if len(sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sent))
	}
	text := sent[0].text
	if !strings.Contains(text, "Haftalık") {
		t.Errorf("missing weekly header:\n%s", text)
	}
	if !strings.Contains(text, "Pazartesi, 15 Ocak") || !strings.Contains(text, "Çarşamba, 17 Ocak") {
		t.Errorf("missing populated days:\n%s", text)
	}
	if strings.Contains(text, "16 Ocak") {
		t.Errorf("empty day should be skipped:\n%s", text)
	}
	// Previews cap at two dishes.
	if !strings.Contains(text, "Peynir, Zeytin...") {
		t.Errorf("missing dish preview:\n%s", text)
	}
}

func TestSendWeeklyNoData(t *testing.T) {
	msgs := &fakeMessageRepo{}
	o, _ := newTestOrchestrator(&fakeMenuRepo{}, msgs)

	if err := o.SendWeekly(context.Background(), groupMsg()); err != nil {
		t.Fatalf("SendWeekly: %v", err)
	}
	sent := msgs.all()
	if len(sent) != 1 || !strings.Contains(sent[0].text, "henüz eklenmedi") {
		t.Fatalf("want empty-week reply, got %+v", sent)
	}
}

func TestReplyFallsBackToPlainSend(t *testing.T) {
	msgs := &fakeMessageRepo{replyErr: errors.New("quoted message not found")}
	o, g := newTestOrchestrator(&fakeMenuRepo{}, msgs)

	if err := o.ReplyUnknownCommand(context.Background(), groupMsg(), "abc"); err != nil {
		t.Fatalf("fallback should absorb the reply failure: %v", err)
	}
	sent := msgs.all()
	if len(sent) != 1 || !sent[0].plain {
		t.Fatalf("want one plain-text fallback send, got %+v", sent)
	}
	daily, _ := g.SendCounts()
	if daily != 1 {
		t.Errorf("daily count = %d, want 1", daily)
	}
}

func TestReplyFallbackFailureSurfaces(t *testing.T) {
	msgs := &fakeMessageRepo{
		replyErr: errors.New("reply failed"),
		sendErr:  errors.New("send failed"),
	}
	o, g := newTestOrchestrator(&fakeMenuRepo{}, msgs)

	if err := o.ReplyUnknownCommand(context.Background(), groupMsg(), "abc"); err == nil {
		t.Fatal("want error when both sends fail")
	}
	daily, hourly := g.SendCounts()
	if daily != 0 || hourly != 0 {
		t.Errorf("send counts = %d/%d, want 0/0 after failed sends", daily, hourly)
	}
}

func TestNoticesDoNotStampCooldown(t *testing.T) {
	msgs := &fakeMessageRepo{}
	o, g := newTestOrchestrator(&fakeMenuRepo{}, msgs)

	msg := groupMsg()
	if err := o.NoticeCooldown(context.Background(), msg, 2); err != nil {
		t.Fatalf("NoticeCooldown: %v", err)
	}
	if err := o.NoticeUserRate(context.Background(), msg, 30); err != nil {
		t.Fatalf("NoticeUserRate: %v", err)
	}

	sent := msgs.all()
	if len(sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(sent))
	}
	if !strings.Contains(sent[0].text, "2 saniye") {
		t.Errorf("cooldown notice wrong: %q", sent[0].text)
	}
	if !strings.Contains(sent[1].text, "30 dakika") {
		t.Errorf("rate notice wrong: %q", sent[1].text)
	}

	d := g.Evaluate(msg.SenderID, msg.ChatID, false)
	if !d.Allowed {
		t.Fatalf("notices must not start a cooldown, got %+v", d)
	}
}

func TestUnknownCommandReply(t *testing.T) {
	msgs := &fakeMessageRepo{}
	o, _ := newTestOrchestrator(&fakeMenuRepo{}, msgs)

	if err := o.ReplyUnknownCommand(context.Background(), groupMsg(), "menüü"); err != nil {
		t.Fatalf("ReplyUnknownCommand: %v", err)
	}
	sent := msgs.all()
	if len(sent) != 1 || !strings.Contains(sent[0].text, `Bilinmeyen komut: "menüü"`) {
		t.Fatalf("want unknown-command reply, got %+v", sent)
	}
}

func TestSplitMessage(t *testing.T) {
	if parts := splitMessage("short"); len(parts) != 1 {
		t.Fatalf("short text split into %d parts", len(parts))
	}

	long := strings.Repeat("satır içeriği\n", 400) // well past the limit
	parts := splitMessage(long)
	if len(parts) != 2 {
		t.Fatalf("long text split into %d parts, want 2", len(parts))
	}
	if len(parts[0]) > splitAt {
		t.Errorf("first part %d bytes, want <= %d", len(parts[0]), splitAt)
	}
	if strings.HasSuffix(parts[0], "\n") || strings.HasPrefix(parts[1], "\n") {
		t.Errorf("split should consume the boundary newline")
	}
}
