package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/kykmenu/yemekbot/internal/biz/domain"
	"github.com/kykmenu/yemekbot/internal/conf"
	"github.com/kykmenu/yemekbot/internal/dispatch"
	"github.com/kykmenu/yemekbot/internal/gate"
)

func newTestScheduler(menus *fakeMenuRepo, msgs *fakeMessageRepo) *NotifyScheduler {
	cfg := conf.NotifyConfig{
		Enabled:        true,
		BreakfastHour:  7,
		DinnerHour:     16,
		InterGroupWait: 2 * time.Second,
	}
	g := gate.New(gate.DefaultConfig())
	q := dispatch.New(dispatch.Config{})
	s := NewNotifyScheduler(cfg, menus, msgs, g, q)
	s.sleep = func(time.Duration) {}
	return s
}

func TestBroadcastSendsToEveryGroup(t *testing.T) {
	menus := &fakeMenuRepo{menus: map[string]map[domain.MealSlot]*domain.Menu{
		"2024-01-15": menuFor("2024-01-15"),
	}}
	msgs := &fakeMessageRepo{groups: []domain.Group{
		{ChatID: "g1@g.us", Name: "Yurt A"},
		{ChatID: "g2@g.us", Name: "Yurt B"},
		{ChatID: "g3@g.us", Name: "Yurt C"},
	}}
	s := newTestScheduler(menus, msgs)
	s.now = func() time.Time { return time.Date(2024, 1, 15, 16, 0, 0, 0, time.Local) }

	var waits []time.Duration
	s.sleep = func(d time.Duration) { waits = append(waits, d) }

	if err := s.Broadcast(context.Background(), domain.MealDinner); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}

	sent := msgs.all()
	if len(sent) != 3 {
		t.Fatalf("sent %d messages, want 3", len(sent))
	}
	for i, chatID := range []string{"g1@g.us", "g2@g.us", "g3@g.us"} {
		if sent[i].chatID != chatID || !sent[i].plain {
			t.Errorf("send %d = %+v, want plain send to %s", i, sent[i], chatID)
		}
	}
	if !strings.Contains(sent[0].text, "AKŞAM YEMEĞİ MENÜSÜ") || !strings.Contains(sent[0].text, "Mercimek Çorbası") {
		t.Errorf("broadcast text wrong:\n%s", sent[0].text)
	}
	// One pause between each pair of groups, none after the last.
	if len(waits) != 2 {
		t.Errorf("paused %d times, want 2", len(waits))
	}
	daily, _ := s.gate.SendCounts()
	if daily != 3 {
		t.Errorf("daily count = %d, want 3", daily)
	}
}

func TestBroadcastSkipsWhenNoMenu(t *testing.T) {
	msgs := &fakeMessageRepo{groups: []domain.Group{{ChatID: "g1@g.us"}}}
	s := newTestScheduler(&fakeMenuRepo{}, msgs)
	s.now = func() time.Time { return time.Date(2024, 1, 15, 7, 0, 0, 0, time.Local) }

	if err := s.Broadcast(context.Background(), domain.MealBreakfast); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	if sent := msgs.all(); len(sent) != 0 {
		t.Fatalf("sent %d messages, want none without menu data", len(sent))
	}
}

func TestTickFiresOncePerSlotPerDay(t *testing.T) {
	menus := &fakeMenuRepo{menus: map[string]map[domain.MealSlot]*domain.Menu{
		"2024-01-15": menuFor("2024-01-15"),
	}}
	msgs := &fakeMessageRepo{groups: []domain.Group{{ChatID: "g1@g.us"}}}
	s := newTestScheduler(menus, msgs)

	now := time.Date(2024, 1, 15, 7, 0, 0, 0, time.Local)
	s.now = func() time.Time { return now }

	s.tick(context.Background())
	s.tick(context.Background()) // same hour, must not fire again
	now = now.Add(30 * time.Minute)
	s.tick(context.Background())

	if sent := msgs.all(); len(sent) != 1 {
		t.Fatalf("sent %d messages, want exactly 1 breakfast broadcast", len(sent))
	}

	// Dinner hour is a separate slot and fires independently.
	now = time.Date(2024, 1, 15, 16, 0, 0, 0, time.Local)
	s.tick(context.Background())
	if sent := msgs.all(); len(sent) != 2 {
		t.Fatalf("sent %d messages, want breakfast + dinner", len(sent))
	}

	// Next day the slot fires again.
	now = time.Date(2024, 1, 16, 7, 0, 0, 0, time.Local)
	menus.menus["2024-01-16"] = menuFor("2024-01-16")
	s.tick(context.Background())
	if sent := msgs.all(); len(sent) != 3 {
		t.Fatalf("sent %d messages, want broadcast on the next day", len(sent))
	}
}

func TestTickOutsideNotifyHours(t *testing.T) {
	msgs := &fakeMessageRepo{groups: []domain.Group{{ChatID: "g1@g.us"}}}
	s := newTestScheduler(&fakeMenuRepo{}, msgs)
	s.now = func() time.Time { return time.Date(2024, 1, 15, 12, 30, 0, 0, time.Local) }

	s.tick(context.Background())
	if sent := msgs.all(); len(sent) != 0 {
		t.Fatalf("sent %d messages, want none outside notify hours", len(sent))
	}
}
