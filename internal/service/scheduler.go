package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kykmenu/yemekbot/internal/biz/domain"
	"github.com/kykmenu/yemekbot/internal/biz/repo"
	"github.com/kykmenu/yemekbot/internal/conf"
	"github.com/kykmenu/yemekbot/internal/dispatch"
	"github.com/kykmenu/yemekbot/internal/gate"
)

// NotifyScheduler broadcasts the breakfast and dinner menus to every known
// group once per day at the configured hours.
type NotifyScheduler struct {
	cfg   conf.NotifyConfig
	menus repo.MenuRepo
	msgs  repo.MessageRepo
	gate  *gate.Gate
	queue *dispatch.Queue

	mu        sync.Mutex
	lastFired map[domain.MealSlot]string // slot -> ISO date already broadcast

	now   func() time.Time
	sleep func(time.Duration)

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewNotifyScheduler creates a daily notification scheduler
func NewNotifyScheduler(cfg conf.NotifyConfig, menus repo.MenuRepo, msgs repo.MessageRepo, g *gate.Gate, q *dispatch.Queue) *NotifyScheduler {
	return &NotifyScheduler{
		cfg:       cfg,
		menus:     menus,
		msgs:      msgs,
		gate:      g,
		queue:     q,
		lastFired: make(map[domain.MealSlot]string),
		now:       time.Now,
		sleep:     time.Sleep,
	}
}

// Start launches the minute tick loop
func (s *NotifyScheduler) Start(ctx context.Context) {
	if !s.cfg.Enabled {
		fmt.Println("[NotifyScheduler] daily notifications disabled")
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		fmt.Printf("[NotifyScheduler] started (breakfast %02d:00, dinner %02d:00)\n",
			s.cfg.BreakfastHour, s.cfg.DinnerHour)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

// Stop stops the tick loop and waits for an in-flight broadcast to finish
func (s *NotifyScheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// tick fires at most one broadcast per slot per calendar day
func (s *NotifyScheduler) tick(ctx context.Context) {
	now := s.now()
	var slot domain.MealSlot
	switch now.Hour() {
	case s.cfg.BreakfastHour:
		slot = domain.MealBreakfast
	case s.cfg.DinnerHour:
		slot = domain.MealDinner
	default:
		return
	}

	date := now.Format(isoDate)
	s.mu.Lock()
	fired := s.lastFired[slot] == date
	if !fired {
		s.lastFired[slot] = date
	}
	s.mu.Unlock()
	if fired {
		return
	}

	if err := s.Broadcast(ctx, slot); err != nil {
		fmt.Printf("[NotifyScheduler] broadcast failed: %v\n", err)
	}
}

// Broadcast fetches the slot menu for today and sends it to every group,
// pausing between groups. A day without menu data is skipped silently.
func (s *NotifyScheduler) Broadcast(ctx context.Context, slot domain.MealSlot) error {
	now := s.now()
	menu, err := s.menus.Fetch(ctx, now.Format(isoDate), slot)
	if err != nil {
		return fmt.Errorf("failed to fetch %s menu: %w", slot, err)
	}
	if !menu.HasDishes() {
		fmt.Printf("[NotifyScheduler] no %s menu for %s, skipping broadcast\n", slot, now.Format(isoDate))
		return nil
	}

	groups, err := s.msgs.Groups(ctx)
	if err != nil {
		return fmt.Errorf("failed to list groups: %w", err)
	}

	text := formatNotification(menu, now)
	for i, g := range groups {
		chatID := g.ChatID
		done := s.queue.Enqueue(func() error {
			if err := s.msgs.SendText(ctx, chatID, text); err != nil {
				return err
			}
			s.gate.RecordSend()
			return nil
		})
		if err := <-done; err != nil {
			fmt.Printf("[NotifyScheduler] send to %s failed: %v\n", chatID, err)
		}
		if i < len(groups)-1 {
			s.sleep(s.cfg.InterGroupWait)
		}
	}
	fmt.Printf("[NotifyScheduler] %s broadcast sent to %d groups\n", slot, len(groups))
	return nil
}
