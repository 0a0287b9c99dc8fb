// Package service orchestrates replies: it turns recognized commands and date
// queries into formatted menu messages and hands every outbound text to the
// dispatch queue, stamping cooldowns and send counters along the way.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kykmenu/yemekbot/internal/biz/domain"
	"github.com/kykmenu/yemekbot/internal/biz/repo"
	"github.com/kykmenu/yemekbot/internal/dispatch"
	"github.com/kykmenu/yemekbot/internal/gate"
)

// Orchestrator builds and dispatches replies for admitted inbound actions
type Orchestrator struct {
	menus  repo.MenuRepo
	weekly repo.MenuRepo // shorter-timeout client for the 14-fetch overview
	msgs   repo.MessageRepo
	gate   *gate.Gate
	queue  *dispatch.Queue

	now func() time.Time
}

// NewOrchestrator creates a reply orchestrator
func NewOrchestrator(menus, weekly repo.MenuRepo, msgs repo.MessageRepo, g *gate.Gate, q *dispatch.Queue) *Orchestrator {
	return &Orchestrator{
		menus:  menus,
		weekly: weekly,
		msgs:   msgs,
		gate:   g,
		queue:  q,
		now:    time.Now,
	}
}

// HandleCommand executes a recognized command and replies to the message
func (o *Orchestrator) HandleCommand(ctx context.Context, msg *domain.InboundMessage, cmd domain.Command) error {
	switch cmd {
	case domain.CommandStart:
		return o.reply(ctx, msg, privateHelpText(true))
	case domain.CommandHelp:
		if msg.IsGroup() {
			return o.reply(ctx, msg, groupHelpText())
		}
		return o.reply(ctx, msg, privateHelpText(false))
	case domain.CommandMenu, domain.CommandToday:
		return o.SendMenu(ctx, msg, o.now().Format(isoDate), false)
	case domain.CommandTomorrow:
		return o.SendMenu(ctx, msg, o.now().AddDate(0, 0, 1).Format(isoDate), true)
	case domain.CommandWeek:
		return o.SendWeekly(ctx, msg)
	}
	return nil
}

// SendMenu fetches both meal slots for the date and replies with the combined
// day view. explicit marks date expressions the user typed out, which get a
// today/tomorrow tag in the header.
func (o *Orchestrator) SendMenu(ctx context.Context, msg *domain.InboundMessage, date string, explicit bool) error {
	breakfast, errB := o.menus.Fetch(ctx, date, domain.MealBreakfast)
	dinner, errD := o.menus.Fetch(ctx, date, domain.MealDinner)

	if errB != nil && errD != nil {
		fmt.Printf("[Orchestrator] menu fetch failed for %s: %v / %v\n", date, errB, errD)
		return o.reply(ctx, msg, "⚠️ Menü servisine şu an ulaşılamıyor. Lütfen daha sonra tekrar deneyin.")
	}
	if !breakfast.HasDishes() && !dinner.HasDishes() {
		t, err := time.Parse(isoDate, date)
		if err != nil {
			t = o.now()
		}
		return o.reply(ctx, msg, fmt.Sprintf("⚠️ %s için menü henüz eklenmedi.", formatTurkishDate(t)))
	}

	return o.reply(ctx, msg, formatMenuMessage(breakfast, dinner, date, explicit, o.now()))
}

// SendWeekly replies with the compact 7-day overview starting today.
// Days with no data for either slot are skipped.
func (o *Orchestrator) SendWeekly(ctx context.Context, msg *domain.InboundMessage) error {
	today := o.now()
	var days []dayMenus
	for i := 0; i < 7; i++ {
		d := today.AddDate(0, 0, i)
		date := d.Format(isoDate)
		breakfast, dinner := o.fetchDay(ctx, date)
		if breakfast.HasDishes() || dinner.HasDishes() {
			days = append(days, dayMenus{date: d, breakfast: breakfast, dinner: dinner})
		}
	}
	if len(days) == 0 {
		return o.reply(ctx, msg, "⚠️ Bu hafta için menü henüz eklenmedi.")
	}
	return o.reply(ctx, msg, formatWeeklyMessage(days))
}

// fetchDay fetches both meal slots of one day concurrently on the
// short-timeout client. Fetch failures degrade to "no data" for that slot.
func (o *Orchestrator) fetchDay(ctx context.Context, date string) (breakfast, dinner *domain.Menu) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		var err error
		if breakfast, err = o.weekly.Fetch(ctx, date, domain.MealBreakfast); err != nil {
			fmt.Printf("[Orchestrator] weekly breakfast fetch failed for %s: %v\n", date, err)
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		if dinner, err = o.weekly.Fetch(ctx, date, domain.MealDinner); err != nil {
			fmt.Printf("[Orchestrator] weekly dinner fetch failed for %s: %v\n", date, err)
		}
	}()
	wg.Wait()
	return breakfast, dinner
}

// ReplyUnknownCommand answers an unmatched single-token command with the
// command list. It is a normal reply and stamps cooldowns like any other.
func (o *Orchestrator) ReplyUnknownCommand(ctx context.Context, msg *domain.InboundMessage, token string) error {
	return o.reply(ctx, msg, unknownCommandText(token))
}

// NoticeCooldown tells the user how long until their cooldown opens.
// Notices never stamp cooldowns themselves.
func (o *Orchestrator) NoticeCooldown(ctx context.Context, msg *domain.InboundMessage, seconds int) error {
	return o.notice(ctx, msg, fmt.Sprintf("⏳ Lütfen %d saniye bekleyin.", seconds))
}

// NoticeUserRate tells the user their hourly request budget is spent
func (o *Orchestrator) NoticeUserRate(ctx context.Context, msg *domain.InboundMessage, minutes int) error {
	return o.notice(ctx, msg,
		fmt.Sprintf("⏳ Saatlik istek limitine ulaştınız. %d dakika sonra tekrar deneyin.", minutes))
}

// reply splits overlong texts, enqueues each part in order, stamps the
// cooldowns and blocks until the final part has been handed to the transport.
func (o *Orchestrator) reply(ctx context.Context, msg *domain.InboundMessage, text string) error {
	parts := splitMessage(text)
	var last <-chan error
	for _, part := range parts {
		p := part
		last = o.queue.Enqueue(func() error {
			return o.deliver(ctx, msg.ChatID, msg.MsgID, p)
		})
	}
	o.gate.SetCooldown(msg.SenderID, msg.ChatID)
	return <-last
}

// notice enqueues a single rejection notice without touching cooldowns
func (o *Orchestrator) notice(ctx context.Context, msg *domain.InboundMessage, text string) error {
	done := o.queue.Enqueue(func() error {
		return o.deliver(ctx, msg.ChatID, msg.MsgID, text)
	})
	return <-done
}

// deliver performs one physical send: reply first, one plain-text fallback on
// failure. Each successful send increments the global counters.
func (o *Orchestrator) deliver(ctx context.Context, chatID, msgID, text string) error {
	if err := o.msgs.Reply(ctx, chatID, msgID, text); err != nil {
		fmt.Printf("[Orchestrator] reply to %s failed, retrying as plain send: %v\n", chatID, err)
		if err := o.msgs.SendText(ctx, chatID, text); err != nil {
			return err
		}
	}
	o.gate.RecordSend()
	return nil
}
