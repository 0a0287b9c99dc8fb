package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/kykmenu/yemekbot/internal/biz/domain"
)

const (
	isoDate   = "2006-01-02"
	separator = "━━━━━━━━━━━━━━━━━━━━"
	footer    = "KYK Yemek Botu"

	// WhatsApp messages degrade around this size; longer texts are split.
	maxMessageLen = 4000
	splitAt       = 2000
)

var displayWeekdays = [...]string{
	"Pazar", "Pazartesi", "Salı", "Çarşamba", "Perşembe", "Cuma", "Cumartesi",
}

var displayMonths = [...]string{
	"Ocak", "Şubat", "Mart", "Nisan", "Mayıs", "Haziran",
	"Temmuz", "Ağustos", "Eylül", "Ekim", "Kasım", "Aralık",
}

// formatTurkishDate renders "Pazartesi, 15 Ocak 2024"
func formatTurkishDate(t time.Time) string {
	return fmt.Sprintf("%s, %d %s %d",
		displayWeekdays[int(t.Weekday())], t.Day(), displayMonths[int(t.Month())-1], t.Year())
}

// formatMenuMessage renders the combined breakfast + dinner reply for one day
func formatMenuMessage(breakfast, dinner *domain.Menu, date string, explicit bool, today time.Time) string {
	t, err := time.Parse(isoDate, date)
	if err != nil {
		t = today
	}

	// When the user asked for a specific date, flag today/tomorrow.
	dateTag := ""
	if explicit {
		switch date {
		case today.Format(isoDate):
			dateTag = " (Bugün)"
		case today.AddDate(0, 0, 1).Format(isoDate):
			dateTag = " (Yarın)"
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🍽️ *%s Yemek Menüsü%s*\n", formatTurkishDate(t), dateTag)
	b.WriteString(separator + "\n\n")

	b.WriteString("🌤️ *KAHVALTI*\n")
	if breakfast.HasDishes() {
		for i, dish := range breakfast.Dishes {
			fmt.Fprintf(&b, "%d. %s\n", i+1, dish)
		}
	} else {
		b.WriteString("⚠️ Kahvaltı menüsü bulunamadı\n")
	}

	b.WriteString("\n" + separator + "\n\n")

	b.WriteString("🌙 *AKŞAM YEMEĞİ*\n")
	if dinner.HasDishes() {
		for i, dish := range dinner.Dishes {
			fmt.Fprintf(&b, "%d. %s\n", i+1, dish)
		}
	} else {
		b.WriteString("⚠️ Akşam yemeği menüsü bulunamadı\n")
	}

	if breakfast != nil && breakfast.Note != "" {
		b.WriteString("\n\n⚠️ " + breakfast.Note)
	}
	if dinner != nil && dinner.Note != "" {
		b.WriteString("\n\n⚠️ " + dinner.Note)
	}

	b.WriteString("\n\n" + separator + "\n")
	b.WriteString("💡 Yapabileceklerinizi öğrenmek için \"@bot yardım\" yazın\n\n")
	b.WriteString(separator + "\n")
	b.WriteString(footer)
	return b.String()
}

// dayMenus is one day of the weekly overview
type dayMenus struct {
	date      time.Time
	breakfast *domain.Menu
	dinner    *domain.Menu
}

// formatWeeklyMessage renders the compact 7-day overview
func formatWeeklyMessage(days []dayMenus) string {
	var b strings.Builder
	b.WriteString("📅 *Haftalık Yemek Menüsü*\n")
	b.WriteString(separator + "\n\n")

	for _, d := range days {
		fmt.Fprintf(&b, "📆 *%s, %d %s*\n",
			displayWeekdays[int(d.date.Weekday())], d.date.Day(), displayMonths[int(d.date.Month())-1])
		if d.breakfast.HasDishes() {
			fmt.Fprintf(&b, "🌤️ *Kahvaltı:* %s\n", previewDishes(d.breakfast.Dishes))
		}
		if d.dinner.HasDishes() {
			fmt.Fprintf(&b, "🌙 *Akşam:* %s\n", previewDishes(d.dinner.Dishes))
		}
		b.WriteString("\n")
	}

	b.WriteString(separator + "\n")
	b.WriteString(footer)
	return b.String()
}

// previewDishes shows the first two dishes with an ellipsis for the rest
func previewDishes(dishes []string) string {
	if len(dishes) <= 2 {
		return strings.Join(dishes, ", ")
	}
	return strings.Join(dishes[:2], ", ") + "..."
}

// formatNotification renders a single-slot broadcast message
func formatNotification(m *domain.Menu, t time.Time) string {
	var b strings.Builder
	header := "🌙 *%s, %d %s - AKŞAM YEMEĞİ MENÜSÜ*\n"
	if m.Slot == domain.MealBreakfast {
		header = "🌤️ *%s, %d %s - KAHVALTI MENÜSÜ*\n"
	}
	fmt.Fprintf(&b, header, displayWeekdays[int(t.Weekday())], t.Day(), displayMonths[int(t.Month())-1])
	b.WriteString(separator + "\n\n")
	for i, dish := range m.Dishes {
		fmt.Fprintf(&b, "%d. %s\n", i+1, dish)
	}
	b.WriteString("\n" + separator + "\n")
	b.WriteString(footer)
	return b.String()
}

// groupHelpText is the help reply for group chats
func groupHelpText() string {
	return `📋 *KYK Yemek Botu - Komutlar*

🔹 *Temel Komutlar:*
• ` + "`help`" + ` veya ` + "`yardım`" + ` - Bu yardım mesajı
• ` + "`menu`" + ` veya ` + "`menü`" + ` - Bugünün yemek menüsü
• ` + "`bugün`" + ` - Bugünün yemek menüsü
• ` + "`yarın`" + ` - Yarının yemek menüsü
• ` + "`haftalık`" + ` veya ` + "`week`" + ` - Bu haftanın yemek menüsü

🔹 *Kullanım:*
• Bot numarasını etiketleyin: ` + "`@bot`" + `
• Komut yazın: ` + "`@bot help`" + ` veya ` + "`@bot menu`" + `
• Veya sadece "yemek" yazın

🔹 *Tarih Sorgulama:*
• "yarın", "pazartesi", "10 aralık" gibi ifadeler kullanabilirsiniz

🔹 *Örnekler:*
• ` + "`@bot menu`" + ` - Bugünün menüsü
• ` + "`@bot pazartesi`" + ` - Pazartesi menüsü
• ` + "`@bot 15 aralık`" + ` - Belirli tarih menüsü

` + separator + `
` + footer
}

// privateHelpText is the help reply for direct chats; withWelcome prepends
// the first-contact greeting used by the start command.
func privateHelpText(withWelcome bool) string {
	welcome := ""
	if withWelcome {
		welcome = "👋 *Hoş Geldiniz!*\n\n"
	}
	return welcome + `📋 *KYK Yemek Botu - Özel Mesaj Komutları*

🔹 *Temel Komutlar:*
• ` + "`start`" + ` veya ` + "`başla`" + ` - Botu başlat
• ` + "`help`" + ` veya ` + "`yardım`" + ` - Bu yardım mesajı
• ` + "`menu`" + ` veya ` + "`menü`" + ` - Bugünün yemek menüsü
• ` + "`yarın`" + ` - Yarının yemek menüsü
• ` + "`haftalık`" + ` veya ` + "`week`" + ` - Bu haftanın yemek menüsü

🔹 *Kullanım:*
• Özel mesajda mention gerekmez, sadece komut yazın
• "yarın", "pazartesi", "10 aralık" gibi tarih ifadeleri de çalışır

💡 *İpucu:* Herhangi bir mesaj yazarsanız bu yardım mesajını görürsünüz.

` + separator + `
` + footer
}

// unknownCommandText is the reply for an unmatched single-token command
func unknownCommandText(token string) string {
	return fmt.Sprintf(`⚠️ Bilinmeyen komut: "%s"

📋 Kullanılabilir komutlar:
• help - Yardım
• menu - Bugünün menüsü
• yarın - Yarının menüsü
• haftalık - Haftalık menü

💡 İPUCU: Sadece botu etiketlemek de yeterli! (@bot)
Tüm komutlar için: @bot help`, token)
}

// splitMessage splits an overlong text at the last newline before splitAt.
// Returns the original text as a single part when it fits.
func splitMessage(text string) []string {
	if len(text) <= maxMessageLen {
		return []string{text}
	}
	cut := strings.LastIndex(text[:splitAt], "\n")
	if cut <= 0 {
		cut = splitAt
	}
	return []string{text[:cut], text[cut+1:]}
}
