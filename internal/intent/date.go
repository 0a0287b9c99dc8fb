package intent

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const isoDate = "2006-01-02"

// Longest names first so that "pazartesi" is not swallowed by "pazar" and
// "cumartesi" not by "cuma".
var turkishWeekdays = []struct {
	name string
	day  time.Weekday
}{
	{"pazartesi", time.Monday},
	{"cumartesi", time.Saturday},
	{"çarşamba", time.Wednesday},
	{"perşembe", time.Thursday},
	{"pazar", time.Sunday},
	{"salı", time.Tuesday},
	{"cuma", time.Friday},
}

var turkishMonths = []string{
	"ocak", "şubat", "mart", "nisan", "mayıs", "haziran",
	"temmuz", "ağustos", "eylül", "ekim", "kasım", "aralık",
}

var (
	dayBeforeMonth = regexp.MustCompile(`(\d{1,2})\s*$`)
	isoPattern     = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	dmyPattern     = regexp.MustCompile(`(\d{1,2})[./](\d{1,2})(?:[./](\d{4}))?`)
)

// ExtractDate parses a date expression embedded in free text into an ISO
// calendar date. Resolution order, first match wins: literal relative
// keywords, weekday names, "<day> <month-name>", explicit ISO dates, then
// day/month[/year] with separators. A false result means no date expression
// was found and the caller should use today.
func ExtractDate(body string, today time.Time) (string, bool) {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return "", false
	}
	lower := strings.ToLower(trimmed)
	todayStr := today.Format(isoDate)

	if strings.Contains(lower, "yarın") || strings.Contains(lower, "yarn") {
		return today.AddDate(0, 0, 1).Format(isoDate), true
	}
	if strings.Contains(lower, "bugün") || strings.Contains(lower, "bugun") {
		return todayStr, true
	}

	// Weekday name: the next occurrence strictly after today. A name equal
	// to today's weekday rolls a full week forward.
	for _, wd := range turkishWeekdays {
		if strings.Contains(lower, wd.name) {
			days := int(wd.day) - int(today.Weekday())
			if days <= 0 {
				days += 7
			}
			return today.AddDate(0, 0, days).Format(isoDate), true
		}
	}

	// "<day-number> <month-name>" in the current year. A candidate already in
	// the past rolls to next year only when its month is past too; an
	// already-past day earlier this month stays in the current year.
	for i, month := range turkishMonths {
		idx := strings.Index(lower, month)
		if idx < 0 {
			continue
		}
		start := idx - 15
		if start < 0 {
			start = 0
		}
		m := dayBeforeMonth.FindStringSubmatch(strings.TrimSpace(lower[start:idx]))
		if m == nil {
			continue
		}
		day, _ := strconv.Atoi(m[1])
		if day < 1 || day > 31 {
			continue
		}
		year := today.Year()
		mon := i + 1
		if !validDate(year, mon, day) {
			continue
		}
		candidate := fmt.Sprintf("%04d-%02d-%02d", year, mon, day)
		if candidate < todayStr && mon < int(today.Month()) {
			candidate = fmt.Sprintf("%04d-%02d-%02d", year+1, mon, day)
		}
		return candidate, true
	}

	// Explicit ISO date anywhere in the text, used verbatim.
	if m := isoPattern.FindString(trimmed); m != "" {
		return m, true
	}

	// day/month[/year] with separators. Year defaults to the current year;
	// a past date without an explicit year rolls one year forward.
	if m := dmyPattern.FindStringSubmatch(trimmed); m != nil {
		day, _ := strconv.Atoi(m[1])
		mon, _ := strconv.Atoi(m[2])
		year := today.Year()
		explicitYear := m[3] != ""
		if explicitYear {
			year, _ = strconv.Atoi(m[3])
		}
		if !validDate(year, mon, day) {
			return "", false
		}
		candidate := fmt.Sprintf("%04d-%02d-%02d", year, mon, day)
		if candidate < todayStr && !explicitYear {
			candidate = fmt.Sprintf("%04d-%02d-%02d", year+1, mon, day)
		}
		return candidate, true
	}

	return "", false
}

// validDate checks that the components survive a round-trip through
// time.Date without normalization shifting them.
func validDate(year, month, day int) bool {
	t := time.Date(year, time.Month(month), day, 12, 0, 0, 0, time.UTC)
	return t.Year() == year && int(t.Month()) == month && t.Day() == day
}
