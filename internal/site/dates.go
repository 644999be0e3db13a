package site

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/goodsign/monday"
)

// UnknownDate is shown for notes without any timestamp.
const UnknownDate = "Unknown date"

// stamp is a calendar timestamp as written in note properties. Fields keep
// the written values; month and day are not normalised.
type stamp struct {
	year, month, day  int
	hour, minute, sec int
	hasTime           bool
}

// ParseLocale maps a locale name such as "en_US" or "de-DE" to a monday
// locale. The empty string selects en_US.
func ParseLocale(name string) (monday.Locale, bool) {
	if name == "" {
		return monday.LocaleEnUS, true
	}
	name = strings.ReplaceAll(name, "-", "_")
	for _, l := range monday.ListLocales() {
		if strings.EqualFold(string(l), name) {
			return l, true
		}
	}
	return "", false
}

// Dates formats note timestamps for display.
type Dates struct {
	Locale monday.Locale
}

// Naturalize renders "20240102150405", "20240102T1504" or "2024-01-02T15:04"
// as "January 2nd, 2024 at 3:04 PM". Empty input yields UnknownDate and
// input that cannot be read as a date is returned unchanged.
func (d Dates) Naturalize(s string) string {
	if s == "" {
		return UnknownDate
	}
	st, ok := parseStamp(s)
	if !ok {
		return s
	}
	out := fmt.Sprintf("%s %s, %d", d.monthName(st.month), d.ordinal(st.day), st.year)
	if st.hasTime {
		out += " at " + clock(st.hour, st.minute)
	}
	return out
}

// ISO renders s as an RFC 3339 UTC timestamp for OpenGraph tags, or "" when
// s carries no date.
func (Dates) ISO(s string) string {
	st, ok := parseStamp(s)
	if !ok || st.month < 1 || st.month > 12 {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02dZ", st.year, st.month, st.day, st.hour, st.minute, st.sec)
}

func (d Dates) monthName(m int) string {
	if m < 1 || m > 12 {
		return "Unknown"
	}
	locale := d.Locale
	if locale == "" {
		locale = monday.LocaleEnUS
	}
	return monday.Format(time.Date(2000, time.Month(m), 1, 0, 0, 0, 0, time.UTC), "January", locale)
}

// ordinal adds the English suffix to day; other locales get the bare number.
func (d Dates) ordinal(day int) string {
	if d.Locale != "" && !strings.HasPrefix(string(d.Locale), "en") {
		return strconv.Itoa(day)
	}
	switch day {
	case 1, 21, 31:
		return fmt.Sprintf("%dst", day)
	case 2, 22:
		return fmt.Sprintf("%dnd", day)
	case 3, 23:
		return fmt.Sprintf("%drd", day)
	}
	return fmt.Sprintf("%dth", day)
}

func clock(hour, minute int) string {
	h12 := hour
	switch {
	case hour == 0:
		h12 = 12
	case hour > 12:
		h12 = hour - 12
	}
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	return fmt.Sprintf("%d:%02d %s", h12, minute, suffix)
}

func digits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// parseStamp reads the compact note form YYYYMMDD[hhmmss|Thhmm], ISO dates
// YYYY-MM-DD[Thh:mm], and anything else dateparse understands.
func parseStamp(s string) (stamp, bool) {
	switch {
	case len(s) >= 8 && digits(s[:8]):
		st := stamp{year: atoi(s[:4]), month: atoi(s[4:6]), day: atoi(s[6:8])}
		switch {
		case len(s) >= 14 && digits(s[8:14]):
			st.hour, st.minute, st.sec = atoi(s[8:10]), atoi(s[10:12]), atoi(s[12:14])
			st.hasTime = true
		case len(s) >= 13 && s[8] == 'T' && digits(s[9:13]):
			st.hour, st.minute = atoi(s[9:11]), atoi(s[11:13])
			st.hasTime = true
		}
		return st, true

	case len(s) >= 10 && s[4] == '-' && s[7] == '-' && digits(s[:4]) && digits(s[5:7]) && digits(s[8:10]):
		st := stamp{year: atoi(s[:4]), month: atoi(s[5:7]), day: atoi(s[8:10])}
		if len(s) >= 16 && s[10] == 'T' && digits(s[11:13]) && s[13] == ':' && digits(s[14:16]) {
			st.hour, st.minute = atoi(s[11:13]), atoi(s[14:16])
			st.hasTime = true
			if len(s) >= 19 && s[16] == ':' && digits(s[17:19]) {
				st.sec = atoi(s[17:19])
			}
		}
		return st, true
	}

	t, err := dateparse.ParseAny(s)
	if err != nil {
		return stamp{}, false
	}
	return stamp{
		year: t.Year(), month: int(t.Month()), day: t.Day(),
		hour: t.Hour(), minute: t.Minute(), sec: t.Second(),
		hasTime: t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0,
	}, true
}
