// Package locale 提供站点统一使用的挪威语（bokmål）日期格式。
package locale

import (
	"strconv"
	"time"
	_ "time/tzdata"
)

const (
	Language = "nb"
	HTMLLang = "nb-NO"
	TimeZone = "Europe/Oslo"
)

var months = [...]string{
	"januar", "februar", "mars", "april", "mai", "juni",
	"juli", "august", "september", "oktober", "november", "desember",
}

var location = loadLocation()

func loadLocation() *time.Location {
	loc, err := time.LoadLocation(TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Location returns the newsroom time zone.
func Location() *time.Location {
	return location
}

// MonthName 返回小写的挪威语月份名。
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return months[m-1]
}

// FormatDate 格式化为 "1. april 2025"，零值返回空字符串。
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	local := t.In(location)
	return strconv.Itoa(local.Day()) + ". " + MonthName(local.Month()) + " " + strconv.Itoa(local.Year())
}

// FormatDateTime 格式化为 "1. april 2025 kl. 10.00"。
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return FormatDate(t) + " kl. " + t.In(location).Format("15.04")
}
