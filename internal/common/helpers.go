// Package common contains helpers shared across the project:
// timezone handling for the daily window and number/date formatting.
package common

import (
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// LoadLocation loads the IANA zone used for the daily window.
// Falls back to UTC-3 (Brasília) when the tzdata is missing in the image.
func LoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.WithError(err).WithField("timezone", name).Warn("Unable to load timezone, using UTC-3")
		return time.FixedZone("BRT", -3*60*60)
	}
	return loc
}

// LocalDate truncates t to midnight of its calendar date in loc.
func LocalDate(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// IsEarlierDate reports whether the calendar date of a in loc is strictly
// before the calendar date of b in loc.
//
// Examples (loc = America/Sao_Paulo):
//
//	IsEarlierDate(23:59 on the 1st, 00:00 on the 2nd) → true
//	IsEarlierDate(00:00 on the 2nd, 23:59 on the 2nd) → false
func IsEarlierDate(a, b time.Time, loc *time.Location) bool {
	return LocalDate(a, loc).Before(LocalDate(b, loc))
}

// FormatDateTime formats t as "02/01/2006 15:04" in loc.
func FormatDateTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("02/01/2006 15:04")
}

// DisplayName builds the human-readable handle of a Telegram user:
// "@username" when set, otherwise first name plus last name.
func DisplayName(username, firstName, lastName string) string {
	if username != "" {
		return "@" + username
	}
	name := strings.TrimSpace(firstName + " " + lastName)
	if name == "" {
		return "Usuário"
	}
	return name
}
