package wellappoint

import "time"

// FormatNaiveLocal renders t as "YYYY-MM-DD HH:mm" in t's own location.
// The upstream interprets naive time in the provider's local zone, so the
// user's wall-clock intent must survive serialization; converting through
// UTC here would shift the appointment.
func FormatNaiveLocal(t time.Time) string {
	return t.Format("2006-01-02 15:04")
}

// FormatDate renders a query date parameter as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// FormatDisplayDate renders an appointment date for display, e.g. "Mon Oct 20".
func FormatDisplayDate(t time.Time) string {
	return t.Format("Mon Jan 2")
}

// FormatDisplayTime renders an appointment time for display, e.g. "2:00 PM".
func FormatDisplayTime(t time.Time) string {
	return t.Format("3:04 PM")
}
