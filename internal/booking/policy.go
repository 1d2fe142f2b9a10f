package booking

// BookingHorizonDays is the fixed availability search window: today through
// two weeks out. A policy constant, not configuration.
const BookingHorizonDays = 14

// ReachedRequestCap reports whether a client has hit their provider's
// appointment-request limit. A non-positive limit means the provider imposes
// none. Pure function of its two inputs.
func ReachedRequestCap(count, limit int) bool {
	return limit > 0 && count >= limit
}
