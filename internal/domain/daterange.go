package domain

import "time"

// DateFormat is the wire format for check-in/check-out dates.
const DateFormat = "2006-01-02"

// DateRange is a half-open interval of whole days: [CheckIn, CheckOut).
// Both endpoints are normalized to midnight UTC at construction, so two
// timestamps on the same calendar day compare equal. A zero DateRange is
// invalid; the constructors are the only way to obtain a usable value.
type DateRange struct {
	checkIn  time.Time
	checkOut time.Time
}

// NewDateRange normalizes both endpoints to day granularity and validates
// that checkIn is strictly before checkOut (minimum one night).
func NewDateRange(checkIn, checkOut time.Time) (DateRange, error) {
	in := truncateToDay(checkIn)
	out := truncateToDay(checkOut)

	if !in.Before(out) {
		return DateRange{}, &DateRangeError{
			CheckIn:  in.Format(DateFormat),
			CheckOut: out.Format(DateFormat),
			Reason:   "check-in must be before check-out",
		}
	}

	return DateRange{checkIn: in, checkOut: out}, nil
}

// ParseDateRange builds a DateRange from two "2006-01-02" strings.
func ParseDateRange(checkIn, checkOut string) (DateRange, error) {
	in, err := time.Parse(DateFormat, checkIn)
	if err != nil {
		return DateRange{}, &DateRangeError{
			CheckIn:  checkIn,
			CheckOut: checkOut,
			Reason:   "check-in is not a valid date",
		}
	}

	out, err := time.Parse(DateFormat, checkOut)
	if err != nil {
		return DateRange{}, &DateRangeError{
			CheckIn:  checkIn,
			CheckOut: checkOut,
			Reason:   "check-out is not a valid date",
		}
	}

	return NewDateRange(in, out)
}

// CheckIn returns the inclusive start of the range (midnight UTC).
func (r DateRange) CheckIn() time.Time { return r.checkIn }

// CheckOut returns the exclusive end of the range (midnight UTC).
func (r DateRange) CheckOut() time.Time { return r.checkOut }

// Overlaps reports whether two half-open ranges share at least one night.
// A range ending on day D does not overlap one starting on day D, so
// same-day turnover is allowed.
func (r DateRange) Overlaps(other DateRange) bool {
	return r.checkIn.Before(other.checkOut) && r.checkOut.After(other.checkIn)
}

// Nights returns the number of nights covered by the range.
func (r DateRange) Nights() int {
	return int(r.checkOut.Sub(r.checkIn).Hours() / 24)
}

// IsZero reports whether the range was never constructed.
func (r DateRange) IsZero() bool {
	return r.checkIn.IsZero() && r.checkOut.IsZero()
}

func (r DateRange) String() string {
	return r.checkIn.Format(DateFormat) + "/" + r.checkOut.Format(DateFormat)
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
