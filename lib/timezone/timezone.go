package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Asia/Taipei")
	if err != nil {
		panic(err)
	}
}

// force timezone to be Taipei because the hospital publishes schedule
// dates in local time while the job runner may be hosted anywhere,
// which would skew date math based on <time.Time>.Year()/Month()/Day()
func Now() time.Time {
	return time.Now().In(Location)
}

// ParseRegisterDate parses a date in the registration form's
// YYYY/MM/DD format, anchored to the hospital's timezone.
func ParseRegisterDate(s string) (time.Time, error) {
	return time.ParseInLocation("2006/01/02", s, Location)
}
