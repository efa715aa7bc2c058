package timeconfig

import "net/url"

// Form fields of the WLED time settings page
const (
	FieldNTPEnabled     = "NT"
	FieldNTPServer      = "NS"
	FieldLatitude       = "LT"
	FieldLongitude      = "LN"
	FieldCustomTimezone = "CF"
	FieldTimezone       = "TZ"
	FieldUTCOffset      = "UO"
)

// Settings holds the optional time and location values to apply. A nil
// field is left untouched on the device.
type Settings struct {
	// NTPServer enables NTP with this server
	NTPServer *string

	// Lat and Lon are sent as given, e.g. "52.37"
	Lat *string
	Lon *string

	// TimeZoneIndex selects an entry of WLED's timezone list and resets the
	// UTC offset override
	TimeZoneIndex *string
}

// Empty reports whether no setting was supplied.
func (s Settings) Empty() bool {
	return s.NTPServer == nil && s.Lat == nil && s.Lon == nil && s.TimeZoneIndex == nil
}

// FormData builds the form payload. Only supplied settings contribute
// fields; with nothing supplied the payload is empty.
func (s Settings) FormData() url.Values {
	form := url.Values{}
	if s.NTPServer != nil {
		form.Set(FieldNTPEnabled, "on")
		form.Set(FieldNTPServer, *s.NTPServer)
	}
	if s.Lat != nil {
		form.Set(FieldLatitude, *s.Lat)
	}
	if s.Lon != nil {
		form.Set(FieldLongitude, *s.Lon)
	}
	if s.TimeZoneIndex != nil {
		form.Set(FieldCustomTimezone, "on")
		form.Set(FieldTimezone, *s.TimeZoneIndex)
		form.Set(FieldUTCOffset, "0")
	}
	return form
}
