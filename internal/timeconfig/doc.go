// Package timeconfig applies NTP, location and timezone settings to WLED
// devices by submitting the device's /settings/time form.
//
// Hosts are not checked first: every address of the subnet is sent the form,
// and addresses without a device simply fail and are logged.
package timeconfig
