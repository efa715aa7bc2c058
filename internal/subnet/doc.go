// Package subnet expands CIDR notation into the ordered list of host
// addresses a sweep visits.
//
// Expansion is pure: nothing here touches the network. Both IPv4 and IPv6
// are supported, and single-host networks always yield their one address.
package subnet
