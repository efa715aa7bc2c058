// Package discovery finds WLED devices with multicast DNS.
//
// WLED advertises itself as "_wled._tcp" in the "local." domain. A Scanner
// browses for a fixed window and returns every device that announced an
// address, IPv4 preferred. The backup tool appends these addresses to the
// hosts expanded from its subnet arguments with AppendHosts.
//
// mDNS only reaches the local network segment and needs UDP port 5353 open.
package discovery
