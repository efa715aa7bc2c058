// Package wled is a small client for the HTTP API of WLED lighting
// controllers.
//
// Only the endpoints the backup and time-configuration tools need are
// covered:
//
//	GET  /cfg.json        device configuration (id.name is the device name)
//	GET  /presets.json    presets document (older firmware backup)
//	GET  /edit?list=/     flat listing of the device filesystem
//	GET  /<path>          raw file contents
//	POST /settings/time   time and location settings form
//	WS   /ws              live state feed; the first message is a full snapshot
//
// JSON fetches return an Outcome instead of an error so callers can tell
// "nothing there" (Unreachable) from "something there, but broken"
// (InvalidResponse). Response bodies are returned exactly as received so
// backups are byte-for-byte copies.
//
// The API is unauthenticated and plain HTTP. Every request carries a short
// timeout; there is no retry.
package wled
