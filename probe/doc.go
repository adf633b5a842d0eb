// Package probe measures round-trip latency to relays.
//
// A Prober runs one probe per relay on a fixed-size worker pool, so no
// more than Options.Concurrency probes are ever in flight. Each probe is a
// single echo-style request bounded by Options.Timeout; a probe that times
// out or cannot reach its relay yields a failed Result rather than an
// error. Probe returns only after every relay has exactly one Result.
//
// Three Pinger implementations are provided:
//
//   - SystemPinger runs the system ping binary once per relay
//   - ICMPPinger sends an ICMP echo request from Go
//   - TCPPinger measures the TCP handshake to a relay port
//
// # Thread Safety
//
// Prober and all pingers are safe for concurrent use.
package probe
