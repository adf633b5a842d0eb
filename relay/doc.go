// Package relay provides the Mullvad relay catalog for mullvad-ping.
//
// It covers everything that happens before probing:
//
//   - Server: one relay as published by the Mullvad API
//   - Client: downloads the relay list over HTTPS
//   - Cache: keeps the last downloaded list in a local sqlite database
//   - Catalog: serves the list from the cache or the API
//   - Criteria: include/exclude filters producing the candidate set
//   - Listings: country, city and provider summaries for the list commands
//
// Servers are treated as immutable once loaded. Filtering never mutates
// its input and always preserves catalog order.
package relay
