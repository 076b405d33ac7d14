// File: servease/utils/constants.go
package utils

import "time"

// AuthCachePrefix is the prefix used for Redis authorization cache keys.
const AuthCachePrefix = "auth:"

// AuthCacheTTL is the time-to-live for authorization cache entries.
const AuthCacheTTL = 10 * time.Minute

// PresencePrefix is the prefix for provider presence keys.
const PresencePrefix = "presence:"

// PresenceTTL bounds how long a provider counts as reachable after its
// last heartbeat.
const PresenceTTL = 45 * time.Second
