package jwkset

import "math"

// NeverExpires represents an infinite TTL: expirationTime saturates at
// math.MaxInt64 instead of overflowing, so a "forever" cache is expressed
// the same way as any other and never compares as expired.
const NeverExpires int64 = math.MaxInt64

// CachedObject holds a value alongside the millisecond timestamp it was
// produced at and the millisecond time it expires. The invariant
// timestamp <= expirationTime always holds.
type CachedObject struct {
	Value          *JWKSet
	Timestamp      int64
	ExpirationTime int64
}

// NewCachedObject builds a CachedObject whose expiration saturates at
// NeverExpires rather than overflowing when ttlMillis is very large or
// equal to NeverExpires itself.
func NewCachedObject(value *JWKSet, timestampMillis int64, ttlMillis int64) CachedObject {
	return CachedObject{
		Value:          value,
		Timestamp:      timestampMillis,
		ExpirationTime: saturatingAdd(timestampMillis, ttlMillis),
	}
}

func saturatingAdd(a, b int64) int64 {
	if b >= NeverExpires-a {
		return NeverExpires
	}
	return a + b
}

// IsValid reports timestamp <= now < expirationTime.
func (c CachedObject) IsValid(now int64) bool {
	return c.Timestamp <= now && now < c.ExpirationTime
}

// IsExpired reports now >= expirationTime.
func (c CachedObject) IsExpired(now int64) bool {
	return now >= c.ExpirationTime
}
