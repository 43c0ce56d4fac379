package clientdata

import "time"

// TTLs added to time.Now() when storing.
const (
	TTLExchangeRate = time.Hour
)

// StaleRetention is how long a row is kept after it expires. Expired exchange rates
// remain the fallback when every provider is down, so cleanup only drops old ones.
var StaleRetention = map[string]time.Duration{
	TableExchangeRate: 30 * 24 * time.Hour,
}
