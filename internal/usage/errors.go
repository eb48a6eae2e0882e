package usage

import "errors"

// ErrQuotaExceeded indicates the user has spent this month's allowance.
var ErrQuotaExceeded = errors.New("monthly query quota exceeded")
