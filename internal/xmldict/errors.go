package xmldict

import "fmt"

// CoerceError reports a scalar that parsed as a number but did not
// reproduce its original text when formatted back, e.g. "0012" or "72.0".
// Callers receive it wrapped with the mapping key for context.
type CoerceError struct {
	Value     string // the original string scalar
	RoundTrip string // what formatting the parsed value produced instead
}

func (e *CoerceError) Error() string {
	return fmt.Sprintf("coerce %q: round-trip produced %q", e.Value, e.RoundTrip)
}
