package provider

import "fmt"

// MissingFieldError reports a request field that a gateway requires but that
// was empty on the incoming request. Callers can match it with errors.As and
// inspect Field to tell the client exactly what to fix.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("required field is missing: %s", e.Field)
}

// UnsupportedCurrencyError reports a currency code the target gateway has no
// numeric mapping for.
type UnsupportedCurrencyError struct {
	Currency string
}

func (e *UnsupportedCurrencyError) Error() string {
	return fmt.Sprintf("unsupported currency: %s", e.Currency)
}

// TransportError wraps a network or HTTP failure while talking to a gateway.
// It preserves the underlying error for errors.Is/errors.As chains.
type TransportError struct {
	Provider string
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: request to %s failed: %v", e.Provider, e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
