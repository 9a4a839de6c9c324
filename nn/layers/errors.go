package layers

// Error is a constant error value. Sentinels of this type compare equal with
// errors.Is even after being wrapped.
type Error string

func (e Error) Error() string {
	return string(e)
}

// Errors reported by layers and neurons.
const (
	ErrPrecondition      = Error("input length does not match layer input width")
	ErrUnknownActivation = Error("unsupported activation kind")
	ErrInvalidShape      = Error("layer dimensions must be positive")
)
