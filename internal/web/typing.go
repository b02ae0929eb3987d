package web

// TypingIndicator asks the web client to show a typing animation for Timeout seconds.
type TypingIndicator struct {
	Timeout float64
}

// NewTypingIndicator creates a typing indicator; non-positive timeouts become one second.
func NewTypingIndicator(timeout float64) *TypingIndicator {
	if timeout <= 0 {
		timeout = 1
	}
	return &TypingIndicator{Timeout: timeout}
}

// ToWebDriver implements messages.WebAccess.
func (t *TypingIndicator) ToWebDriver() map[string]any {
	return map[string]any{
		"type":    "typing_indicator",
		"timeout": t.Timeout,
	}
}
