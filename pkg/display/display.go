// Package display owns the UI execution context and the surfaces that show
// verdicts to the user.
//
// Sinks and notifiers are only ever called from the goroutine running the
// Loop. Other goroutines hand work to it with Post.
package display

import (
	"log/slog"
)

// Sink renders the current verdict text.
type Sink interface {
	SetVerdictText(text string)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(text string)

// SetVerdictText calls f(text).
func (f SinkFunc) SetVerdictText(text string) {
	f(text)
}

// Notifier shows a one-button, dismissible notice.
type Notifier interface {
	ShowNotice(msg string)
}

// Dispatcher accepts work for the UI execution context.
// Post must never block the caller.
type Dispatcher interface {
	Post(fn func())
}

// Console logs verdict changes. It is the sink used when no window is open.
type Console struct {
	logger *slog.Logger
	text   string
}

// NewConsole creates a console sink.
func NewConsole(logger *slog.Logger) *Console {
	if logger == nil {
		logger = slog.Default()
	}
	return &Console{logger: logger}
}

// SetVerdictText logs text when it differs from the previous verdict.
func (c *Console) SetVerdictText(text string) {
	if text == c.text {
		return
	}
	c.text = text
	c.logger.Info("verdict", "text", text)
}

// ShowNotice logs the notice at warn level.
func (c *Console) ShowNotice(msg string) {
	c.logger.Warn("notice", "message", msg)
}

// Text returns the last verdict text.
func (c *Console) Text() string {
	return c.text
}

// Multi fans verdicts and notices out to several surfaces.
type Multi []Sink

// SetVerdictText forwards text to every sink.
func (m Multi) SetVerdictText(text string) {
	for _, s := range m {
		s.SetVerdictText(text)
	}
}

// ShowNotice forwards msg to every sink that is also a Notifier.
func (m Multi) ShowNotice(msg string) {
	for _, s := range m {
		if n, ok := s.(Notifier); ok {
			n.ShowNotice(msg)
		}
	}
}
