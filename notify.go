package partsdb

import "github.com/sirupsen/logrus"

// Severity classifies a user-facing message.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notifier receives one-way, fire-and-forget updates from the sync
// worker: zero or more Progress calls, possibly warnings via Message,
// then exactly one terminal event, either Done on success or an
// error-severity Message on failure. The worker never blocks on the
// consumer.
type Notifier interface {
	Progress(percent float64)
	Message(title, text string, severity Severity)
	Done(summary string)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) Progress(float64)                 {}
func (NopNotifier) Message(string, string, Severity) {}
func (NopNotifier) Done(string)                      {}

// LogNotifier mirrors notifications into the log.
type LogNotifier struct{}

func (LogNotifier) Progress(percent float64) {
	logrus.Debugf("progress %.0f%%", percent)
}

func (LogNotifier) Message(title, text string, severity Severity) {
	switch severity {
	case SeverityError:
		logrus.Errorf("%s: %s", title, text)
	case SeverityWarning:
		logrus.Warnf("%s: %s", title, text)
	default:
		logrus.Infof("%s: %s", title, text)
	}
}

func (LogNotifier) Done(summary string) {
	logrus.Info(summary)
}

// EventKind discriminates ChannelNotifier events.
type EventKind int

const (
	EventProgress EventKind = iota
	EventMessage
	EventDone
)

// Event is one notification delivered over a ChannelNotifier.
type Event struct {
	Kind     EventKind
	Percent  float64
	Title    string
	Text     string
	Severity Severity
	Summary  string
}

// ChannelNotifier bridges worker notifications onto a bounded channel
// for hosts that run their own event loop. Sends never block: when the
// consumer lags, events are dropped rather than stalling the sync.
type ChannelNotifier struct {
	C chan Event
}

func NewChannelNotifier(size int) *ChannelNotifier {
	return &ChannelNotifier{C: make(chan Event, size)}
}

func (n *ChannelNotifier) send(ev Event) {
	select {
	case n.C <- ev:
	default:
	}
}

func (n *ChannelNotifier) Progress(percent float64) {
	n.send(Event{Kind: EventProgress, Percent: percent})
}

func (n *ChannelNotifier) Message(title, text string, severity Severity) {
	n.send(Event{Kind: EventMessage, Title: title, Text: text, Severity: severity})
}

func (n *ChannelNotifier) Done(summary string) {
	n.send(Event{Kind: EventDone, Summary: summary})
}
