package builtin

import "github.com/sentineld/sentinel/internal/alert"

// DesktopNotifySubscriber is a sync Subscriber standing in for a platform
// desktop notifier. Actually shelling out to a platform-specific notifier
// binary is outside scope (spec.md §1 excludes platform-directory
// discovery), so this narrows to the one piece that is in scope: handing
// the rendered alert to a caller-supplied sink, which tests (and a future
// platform-specific main) can point at a real notifier.
type DesktopNotifySubscriber struct {
	Sink func(header, description string)
}

// NewDesktopNotifySubscriber builds a subscriber forwarding every alert's
// header/description to sink.
func NewDesktopNotifySubscriber(sink func(header, description string)) *DesktopNotifySubscriber {
	return &DesktopNotifySubscriber{Sink: sink}
}

func (d *DesktopNotifySubscriber) Notify(a alert.Alert) error {
	if d.Sink != nil {
		d.Sink(a.Header, a.Description)
	}
	return nil
}
