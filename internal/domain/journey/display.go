package journey

import "fmt"

// DisplayEvent is the dashboard-friendly rendering of one journey event.
type DisplayEvent struct {
	Title     string    `json:"title"`
	Subtitle  string    `json:"subtitle"`
	Icon      string    `json:"icon"`
	EventType EventType `json:"event_type"`
	Timestamp string    `json:"timestamp"`
}

type displayMeta struct {
	title string
	icon  string
}

// displayTable is the fixed per-event-type display lookup.
var displayTable = map[EventType]displayMeta{
	EventProfileVisit:  {"Visited profile", "eye"},
	EventBlockView:     {"Viewed block", "layout"},
	EventLinkClick:     {"Clicked link", "external-link"},
	EventProductView:   {"Viewed product", "package"},
	EventProductClick:  {"Clicked product", "shopping-cart"},
	EventSocialClick:   {"Opened social link", "share-2"},
	EventContactClick:  {"Tapped contact", "phone"},
	EventMessageSent:   {"Sent a message", "message-circle"},
	EventShareClicked:  {"Shared the page", "share"},
	EventDownloadClick: {"Downloaded a file", "download"},
	EventVideoPlay:     {"Played video", "play-circle"},
	EventScrollDepth:   {"Scrolled the page", "arrow-down"},
	EventTimeSpent:     {"Time on page", "clock"},
	EventFormStart:     {"Started a form", "edit-3"},
	EventFormComplete:  {"Completed a form", "check-circle"},
}

// Display renders the event through the fixed lookup table. Unknown event
// types (possible with forward-compatible clients) fall back to the raw type
// name with a generic icon.
func (e *Event) Display() DisplayEvent {
	meta, ok := displayTable[e.EventType]
	if !ok {
		meta = displayMeta{string(e.EventType), "activity"}
	}

	return DisplayEvent{
		Title:     meta.title,
		Subtitle:  e.displaySubtitle(),
		Icon:      meta.icon,
		EventType: e.EventType,
		Timestamp: e.Timestamp.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (e *Event) displaySubtitle() string {
	d := e.EventData
	switch e.EventType {
	case EventScrollDepth:
		return fmt.Sprintf("%d%% of page", d.ScrollDepth)
	case EventTimeSpent:
		return fmt.Sprintf("%.0f seconds", d.Duration)
	case EventLinkClick, EventDownloadClick:
		if d.LinkURL != "" {
			return d.LinkURL
		}
	case EventSocialClick:
		if d.Platform != "" {
			return d.Platform
		}
	case EventProductView, EventProductClick:
		if d.ProductTitle != "" {
			return d.ProductTitle
		}
	}
	if d.BlockTitle != "" {
		return d.BlockTitle
	}
	return ""
}
