// Package journey defines the JourneyEvent entity: one observed visitor
// micro-interaction, recorded independently of whether it ever becomes a
// conversion. Events are advisory analytics data; the Intent record remains
// the source of truth for conversions.
package journey

import (
	"encoding/json"
	"time"
)

// EventType is the fixed enumeration of tracked visitor actions.
type EventType string

const (
	EventProfileVisit  EventType = "profile_visit"
	EventBlockView     EventType = "block_view"
	EventLinkClick     EventType = "link_click"
	EventProductView   EventType = "product_view"
	EventProductClick  EventType = "product_click"
	EventSocialClick   EventType = "social_click"
	EventContactClick  EventType = "contact_click"
	EventMessageSent   EventType = "message_sent"
	EventShareClicked  EventType = "share_clicked"
	EventDownloadClick EventType = "download_click"
	EventVideoPlay     EventType = "video_play"
	EventScrollDepth   EventType = "scroll_depth"
	EventTimeSpent     EventType = "time_spent"
	EventFormStart     EventType = "form_start"
	EventFormComplete  EventType = "form_complete"
)

var validEventTypes = map[EventType]bool{
	EventProfileVisit: true, EventBlockView: true, EventLinkClick: true,
	EventProductView: true, EventProductClick: true, EventSocialClick: true,
	EventContactClick: true, EventMessageSent: true, EventShareClicked: true,
	EventDownloadClick: true, EventVideoPlay: true, EventScrollDepth: true,
	EventTimeSpent: true, EventFormStart: true, EventFormComplete: true,
}

// IsValid reports whether t is a member of the event type enumeration.
func (t EventType) IsValid() bool { return validEventTypes[t] }

// EventData is the type-dependent payload of a journey event. Known fields
// are typed; anything else a client sends rides along unvalidated in Extra
// so newer clients keep working against older servers.
type EventData struct {
	BlockID      string  `json:"block_id,omitempty"`
	BlockTitle   string  `json:"block_title,omitempty"`
	BlockType    string  `json:"block_type,omitempty"`
	ProductID    string  `json:"product_id,omitempty"`
	ProductTitle string  `json:"product_title,omitempty"`
	LinkURL      string  `json:"link_url,omitempty"`
	Platform     string  `json:"platform,omitempty"`
	ScrollDepth  int     `json:"scroll_depth,omitempty"`
	Duration     float64 `json:"duration,omitempty"`

	Extra map[string]any `json:"-"`
}

// knownDataKeys mirrors the json tags above for Extra separation.
var knownDataKeys = map[string]bool{
	"block_id": true, "block_title": true, "block_type": true,
	"product_id": true, "product_title": true, "link_url": true,
	"platform": true, "scroll_depth": true, "duration": true,
}

// MarshalJSON folds Extra back into the flat payload object.
func (d EventData) MarshalJSON() ([]byte, error) {
	type plain EventData
	raw, err := json.Marshal(plain(d))
	if err != nil {
		return nil, err
	}
	if len(d.Extra) == 0 {
		return raw, nil
	}
	merged := make(map[string]any, len(d.Extra)+8)
	if err := json.Unmarshal(raw, &merged); err != nil {
		return nil, err
	}
	for k, v := range d.Extra {
		if !knownDataKeys[k] {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// UnmarshalJSON splits unrecognized keys into Extra.
func (d *EventData) UnmarshalJSON(data []byte) error {
	type plain EventData
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for k := range all {
		if knownDataKeys[k] {
			delete(all, k)
		}
	}
	*d = EventData(p)
	if len(all) > 0 {
		d.Extra = all
	}
	return nil
}

// DeviceInfo is the device/browser/OS snapshot derived from the user agent.
type DeviceInfo struct {
	DeviceType string `json:"device_type"`
	Browser    string `json:"browser"`
	OS         string `json:"os"`
}

// LocationInfo is the coarse geo snapshot supplied by the edge, if any.
type LocationInfo struct {
	Country string `json:"country,omitempty"`
	City    string `json:"city,omitempty"`
}

// Event is one observed visitor action. Immutable once written except for
// the enquiry_id backfill performed when the visitor's identity becomes
// known.
type Event struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	ProfileID string `json:"profile_id"`

	VisitorID    string `json:"visitor_id,omitempty"`
	VisitorEmail string `json:"visitor_email,omitempty"`
	EnquiryID    string `json:"enquiry_id,omitempty"`

	EventType EventType `json:"event_type"`
	EventData EventData `json:"event_data"`

	DeviceInfo   DeviceInfo   `json:"device_info"`
	LocationInfo LocationInfo `json:"location_info"`
	Referrer     string       `json:"referrer,omitempty"`
	UTMSource    string       `json:"utm_source,omitempty"`
	UTMMedium    string       `json:"utm_medium,omitempty"`
	UTMCampaign  string       `json:"utm_campaign,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}
