// Package catalog defines the Block entity: the addressable unit of profile
// content a visitor interacts with, carrying its CTA descriptor and rollup
// analytics counters.
package catalog

import "time"

// BlockAnalytics holds the per-block rollup counters. Increments are issued
// as atomic SQL updates off the request path; the numbers are best-effort.
type BlockAnalytics struct {
	Views       int `json:"views"`
	Clicks      int `json:"clicks"`
	Conversions int `json:"conversions"`
	Enquiries   int `json:"enquiries"`
}

// Block is one addressable unit of profile content (link, product, contact
// card, form, etc.).
type Block struct {
	ID        string `json:"block_id"`
	ProfileID string `json:"profile_id"`

	BlockType string `json:"block_type"`
	Title     string `json:"title"`

	CTAType       string `json:"cta_type"`
	CTALabel      string `json:"cta_label,omitempty"`
	RequiresLogin bool   `json:"requires_login"`

	Analytics BlockAnalytics `json:"analytics"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Content is the snapshot of a block returned alongside a freshly created
// intent so the client can continue the interaction without a second fetch.
type Content struct {
	BlockID       string `json:"block_id"`
	BlockType     string `json:"block_type"`
	Title         string `json:"title"`
	CTAType       string `json:"cta_type"`
	CTALabel      string `json:"cta_label,omitempty"`
	RequiresLogin bool   `json:"requires_login"`
}

// Content returns the client-facing snapshot of the block.
func (b *Block) Content() Content {
	return Content{
		BlockID:       b.ID,
		BlockType:     b.BlockType,
		Title:         b.Title,
		CTAType:       b.CTAType,
		CTALabel:      b.CTALabel,
		RequiresLogin: b.RequiresLogin,
	}
}
