package campaign

import (
	"strings"
	"time"
)

// Group labels a row as control or variant.
type Group string

const (
	GroupA       Group = "A" // control
	GroupB       Group = "B" // variant
	GroupUnknown Group = "unknown"
)

// Observation is one campaign-data record.
type Observation struct {
	Date         *time.Time `json:"date,omitempty"`
	CampaignName string     `json:"campaign_name"`
	Group        Group      `json:"group"`
	Spend        Value      `json:"spend"`
	Impressions  Value      `json:"impressions"`
	Reach        Value      `json:"reach"`
	Clicks       Value      `json:"clicks"`
	Searches     Value      `json:"searches"`
	ViewContent  Value      `json:"view_content"`
	AddToCart    Value      `json:"add_to_cart"`
	Purchases    Value      `json:"purchases"`
	Revenue      Value      `json:"revenue"`
}

// Dataset is the loaded set of observations.
type Dataset struct {
	Rows []Observation
	// RevenueColumn is the source header Revenue was read from. Empty when
	// the input had no revenue column.
	RevenueColumn string
}

// HasRevenue reports whether a revenue column was resolved at ingestion.
func (d Dataset) HasRevenue() bool {
	return d.RevenueColumn != ""
}

// Groups returns the distinct group labels present, in first-seen order.
func (d Dataset) Groups() []Group {
	seen := make(map[Group]bool)
	var groups []Group
	for _, r := range d.Rows {
		if !seen[r.Group] {
			seen[r.Group] = true
			groups = append(groups, r.Group)
		}
	}
	return groups
}

// Filter returns the rows belonging to g.
func (d Dataset) Filter(g Group) []Observation {
	var rows []Observation
	for _, r := range d.Rows {
		if r.Group == g {
			rows = append(rows, r)
		}
	}
	return rows
}

// GroupFromCampaign derives the group from a campaign name: "control" maps
// to A, "test" or "variant" to B.
func GroupFromCampaign(name string) Group {
	n := strings.ToLower(name)
	if strings.Contains(n, "control") {
		return GroupA
	}
	if strings.Contains(n, "test") || strings.Contains(n, "variant") {
		return GroupB
	}
	return GroupUnknown
}

// ParseGroup normalizes an explicit group label.
func ParseGroup(raw string) Group {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "A":
		return GroupA
	case "B":
		return GroupB
	default:
		return GroupUnknown
	}
}
