// Package kpi aggregates campaign rows into per-group marketing metrics.
package kpi

import (
	"github.com/adsplit/adsplit/internal/campaign"
	"github.com/adsplit/adsplit/internal/stats"
)

// DefaultAvgOrderValue estimates revenue when the data has no revenue column.
const DefaultAvgOrderValue = 50.0

// Options controls KPI computation.
type Options struct {
	AvgOrderValue float64
}

// GroupMetrics are the aggregated KPIs of one group.
type GroupMetrics struct {
	Rows             int            `json:"rows"`
	Spend            float64        `json:"spend"`
	Revenue          float64        `json:"revenue"`
	RevenueEstimated bool           `json:"revenue_estimated"`
	Purchases        float64        `json:"purchases"`
	Reach            float64        `json:"reach"`
	Impressions      float64        `json:"impressions"`
	Clicks           float64        `json:"clicks"`
	ConversionRate   float64        `json:"conversion_rate"`
	ClickThroughRate stats.OptFloat `json:"click_through_rate"`
	RevenuePerUser   float64        `json:"revenue_per_user"`
	ROI              stats.OptFloat `json:"roi"`
	CostPerPurchase  stats.OptFloat `json:"cost_per_purchase"`
	Funnel           Funnel         `json:"funnel"`
}

// Funnel holds stage totals from impression to purchase.
type Funnel struct {
	Impressions float64 `json:"impressions"`
	Clicks      float64 `json:"clicks"`
	Searches    float64 `json:"searches"`
	ViewContent float64 `json:"view_content"`
	AddToCart   float64 `json:"add_to_cart"`
	Purchases   float64 `json:"purchases"`
}

// Lift compares group B against group A.
type Lift struct {
	CRAbsolute stats.OptFloat `json:"cr_lift_absolute"`
	CRRelative stats.OptFloat `json:"cr_lift_relative"`
	ROIDiff    stats.OptFloat `json:"roi_diff"`
}

// Summary is the KPI output for a dataset.
type Summary struct {
	Groups        map[campaign.Group]GroupMetrics `json:"groups"`
	Lift          *Lift                           `json:"lift,omitempty"`
	AvgOrderValue float64                         `json:"avg_order_value"`
}

// Compute aggregates ds by group. Revenue comes from the revenue column when
// the dataset has one, otherwise purchases * AvgOrderValue.
func Compute(ds campaign.Dataset, opts Options) Summary {
	aov := opts.AvgOrderValue
	if aov <= 0 {
		aov = DefaultAvgOrderValue
	}

	summary := Summary{
		Groups:        make(map[campaign.Group]GroupMetrics),
		AvgOrderValue: aov,
	}

	for _, g := range ds.Groups() {
		if g == campaign.GroupUnknown {
			continue
		}
		summary.Groups[g] = groupMetrics(ds.Filter(g), ds.HasRevenue(), aov)
	}

	a, okA := summary.Groups[campaign.GroupA]
	b, okB := summary.Groups[campaign.GroupB]
	if okA && okB {
		lift := &Lift{
			CRAbsolute: stats.OptFloat{V: b.ConversionRate - a.ConversionRate, Valid: true},
		}
		if a.ConversionRate != 0 {
			lift.CRRelative = stats.OptFloat{V: (b.ConversionRate - a.ConversionRate) / a.ConversionRate, Valid: true}
		}
		if a.ROI.Valid && b.ROI.Valid {
			lift.ROIDiff = stats.OptFloat{V: b.ROI.V - a.ROI.V, Valid: true}
		}
		summary.Lift = lift
	}

	return summary
}

func groupMetrics(rows []campaign.Observation, hasRevenue bool, aov float64) GroupMetrics {
	m := GroupMetrics{Rows: len(rows), RevenueEstimated: !hasRevenue}

	for _, r := range rows {
		m.Spend += r.Spend.Or(0)
		m.Purchases += r.Purchases.Or(0)
		m.Reach += r.Reach.Or(0)
		m.Impressions += r.Impressions.Or(0)
		m.Clicks += r.Clicks.Or(0)
		if hasRevenue {
			m.Revenue += r.Revenue.Or(0)
		}

		m.Funnel.Searches += r.Searches.Or(0)
		m.Funnel.ViewContent += r.ViewContent.Or(0)
		m.Funnel.AddToCart += r.AddToCart.Or(0)
	}
	if !hasRevenue {
		m.Revenue = m.Purchases * aov
	}

	m.Funnel.Impressions = m.Impressions
	m.Funnel.Clicks = m.Clicks
	m.Funnel.Purchases = m.Purchases

	if cr, ok := stats.SafeRate(m.Purchases, m.Reach); ok {
		m.ConversionRate = cr
	}
	if rpu, ok := stats.SafeRate(m.Revenue, m.Reach); ok {
		m.RevenuePerUser = rpu
	}
	if ctr, ok := stats.SafeRate(m.Clicks, m.Impressions); ok {
		m.ClickThroughRate = stats.OptFloat{V: ctr, Valid: true}
	}
	if m.Spend != 0 {
		m.ROI = stats.OptFloat{V: (m.Revenue - m.Spend) / m.Spend, Valid: true}
	}
	if cpp, ok := stats.SafeRate(m.Spend, m.Purchases); ok {
		m.CostPerPurchase = stats.OptFloat{V: cpp, Valid: true}
	}

	return m
}
