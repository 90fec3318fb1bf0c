package campaign

import (
	"encoding/csv"
	"fmt"
	"io"
)

// CleanStats summarizes what Clean changed.
type CleanStats struct {
	RowsIn          int `json:"rows_in"`
	RowsDropped     int `json:"rows_dropped"`
	PurchasesFilled int `json:"purchases_filled"`
	UnknownGroup    int `json:"unknown_group"`
}

// Clean drops rows without a positive reach and fills missing purchase
// counts with zero. Rows with an unknown group are kept and counted; the
// tests only ever read groups A and B.
func Clean(ds Dataset) (Dataset, CleanStats) {
	stats := CleanStats{RowsIn: len(ds.Rows)}
	out := Dataset{RevenueColumn: ds.RevenueColumn, Rows: make([]Observation, 0, len(ds.Rows))}

	for _, r := range ds.Rows {
		if !r.Reach.Positive() {
			stats.RowsDropped++
			continue
		}
		if !r.Purchases.Valid {
			r.Purchases = Num(0)
			stats.PurchasesFilled++
		}
		if r.Group == GroupUnknown {
			stats.UnknownGroup++
		}
		out.Rows = append(out.Rows, r)
	}
	return out, stats
}

// WriteCSV writes ds with canonical headers. The revenue column is only
// written when the dataset has one.
func WriteCSV(w io.Writer, ds Dataset) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	headers := make([]string, 0, len(canonicalHeaders))
	for _, h := range canonicalHeaders {
		if h.field == FieldRevenue && !ds.HasRevenue() {
			continue
		}
		headers = append(headers, h.header)
	}
	if err := cw.Write(headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, r := range ds.Rows {
		date := ""
		if r.Date != nil {
			date = r.Date.Format("2006-01-02")
		}
		row := []string{
			date,
			r.CampaignName,
			string(r.Group),
			r.Spend.String(),
			r.Impressions.String(),
			r.Reach.String(),
			r.Clicks.String(),
			r.Searches.String(),
			r.ViewContent.String(),
			r.AddToCart.String(),
			r.Purchases.String(),
		}
		if ds.HasRevenue() {
			row = append(row, r.Revenue.String())
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
