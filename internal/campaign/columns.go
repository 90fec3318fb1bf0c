package campaign

import "strings"

// Field identifies a canonical column.
type Field string

const (
	FieldDate         Field = "date"
	FieldCampaignName Field = "campaign_name"
	FieldGroup        Field = "group"
	FieldSpend        Field = "spend"
	FieldImpressions  Field = "impressions"
	FieldReach        Field = "reach"
	FieldClicks       Field = "clicks"
	FieldSearches     Field = "searches"
	FieldViewContent  Field = "view_content"
	FieldAddToCart    Field = "add_to_cart"
	FieldPurchases    Field = "purchases"
	FieldRevenue      Field = "revenue"
)

// Aliases lists the accepted source headers per field, in resolution order.
var Aliases = map[Field][]string{
	FieldDate:         {"Date", "date", "Day"},
	FieldCampaignName: {"Campaign Name", "campaign_name", "Campaign"},
	FieldGroup:        {"group", "Group"},
	FieldSpend:        {"Spend [USD]", "Spend", "spend", "spend_usd"},
	FieldImpressions:  {"# of Impressions", "Impressions", "impressions"},
	FieldReach:        {"Reach", "reach"},
	FieldClicks:       {"# of Website Clicks", "Website Clicks", "Clicks", "clicks"},
	FieldSearches:     {"# of Searches", "Searches", "searches"},
	FieldViewContent:  {"# of View Content", "View Content", "view_content"},
	FieldAddToCart:    {"# of Add to Cart", "Add to Cart", "add_to_cart"},
	FieldPurchases:    {"# of Purchase", "# of Purchases", "Purchases", "purchases"},
	FieldRevenue:      {"Revenue", "Revenue [USD]", "revenue", "revenue_usd"},
}

// canonicalHeaders is the header order used when writing a dataset.
var canonicalHeaders = []struct {
	field  Field
	header string
}{
	{FieldDate, "Date"},
	{FieldCampaignName, "Campaign Name"},
	{FieldGroup, "group"},
	{FieldSpend, "Spend [USD]"},
	{FieldImpressions, "# of Impressions"},
	{FieldReach, "Reach"},
	{FieldClicks, "# of Website Clicks"},
	{FieldSearches, "# of Searches"},
	{FieldViewContent, "# of View Content"},
	{FieldAddToCart, "# of Add to Cart"},
	{FieldPurchases, "# of Purchase"},
	{FieldRevenue, "Revenue"},
}

// resolveHeaders maps each canonical field to its column index. preferred
// headers for a field are tried before the default aliases. The returned
// names map holds the matched source header per field.
func resolveHeaders(header []string, preferred map[Field]string) (map[Field]int, map[Field]string) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}

	cols := make(map[Field]int)
	names := make(map[Field]string)
	for field, aliases := range Aliases {
		candidates := aliases
		if p, ok := preferred[field]; ok && p != "" {
			candidates = append([]string{p}, aliases...)
		}
		for _, name := range candidates {
			if i, ok := index[name]; ok {
				cols[field] = i
				names[field] = name
				break
			}
		}
	}
	return cols, names
}
