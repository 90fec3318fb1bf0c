package campaign

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// ErrMissingColumn is returned when a required column cannot be resolved.
var ErrMissingColumn = errors.New("missing required column")

// LoadOptions controls ingestion.
type LoadOptions struct {
	// RevenueColumn, when set, is tried before the default revenue aliases.
	RevenueColumn string
}

// dateLayouts are tried in order. Day-first layouts come before ISO.
var dateLayouts = []string{
	"02.01.2006",
	"2.1.2006",
	"02/01/2006",
	"2/1/2006",
	"2006-01-02",
	"02-01-2006",
}

// LoadFile opens path and loads it as a campaign CSV.
func LoadFile(path string, opts LoadOptions) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return Load(f, opts)
}

// Load reads campaign rows from CSV. The delimiter (comma or semicolon) is
// detected from the header line.
func Load(r io.Reader, opts LoadOptions) (Dataset, error) {
	br := bufio.NewReader(r)
	first, err := br.Peek(4096)
	if err != nil && err != io.EOF && !errors.Is(err, bufio.ErrBufferFull) {
		return Dataset{}, fmt.Errorf("failed to read header: %w", err)
	}

	cr := csv.NewReader(br)
	cr.Comma = detectDelimiter(first)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return Dataset{}, fmt.Errorf("empty input: %w", ErrMissingColumn)
	}
	if err != nil {
		return Dataset{}, fmt.Errorf("failed to read header: %w", err)
	}

	preferred := map[Field]string{FieldRevenue: opts.RevenueColumn}
	cols, names := resolveHeaders(header, preferred)

	for _, field := range []Field{FieldReach, FieldPurchases} {
		if _, ok := cols[field]; !ok {
			return Dataset{}, fmt.Errorf("%w: %s", ErrMissingColumn, Aliases[field][0])
		}
	}
	_, hasGroup := cols[FieldGroup]
	_, hasCampaign := cols[FieldCampaignName]
	if !hasGroup && !hasCampaign {
		return Dataset{}, fmt.Errorf("%w: group or %s", ErrMissingColumn, Aliases[FieldCampaignName][0])
	}

	ds := Dataset{RevenueColumn: names[FieldRevenue]}

	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return Dataset{}, fmt.Errorf("failed to read row %d: %w", line, err)
		}
		if isBlank(record) {
			continue
		}
		ds.Rows = append(ds.Rows, parseRow(record, cols))
	}

	return ds, nil
}

func parseRow(record []string, cols map[Field]int) Observation {
	get := func(f Field) string {
		i, ok := cols[f]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}
	num := func(f Field) Value {
		return Parse(get(f))
	}

	obs := Observation{
		CampaignName: strings.TrimSpace(get(FieldCampaignName)),
		Spend:        num(FieldSpend),
		Impressions:  num(FieldImpressions),
		Reach:        num(FieldReach),
		Clicks:       num(FieldClicks),
		Searches:     num(FieldSearches),
		ViewContent:  num(FieldViewContent),
		AddToCart:    num(FieldAddToCart),
		Purchases:    num(FieldPurchases),
		Revenue:      num(FieldRevenue),
	}

	if _, ok := cols[FieldGroup]; ok {
		obs.Group = ParseGroup(get(FieldGroup))
	}
	if obs.Group == "" || obs.Group == GroupUnknown {
		obs.Group = GroupFromCampaign(obs.CampaignName)
	}

	if d, ok := parseDate(get(FieldDate)); ok {
		obs.Date = &d
	}
	return obs
}

func parseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func detectDelimiter(head []byte) rune {
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}
	if bytes.Count(head, []byte{';'}) > bytes.Count(head, []byte{','}) {
		return ';'
	}
	return ','
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
