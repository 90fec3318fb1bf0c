package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/adsplit/adsplit/internal/campaign"
	"github.com/adsplit/adsplit/internal/store"
)

// SetupTestStore creates a test database and returns the store.
// Uses t.TempDir() for automatic cleanup on test completion.
func SetupTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := tmpDir + "/test.db"

	s, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}

	t.Cleanup(func() {
		s.Close()
	})

	return s
}

// SampleCSV is ten days of a control and a test campaign. Every row has
// spend 100, reach 1000 and 100 clicks; control purchases alternate 4 and 6,
// test purchases alternate 9 and 11. The test campaign wins clearly.
func SampleCSV() string {
	var b strings.Builder
	b.WriteString("Campaign Name,Date,Spend [USD],# of Impressions,Reach,# of Website Clicks,# of Searches,# of View Content,# of Add to Cart,# of Purchase\n")
	for day := 1; day <= 10; day++ {
		a, v := 4, 9
		if day%2 == 0 {
			a, v = 6, 11
		}
		fmt.Fprintf(&b, "Control Campaign,%d.08.2019,100,5000,1000,100,60,40,20,%d\n", day, a)
		fmt.Fprintf(&b, "Test Campaign,%d.08.2019,100,5000,1000,100,70,50,30,%d\n", day, v)
	}
	return b.String()
}

// SampleDataset is SampleCSV as loaded and cleaned rows.
func SampleDataset(t *testing.T) campaign.Dataset {
	t.Helper()

	ds, err := campaign.Load(strings.NewReader(SampleCSV()), campaign.LoadOptions{})
	if err != nil {
		t.Fatalf("failed to load sample dataset: %v", err)
	}
	ds, _ = campaign.Clean(ds)
	return ds
}
