package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"possync/internal/model"
)

// stubLedger feeds fixed snapshots to the aggregator.
type stubLedger struct {
	sales  map[int][]model.Sale
	stores map[int]model.Store
}

func (s *stubLedger) SalesByStore() map[int][]model.Sale { return s.sales }
func (s *stubLedger) Stores() map[int]model.Store        { return s.stores }

func saleAt(number string, storeID int, total float64, at time.Time) model.Sale {
	return model.Sale{SaleNumber: number, StoreID: storeID, Total: total, CreatedAt: &at}
}

var testNow = time.Date(2026, 8, 30, 15, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, ledger Ledger) *Service {
	svc := NewService(ledger, time.UTC, zaptest.NewLogger(t))
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestConsolidatedTotalsMatchStoreSums(t *testing.T) {
	ledger := &stubLedger{
		sales: map[int][]model.Sale{
			1: {
				saleAt("A1", 1, 10.10, testNow.Add(-2*time.Hour)),
				saleAt("A2", 1, 20.25, testNow.Add(-26*time.Hour)),
			},
			2: {
				saleAt("B1", 2, 99.99, testNow.Add(-time.Hour)),
			},
		},
		stores: map[int]model.Store{1: {ID: 1, Name: "Central"}},
	}
	svc := newTestService(t, ledger)

	rep := svc.ConsolidatedReport(nil, nil)
	require.Len(t, rep.Stores, 2)

	var sum float64
	var txns int
	for _, st := range rep.Stores {
		sum += st.Revenue
		txns += st.Transactions
	}
	assert.Equal(t, sum, rep.Totals.TotalRevenue)
	assert.Equal(t, txns, rep.Totals.TotalTransactions)
	assert.Equal(t, rep.Totals.TotalRevenue/float64(txns), rep.Totals.AvgTicket)

	// Sorted descending by revenue: store 2 first.
	assert.Equal(t, 2, rep.Stores[0].StoreID)
	assert.Equal(t, 99.99, rep.Stores[0].Revenue)
}

func TestConsolidatedWindowIsInclusive(t *testing.T) {
	start := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 29, 23, 59, 59, 0, time.UTC)
	ledger := &stubLedger{
		sales: map[int][]model.Sale{1: {
			saleAt("EDGE1", 1, 10, start),
			saleAt("EDGE2", 1, 5, end),
			saleAt("OUT", 1, 100, end.Add(time.Second)),
		}},
		stores: map[int]model.Store{},
	}
	svc := newTestService(t, ledger)

	rep := svc.ConsolidatedReport(&start, &end)
	require.Len(t, rep.Stores, 1)
	assert.Equal(t, 15.0, rep.Stores[0].Revenue)
	assert.Equal(t, 2, rep.Stores[0].Transactions)
	require.NotNil(t, rep.Stores[0].LastSale)
	assert.Equal(t, "EDGE2", rep.Stores[0].LastSale.SaleNumber)
}

func TestConsolidatedDailyBuckets(t *testing.T) {
	ledger := &stubLedger{
		sales: map[int][]model.Sale{1: {
			saleAt("D1A", 1, 10, time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)),
			saleAt("D1B", 1, 15, time.Date(2026, 8, 28, 21, 0, 0, 0, time.UTC)),
			saleAt("D2", 1, 40, time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)),
		}},
		stores: map[int]model.Store{},
	}
	svc := newTestService(t, ledger)

	rep := svc.ConsolidatedReport(nil, nil)
	require.Len(t, rep.Stores, 1)
	daily := rep.Stores[0].Daily
	require.Len(t, daily, 2)
	assert.Equal(t, DayBucket{Date: "2026-08-28", Revenue: 25, Transactions: 2}, daily[0])
	assert.Equal(t, DayBucket{Date: "2026-08-29", Revenue: 40, Transactions: 1}, daily[1])
}

func TestEmptyReportHasZeroAvgTicket(t *testing.T) {
	svc := newTestService(t, &stubLedger{sales: map[int][]model.Sale{}, stores: map[int]model.Store{}})
	rep := svc.ConsolidatedReport(nil, nil)
	assert.Empty(t, rep.Stores)
	assert.Zero(t, rep.Totals.AvgTicket)
}

func TestStoreStatusInfersUnregisteredStores(t *testing.T) {
	ledger := &stubLedger{
		sales: map[int][]model.Sale{
			7: {
				saleAt("X1", 7, 12.50, testNow.Add(-2*time.Hour)),
				saleAt("X2", 7, 7.50, testNow.Add(-48*time.Hour)),
			},
		},
		stores: map[int]model.Store{1: {ID: 1, Name: "Central"}},
	}
	svc := newTestService(t, ledger)

	statuses := svc.StoreStatusList()
	require.Len(t, statuses, 2)

	assert.Equal(t, "Central", statuses[0].Name)
	assert.False(t, statuses[0].IsActive, "no sales means inactive")

	inferred := statuses[1]
	assert.Equal(t, 7, inferred.StoreID)
	assert.Equal(t, "Store 7", inferred.Name, "unregistered store gets a placeholder name")
	assert.Equal(t, 2, inferred.TotalSales)
	assert.Equal(t, 20.0, inferred.TotalRevenue)
	assert.Equal(t, 1, inferred.TodaySales, "only the sale after local midnight counts")
	assert.Equal(t, 12.5, inferred.TodayRevenue)
	assert.True(t, inferred.IsActive, "last sale within 24h")
}

func TestDetailSortsAndLimits(t *testing.T) {
	rows := make([]model.Sale, 0, 10)
	for i := 0; i < 10; i++ {
		rows = append(rows, saleAt("N"+string(rune('0'+i)), 1, 1, testNow.Add(-time.Duration(i)*time.Hour)))
	}
	svc := newTestService(t, &stubLedger{sales: map[int][]model.Sale{1: rows}, stores: map[int]model.Store{}})

	detail := svc.Detail(1, nil, nil, 3)
	assert.Equal(t, 10, detail.Count, "count covers every qualifying sale")
	assert.Equal(t, 10.0, detail.TotalRevenue, "revenue covers every qualifying sale")
	require.Len(t, detail.Sales, 3)
	assert.Equal(t, "N0", detail.Sales[0].SaleNumber, "newest first")
}

func TestCompareWindowShape(t *testing.T) {
	ledger := &stubLedger{
		sales: map[int][]model.Sale{
			1: {
				saleAt("TODAY", 1, 30, testNow.Add(-time.Hour)),
				saleAt("OLD", 1, 500, testNow.AddDate(0, 0, -9)),
			},
			2: {
				saleAt("MID", 2, 10, testNow.AddDate(0, 0, -3)),
			},
		},
		stores: map[int]model.Store{},
	}
	svc := newTestService(t, ledger)

	cmp := svc.Compare(7)
	require.Len(t, cmp, 2)

	for _, c := range cmp {
		require.Len(t, c.Series, 7, "exactly periodDays buckets per store")
		assert.Equal(t, "2026-08-24", c.Series[0].Date, "oldest first")
		assert.Equal(t, "2026-08-30", c.Series[6].Date, "ending today")
	}

	// Store 1 leads: 30 in-window (the 500 fell outside the trailing week).
	assert.Equal(t, 1, cmp[0].StoreID)
	assert.Equal(t, 30.0, cmp[0].TotalRevenue)
	assert.Equal(t, 1, cmp[0].TotalTransactions)
	assert.Equal(t, 10.0, cmp[1].TotalRevenue)
	assert.Equal(t, 10.0, cmp[1].Series[3].Revenue)
}
