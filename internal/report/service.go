// Package report derives consolidated cross-store statistics from the
// replicated sale ledgers. All monetary math stays in float64; rounding is
// the consumer's concern. Daily buckets and "today" are computed in one
// configured time zone.
package report

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"possync/internal/model"
)

// Ledger is the read side of the sync service. Both methods return
// point-in-time copies, so a report never observes a half-merged push.
type Ledger interface {
	SalesByStore() map[int][]model.Sale
	Stores() map[int]model.Store
}

// DayBucket is one calendar day's figures, keyed YYYY-MM-DD.
type DayBucket struct {
	Date         string  `json:"date"`
	Revenue      float64 `json:"revenue"`
	Transactions int     `json:"transactions"`
}

// StoreReport is one store's slice of a consolidated report.
type StoreReport struct {
	StoreID      int         `json:"storeId"`
	Name         string      `json:"name"`
	Revenue      float64     `json:"revenue"`
	Transactions int         `json:"transactions"`
	AvgTicket    float64     `json:"avgTicket"`
	Daily        []DayBucket `json:"daily"`
	LastSale     *model.Sale `json:"lastSale,omitempty"`
}

// Totals sums the whole system over a report window.
type Totals struct {
	TotalRevenue      float64 `json:"totalRevenue"`
	TotalTransactions int     `json:"totalTransactions"`
	AvgTicket         float64 `json:"avgTicket"`
}

// Consolidated is the owner's cross-store report.
type Consolidated struct {
	Stores []StoreReport `json:"stores"`
	Totals Totals        `json:"totals"`
}

// StoreStatus is one row of the owner's store activity list.
type StoreStatus struct {
	StoreID      int        `json:"storeId"`
	Name         string     `json:"name"`
	TotalSales   int        `json:"totalSales"`
	TotalRevenue float64    `json:"totalRevenue"`
	TodaySales   int        `json:"todaySales"`
	TodayRevenue float64    `json:"todayRevenue"`
	LastSaleAt   *time.Time `json:"lastSaleAt,omitempty"`
	IsActive     bool       `json:"isActive"`
}

// StoreDetail is one store's filtered sale list.
type StoreDetail struct {
	Sales        []model.Sale `json:"sales"`
	TotalRevenue float64      `json:"totalRevenue"`
	Count        int          `json:"count"`
}

// Comparison is one store's day-by-day series over a trailing window.
type Comparison struct {
	StoreID           int         `json:"storeId"`
	Name              string      `json:"name"`
	Series            []DayBucket `json:"series"`
	TotalRevenue      float64     `json:"totalRevenue"`
	TotalTransactions int         `json:"totalTransactions"`
}

// DefaultDetailLimit caps StoreDetail when the caller does not ask for one.
const DefaultDetailLimit = 100

// Service computes reports over a Ledger snapshot.
type Service struct {
	ledger Ledger
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a Service reporting in loc (nil means time.Local).
func NewService(ledger Ledger, loc *time.Location, logger *zap.Logger) *Service {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{ledger: ledger, loc: loc, logger: logger, now: time.Now}
}

// storeName resolves a display name, synthesizing a placeholder for stores
// that pushed sales without ever registering.
func storeName(stores map[int]model.Store, id int) string {
	if st, ok := stores[id]; ok {
		return st.Name
	}
	return fmt.Sprintf("Store %d", id)
}

func inWindow(t time.Time, start, end *time.Time) bool {
	if start != nil && t.Before(*start) {
		return false
	}
	if end != nil && t.After(*end) {
		return false
	}
	return true
}

// ConsolidatedReport aggregates every store with at least one recorded sale
// over the inclusive [start, end] window. Stores sort descending by revenue;
// totals are exact sums over the same rows.
func (s *Service) ConsolidatedReport(start, end *time.Time) Consolidated {
	sales := s.ledger.SalesByStore()
	stores := s.ledger.Stores()

	out := Consolidated{Stores: []StoreReport{}}
	for storeID, rows := range sales {
		if len(rows) == 0 {
			continue
		}
		rep := StoreReport{StoreID: storeID, Name: storeName(stores, storeID), Daily: []DayBucket{}}
		days := map[string]*DayBucket{}
		var last *model.Sale
		for i := range rows {
			sale := rows[i]
			et := sale.EventTime()
			if !inWindow(et, start, end) {
				continue
			}
			rep.Revenue += sale.Total
			rep.Transactions++
			day := et.In(s.loc).Format("2006-01-02")
			b, ok := days[day]
			if !ok {
				b = &DayBucket{Date: day}
				days[day] = b
			}
			b.Revenue += sale.Total
			b.Transactions++
			if last == nil || et.After(last.EventTime()) {
				cp := sale
				last = &cp
			}
		}
		if rep.Transactions > 0 {
			rep.AvgTicket = rep.Revenue / float64(rep.Transactions)
		}
		for _, b := range days {
			rep.Daily = append(rep.Daily, *b)
		}
		sort.Slice(rep.Daily, func(i, j int) bool { return rep.Daily[i].Date < rep.Daily[j].Date })
		rep.LastSale = last

		out.Stores = append(out.Stores, rep)
		out.Totals.TotalRevenue += rep.Revenue
		out.Totals.TotalTransactions += rep.Transactions
	}
	if out.Totals.TotalTransactions > 0 {
		out.Totals.AvgTicket = out.Totals.TotalRevenue / float64(out.Totals.TotalTransactions)
	}
	sort.Slice(out.Stores, func(i, j int) bool {
		if out.Stores[i].Revenue != out.Stores[j].Revenue {
			return out.Stores[i].Revenue > out.Stores[j].Revenue
		}
		return out.Stores[i].StoreID < out.Stores[j].StoreID
	})
	return out
}

// StoreStatusList reports every known store, registered or inferred from
// having sales. A store is active iff its most recent sale happened within
// the last 24 hours.
func (s *Service) StoreStatusList() []StoreStatus {
	sales := s.ledger.SalesByStore()
	stores := s.ledger.Stores()
	now := s.now().In(s.loc)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)

	ids := map[int]struct{}{}
	for id := range stores {
		ids[id] = struct{}{}
	}
	for id := range sales {
		ids[id] = struct{}{}
	}

	out := make([]StoreStatus, 0, len(ids))
	for id := range ids {
		st := StoreStatus{StoreID: id, Name: storeName(stores, id)}
		var last time.Time
		for _, sale := range sales[id] {
			et := sale.EventTime()
			st.TotalSales++
			st.TotalRevenue += sale.Total
			if !et.Before(midnight) && !et.After(now) {
				st.TodaySales++
				st.TodayRevenue += sale.Total
			}
			if et.After(last) {
				last = et
			}
		}
		if !last.IsZero() {
			cp := last
			st.LastSaleAt = &cp
			st.IsActive = now.Sub(last) <= 24*time.Hour
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StoreID < out[j].StoreID })
	return out
}

// Detail returns one store's sales over the window, newest first, truncated
// to limit (DefaultDetailLimit when limit <= 0). TotalRevenue covers every
// qualifying sale, not just the returned page.
func (s *Service) Detail(storeID int, start, end *time.Time, limit int) StoreDetail {
	if limit <= 0 {
		limit = DefaultDetailLimit
	}
	rows := s.ledger.SalesByStore()[storeID]

	filtered := make([]model.Sale, 0, len(rows))
	var revenue float64
	for _, sale := range rows {
		if !inWindow(sale.EventTime(), start, end) {
			continue
		}
		filtered = append(filtered, sale)
		revenue += sale.Total
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].EventTime().After(filtered[j].EventTime())
	})
	count := len(filtered)
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return StoreDetail{Sales: filtered, TotalRevenue: revenue, Count: count}
}

// Compare builds a day-by-day series per store for the trailing periodDays
// days, today inclusive, oldest first. Stores sort descending by windowed
// revenue.
func (s *Service) Compare(periodDays int) []Comparison {
	if periodDays <= 0 {
		periodDays = 7
	}
	sales := s.ledger.SalesByStore()
	stores := s.ledger.Stores()
	now := s.now().In(s.loc)
	first := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc).AddDate(0, 0, -(periodDays - 1))

	out := make([]Comparison, 0, len(sales))
	for storeID, rows := range sales {
		cmp := Comparison{StoreID: storeID, Name: storeName(stores, storeID)}
		byDay := map[string]*DayBucket{}
		series := make([]DayBucket, periodDays)
		for i := 0; i < periodDays; i++ {
			day := first.AddDate(0, 0, i).Format("2006-01-02")
			series[i] = DayBucket{Date: day}
			byDay[day] = &series[i]
		}
		for _, sale := range rows {
			et := sale.EventTime().In(s.loc)
			if et.Before(first) || et.After(now) {
				continue
			}
			b, ok := byDay[et.Format("2006-01-02")]
			if !ok {
				continue
			}
			b.Revenue += sale.Total
			b.Transactions++
			cmp.TotalRevenue += sale.Total
			cmp.TotalTransactions++
		}
		cmp.Series = series
		out = append(out, cmp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalRevenue != out[j].TotalRevenue {
			return out[i].TotalRevenue > out[j].TotalRevenue
		}
		return out[i].StoreID < out[j].StoreID
	})
	return out
}
