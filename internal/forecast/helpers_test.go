package forecast

import (
	"context"
	"sync"

	"github.com/aristath/forecast/internal/archive"
	"github.com/aristath/forecast/internal/clients/tushare"
	"github.com/rs/zerolog"
)

// recordingStore captures archived entries.
type recordingStore struct {
	mu      sync.Mutex
	entries []archive.Entry
	err     error
}

func (s *recordingStore) Put(ctx context.Context, e archive.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return s.err
}

func (s *recordingStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func newTestBuilder() (*Builder, *recordingStore) {
	store := &recordingStore{}
	return NewBuilder(store, zerolog.Nop()), store
}

// fakeCaller answers Tushare calls by API name.
type fakeCaller struct {
	mu        sync.Mutex
	responses map[string]*tushare.Response
	errs      map[string]error
	panicOn   string
	params    map[string]map[string]string
}

func (f *fakeCaller) Call(ctx context.Context, apiName string, params map[string]string) (*tushare.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.params == nil {
		f.params = make(map[string]map[string]string)
	}
	f.params[apiName] = params

	if apiName == f.panicOn {
		panic("nil pointer in decoder")
	}
	if err := f.errs[apiName]; err != nil {
		return nil, err
	}
	if resp, ok := f.responses[apiName]; ok {
		return resp, nil
	}
	return &tushare.Response{Data: &tushare.Data{}}, nil
}

func incomeResponse(revenue, netIncome, totalMv float64, endDate string) *tushare.Response {
	return &tushare.Response{Data: &tushare.Data{
		Fields: []string{"total_revenue", "n_income", "total_mv", "end_date"},
		Items:  [][]any{{revenue, netIncome, totalMv, endDate}},
	}}
}

func dailyResponse(close float64) *tushare.Response {
	return &tushare.Response{Data: &tushare.Data{
		Fields: []string{"ts_code", "trade_date", "close"},
		Items:  [][]any{{"600519.SH", "20240930", close}},
	}}
}
