package tushare

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/aristath/forecast/internal/utils"
)

// API names and field lists used by the forecast pipeline.
const (
	APIIncome = "income"
	APIDaily  = "daily"

	IncomeFields = "total_revenue,n_income,total_mv,end_date"
	DailyFields  = "ts_code,trade_date,close"
)

// Request is the POST body.
type Request struct {
	APIName string            `json:"api_name"`
	Token   string            `json:"token"`
	Params  map[string]string `json:"params"`
}

// Response is the gateway envelope.
type Response struct {
	Code int    `json:"code"`
	Msg  string `json:"msg,omitempty"`
	Data *Data  `json:"data"`
}

// Data holds a column header and row values. Cells are json.Number, string or nil.
type Data struct {
	Fields []string `json:"fields"`
	Items  [][]any  `json:"items"`
}

// Len returns the number of rows.
func (r *Response) Len() int {
	if r == nil || r.Data == nil {
		return 0
	}
	return len(r.Data.Items)
}

// Empty reports whether the response carries no rows.
func (r *Response) Empty() bool {
	return r.Len() == 0
}

// Table gives name-based access to the rows. Columns come from the response header when
// present, otherwise from the requested field list in order.
func (r *Response) Table(requestedFields string) *Table {
	t := &Table{index: make(map[string]int)}
	if r == nil || r.Data == nil {
		return t
	}
	t.items = r.Data.Items

	fields := r.Data.Fields
	if len(fields) == 0 {
		fields = splitFields(requestedFields)
	}
	for i, f := range fields {
		t.index[strings.TrimSpace(f)] = i
	}
	return t
}

// splitFields turns a "a, b,,c" field list into its non-empty trimmed names.
func splitFields(list string) []string {
	var fields []string
	for _, f := range strings.Split(list, ",") {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

// Table is a column-indexed view of a response.
type Table struct {
	index map[string]int
	items [][]any
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.items)
}

// String returns the cell as text; missing cells are "".
func (t *Table) String(row int, field string) string {
	col, ok := t.index[field]
	if !ok || row < 0 || row >= len(t.items) || col >= len(t.items[row]) {
		return ""
	}
	switch v := t.items[row][col].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Float returns the cell parsed with utils.ParseFloat.
func (t *Table) Float(row int, field string, def float64) float64 {
	return utils.ParseFloat(t.String(row, field), def)
}

// IncomeParams builds the params for a quarterly income query.
func IncomeParams(tsCode, period string) map[string]string {
	return map[string]string{
		"ts_code": tsCode,
		"period":  period,
		"fields":  IncomeFields,
	}
}

// DailyParams builds the params for a daily quote series query.
func DailyParams(tsCode, startDate, endDate string) map[string]string {
	return map[string]string{
		"ts_code":    tsCode,
		"start_date": startDate,
		"end_date":   endDate,
		"fields":     DailyFields,
	}
}

// Income is the first row of an income response, in raw currency units (yuan).
type Income struct {
	TotalRevenue     float64
	NetIncome        float64
	TotalMarketValue float64
	EndDate          string
}

// ParseIncome extracts the first income row. ok is false when there are no rows.
func ParseIncome(resp *Response) (Income, bool) {
	if resp.Empty() {
		return Income{}, false
	}
	t := resp.Table(IncomeFields)
	return Income{
		TotalRevenue:     t.Float(0, "total_revenue", 0),
		NetIncome:        t.Float(0, "n_income", 0),
		TotalMarketValue: t.Float(0, "total_mv", 0),
		EndDate:          t.String(0, "end_date"),
	}, true
}

// ParseLatestClose returns the close of the first row of a daily series.
func ParseLatestClose(resp *Response) (price float64, tradeDate string, ok bool) {
	if resp.Empty() {
		return 0, "", false
	}
	t := resp.Table(DailyFields)
	return t.Float(0, "close", 0), t.String(0, "trade_date"), true
}

// NormalizeTSCode appends the exchange suffix to a bare six-digit code:
// 6/9 trade in Shanghai (.SH), 0/2/3 in Shenzhen (.SZ), 4/8 in Beijing (.BJ).
// Codes that already carry a suffix, or are not recognised, are returned upper-cased.
func NormalizeTSCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if strings.Contains(code, ".") || len(code) != 6 {
		return code
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return code
		}
	}
	switch code[0] {
	case '6', '9':
		return code + ".SH"
	case '0', '2', '3':
		return code + ".SZ"
	case '4', '8':
		return code + ".BJ"
	default:
		return code
	}
}
