package utils

import "time"

// ReportDateLayout is the compact date layout used by report periods (YYYYMMDD).
const ReportDateLayout = "20060102"

// ShiftDate moves a YYYYMMDD date back by the given number of days.
// Unparseable input is returned unchanged.
func ShiftDate(yyyymmdd string, days int) string {
	t, err := time.Parse(ReportDateLayout, yyyymmdd)
	if err != nil {
		return yyyymmdd
	}
	return t.AddDate(0, 0, -days).Format(ReportDateLayout)
}

// FormatReportDate formats t as YYYYMMDD.
func FormatReportDate(t time.Time) string {
	return t.Format(ReportDateLayout)
}

// IsReportDate reports whether s is a valid YYYYMMDD date.
func IsReportDate(s string) bool {
	_, err := time.Parse(ReportDateLayout, s)
	return err == nil
}
