package reports

import (
	"encoding/csv"
	"fmt"
	"io"
)

// WriteCSV renders the analytics as a sectioned Section/Metric/Value table.
// Sections are separated by a blank row so the file reads cleanly in a
// spreadsheet.
func WriteCSV(w io.Writer, a *Analytics) error {
	cw := csv.NewWriter(w)

	records := [][]string{
		{"Section", "Metric", "Value"},
		{"SUMMARY", "Total Borrowings", fmt.Sprint(a.Summary.TotalBorrowings)},
		{"SUMMARY", "Active Borrowings", fmt.Sprint(a.Summary.ActiveBorrowings)},
		{"SUMMARY", "Returned Borrowings", fmt.Sprint(a.Summary.ReturnedBorrowings)},
		{"SUMMARY", "Unique Borrowers", fmt.Sprint(a.Summary.UniqueBorrowers)},
		{"SUMMARY", "Average Borrowing Duration (days)", fmt.Sprint(a.Summary.AvgBorrowingDuration)},
		{"SUMMARY", "Return Rate (%)", fmt.Sprint(a.Summary.ReturnRate)},
		{"", "", ""},
	}

	for i, b := range a.TopBooks {
		records = append(records, []string{
			"TOP BOOKS",
			fmt.Sprintf("%d. %s by %s", i+1, b.Title, b.Author),
			fmt.Sprintf("%d borrowings", b.BorrowCount),
		})
	}
	records = append(records, []string{"", "", ""})

	for i, b := range a.TopBorrowers {
		records = append(records, []string{
			"TOP BORROWERS",
			fmt.Sprintf("%d. %s", i+1, b.Name),
			fmt.Sprintf("%d borrowings", b.BorrowCount),
		})
	}
	records = append(records, []string{"", "", ""})

	for _, t := range a.MonthlyTrends {
		records = append(records, []string{
			"MONTHLY TRENDS",
			t.Month,
			fmt.Sprintf("%d borrowings", t.Borrowings),
		})
	}
	records = append(records, []string{"", "", ""})

	for i, o := range a.OverdueBooks {
		records = append(records, []string{
			"OVERDUE BOOKS",
			fmt.Sprintf("%d. %s - %s", i+1, o.BookTitle, o.BorrowerName),
			fmt.Sprintf("%d days overdue", o.DaysOverdue),
		})
	}

	if err := cw.WriteAll(records); err != nil {
		return err
	}
	return cw.Error()
}
