package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/dealmungchi/jobcrawler/internal/crawler"
)

// CSVHeader is the column layout of exported records
var CSVHeader = []string{"key", "jobTitle", "company", "location", "summary", "salary", "date"}

// WriteCSV writes every record of src to w in insertion order.
// Undated records get an empty date column.
func WriteCSV(w io.Writer, src RecordSource) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}

	var writeErr error
	src.ForEach(func(r crawler.JobRecord) {
		if writeErr != nil {
			return
		}
		writeErr = cw.Write([]string{
			strconv.Itoa(r.Key),
			r.Title,
			r.Company,
			r.Location,
			r.Summary,
			r.Salary,
			r.DateString(),
		})
	})
	if writeErr != nil {
		return writeErr
	}

	cw.Flush()
	return cw.Error()
}
