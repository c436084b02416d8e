package report

import (
	"io"
	"sort"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/dealmungchi/jobcrawler/internal/crawler"
)

// RecordSource is a read-only, ordered view of job records
type RecordSource interface {
	ForEach(fn func(crawler.JobRecord))
}

// Count is one row of a frequency table
type Count struct {
	Label string
	N     int
}

// Summary describes a crawl's records
type Summary struct {
	Total             int
	DistinctTitles    int
	DistinctCompanies int
	WithLocation      int
	WithSalary        int
	WithDate          int
	Earliest          string
	Latest            string
}

// Summarize computes the summary of src
func Summarize(src RecordSource) Summary {
	var s Summary
	titles := map[string]struct{}{}
	companies := map[string]struct{}{}

	src.ForEach(func(r crawler.JobRecord) {
		s.Total++
		if r.Title != crawler.Unknown {
			titles[r.Title] = struct{}{}
		}
		if r.Company != crawler.Unknown {
			companies[r.Company] = struct{}{}
		}
		if r.Location != crawler.NotAvailable {
			s.WithLocation++
		}
		if r.Salary != crawler.NotAvailable {
			s.WithSalary++
		}
		if date := r.DateString(); date != "" {
			s.WithDate++
			if s.Earliest == "" || date < s.Earliest {
				s.Earliest = date
			}
			if date > s.Latest {
				s.Latest = date
			}
		}
	})

	s.DistinctTitles = len(titles)
	s.DistinctCompanies = len(companies)
	return s
}

// CountByDate counts dated records per posting date, oldest first
func CountByDate(src RecordSource) []Count {
	counts := map[string]int{}
	src.ForEach(func(r crawler.JobRecord) {
		if date := r.DateString(); date != "" {
			counts[date]++
		}
	})

	out := toCounts(counts)
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// TopTitles returns the n most frequent titles, ties broken alphabetically.
// n <= 0 returns every title.
func TopTitles(src RecordSource, n int) []Count {
	counts := map[string]int{}
	src.ForEach(func(r crawler.JobRecord) {
		counts[r.Title]++
	})

	out := toCounts(counts)
	sort.Slice(out, func(i, j int) bool {
		if out[i].N != out[j].N {
			return out[i].N > out[j].N
		}
		return out[i].Label < out[j].Label
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func toCounts(counts map[string]int) []Count {
	out := make([]Count, 0, len(counts))
	for label, n := range counts {
		out = append(out, Count{Label: label, N: n})
	}
	return out
}

// RenderSummary writes the summary as a table
func RenderSummary(w io.Writer, s Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Data summary")
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Records", s.Total},
		{"Distinct titles", s.DistinctTitles},
		{"Distinct companies", s.DistinctCompanies},
		{"With location", s.WithLocation},
		{"With salary", s.WithSalary},
		{"With date", s.WithDate},
		{"Earliest date", s.Earliest},
		{"Latest date", s.Latest},
	})
	t.SetStyle(table.StyleRounded)
	t.Render()
}

// RenderCounts writes a frequency table with the given title and label header
func RenderCounts(w io.Writer, title, labelHeader string, counts []Count) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.AppendHeader(table.Row{labelHeader, "Jobs posted"})
	total := 0
	for _, c := range counts {
		t.AppendRow(table.Row{c.Label, c.N})
		total += c.N
	}
	t.AppendFooter(table.Row{"Total", strconv.Itoa(total)})
	t.SetStyle(table.StyleRounded)
	t.Render()
}
