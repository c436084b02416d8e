package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealmungchi/jobcrawler/internal/crawler"
	"github.com/dealmungchi/jobcrawler/services/store"
)

func day(d int) *time.Time {
	t := time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func sampleStore() *store.RecordStore {
	s := store.NewRecordStore()
	s.Append(crawler.JobRecord{Title: "Engineer", Company: "Acme", Location: "Austin, TX", Summary: "Build things", Salary: "90,000-120,000", PostedDate: day(7)})
	s.Append(crawler.JobRecord{Title: "Analyst", Company: "Beta", Location: crawler.NotAvailable, Summary: "Crunch, numbers", Salary: crawler.NotAvailable, PostedDate: day(9)})
	s.Append(crawler.JobRecord{Title: "Engineer", Company: "Beta", Location: "Dallas, TX", Summary: crawler.Unknown, Salary: "50,000", PostedDate: day(7)})
	s.Append(crawler.JobRecord{Title: crawler.Unknown, Company: crawler.Unknown, Location: crawler.NotAvailable, Summary: crawler.Unknown, Salary: crawler.NotAvailable})
	return s
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleStore())
	assert.Equal(t, Summary{
		Total:             4,
		DistinctTitles:    2,
		DistinctCompanies: 2,
		WithLocation:      2,
		WithSalary:        2,
		WithDate:          3,
		Earliest:          "2024-03-07",
		Latest:            "2024-03-09",
	}, s)
}

func TestCountByDate(t *testing.T) {
	assert.Equal(t, []Count{{"2024-03-07", 2}, {"2024-03-09", 1}}, CountByDate(sampleStore()))
}

func TestTopTitles(t *testing.T) {
	assert.Equal(t, []Count{{"Engineer", 2}, {"Analyst", 1}, {"unknown", 1}}, TopTitles(sampleStore(), 0))
	assert.Equal(t, []Count{{"Engineer", 2}}, TopTitles(sampleStore(), 1))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleStore()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "key,jobTitle,company,location,summary,salary,date", lines[0])
	assert.Equal(t, `1,Engineer,Acme,"Austin, TX",Build things,"90,000-120,000",2024-03-07`, lines[1])
	assert.Equal(t, `2,Analyst,Beta,N/A,"Crunch, numbers",N/A,2024-03-09`, lines[2])
	assert.Equal(t, "4,unknown,unknown,N/A,unknown,N/A,", lines[4])
}

func TestRenderTables(t *testing.T) {
	var buf bytes.Buffer
	RenderSummary(&buf, Summarize(sampleStore()))
	RenderCounts(&buf, "Top titles", "Job title", TopTitles(sampleStore(), 10))

	out := strings.ToLower(buf.String())
	assert.Contains(t, out, "distinct titles")
	assert.Contains(t, out, "engineer")
	assert.Contains(t, out, "jobs posted")
}
