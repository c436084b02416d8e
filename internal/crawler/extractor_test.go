package crawler

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullPosting = `<div class="row result">
	<h2><a data-tn-element="jobTitle" title="Backend Engineer" href="/rc/clk?jk=1">Backend <b>Engineer</b></a></h2>
	<span class="company"> Acme Corp </span>
	<span class="location">Austin, TX 78701</span>
	<div class="location">Round Rock, TX</div>
	<span class="summary">Build reliable, scalable services!
		Work with Go &amp; Postgres.</span>
	<span class="sjcl">$90,000 - $120,000 a year</span>
	<span class="date">3 days ago</span>
</div>`

func fragmentFrom(t *testing.T, html string) PostingFragment {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	sel := doc.Find("div.row").First()
	require.Equal(t, 1, sel.Length())
	return PostingFragment{Target: "Austin", Selection: sel}
}

func testExtractor(today time.Time) *Extractor {
	e := NewExtractor(DefaultSelectors)
	e.Now = func() time.Time { return today }
	return e
}

func TestExtractFullPosting(t *testing.T) {
	today := time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)
	record := testExtractor(today).Extract(fragmentFrom(t, fullPosting))

	assert.Equal(t, "Backend Engineer", record.Title)
	assert.Equal(t, "Acme Corp", record.Company)
	assert.Equal(t, "Austin, TX 78701", record.Location)
	assert.Equal(t, "Build scalable Work with Go", record.Summary)
	assert.Equal(t, "90,000-120,000", record.Salary)
	require.NotNil(t, record.PostedDate)
	assert.Equal(t, "2024-03-07", record.DateString())
	assert.Equal(t, Target("Austin"), record.Target)
	assert.Zero(t, record.Key)
}

func TestExtractEmptyPostingUsesSentinels(t *testing.T) {
	record := testExtractor(time.Now()).Extract(fragmentFrom(t, `<div class="row"></div>`))

	assert.Equal(t, Unknown, record.Title)
	assert.Equal(t, Unknown, record.Company)
	assert.Equal(t, NotAvailable, record.Location)
	assert.Equal(t, Unknown, record.Summary)
	assert.Equal(t, NotAvailable, record.Salary)
	assert.Nil(t, record.PostedDate)
	assert.Equal(t, "", record.DateString())
}

func TestExtractTitleFallbacks(t *testing.T) {
	e := testExtractor(time.Now())

	noAnchor := e.Extract(fragmentFrom(t, `<div class="row"><span class="company">Acme</span></div>`))
	assert.Equal(t, Unknown, noAnchor.Title)
	assert.Equal(t, "Acme", noAnchor.Company, "other fields stay aligned without a title")

	noAttr := e.Extract(fragmentFrom(t, `<div class="row"><a data-tn-element="jobTitle"> Data   Analyst </a></div>`))
	assert.Equal(t, "Data Analyst", noAttr.Title)

	twoAnchors := e.Extract(fragmentFrom(t, `<div class="row">
		<a data-tn-element="jobTitle" title="First"></a>
		<a data-tn-element="jobTitle" title="Second"></a></div>`))
	assert.Equal(t, "First", twoAnchors.Title)
}

func TestExtractCompanyFallback(t *testing.T) {
	e := testExtractor(time.Now())

	record := e.Extract(fragmentFrom(t, `<div class="row"><span class="result-link-source"> Staffing Co </span></div>`))
	assert.Equal(t, "Staffing Co", record.Company)

	record = e.Extract(fragmentFrom(t, `<div class="row"><span class="company">  </span><span class="result-link-source">Staffing Co</span></div>`))
	assert.Equal(t, "Staffing Co", record.Company, "blank primary falls through")

	record = e.Extract(fragmentFrom(t, `<div class="row"><span class="company">Acme</span><span class="company">Other</span></div>`))
	assert.Equal(t, "Acme", record.Company)
}

func TestExtractLocation(t *testing.T) {
	e := testExtractor(time.Now())

	tests := []struct {
		name string
		html string
		want string
	}{
		{"missing", `<div class="row"><span class="company">Acme</span></div>`, NotAvailable},
		{"span vjs-loc fallback", `<div class="row"><span class="vjs-loc">Dallas, TX</span></div>`, "Dallas, TX"},
		{"div only", `<div class="row"><div class="location">Remote</div></div>`, "Remote"},
		{"div vjs-loc fallback", `<div class="row"><div class="vjs-loc">Plano, TX</div></div>`, "Plano, TX"},
		{"span pass wins", `<div class="row"><div class="location">Second</div><span class="location">First</span></div>`, "First"},
		{"primary beats fallback", `<div class="row"><span class="vjs-loc">Fallback</span><span class="location">Primary</span></div>`, "Primary"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Extract(fragmentFrom(t, tt.html)).Location)
		})
	}
}

func TestLocationCandidatesCollectsBothPasses(t *testing.T) {
	e := testExtractor(time.Now())
	f := fragmentFrom(t, `<div class="row">
		<span class="location">A</span><span class="location">B</span>
		<span class="vjs-loc">ignored</span>
		<div class="vjs-loc">C</div></div>`)

	assert.Equal(t, []string{"A", "B", "C"}, e.locationCandidates(f.Selection))
}

func TestExtractSummary(t *testing.T) {
	e := testExtractor(time.Now())

	record := e.Extract(fragmentFrom(t, `<div class="row"><span class="summary">  Design, build   and ship. </span></div>`))
	assert.Equal(t, "build and", record.Summary)

	record = e.Extract(fragmentFrom(t, `<div class="row"><span class="summary">Design, build and ship Go.</span></div>`))
	assert.Equal(t, "build and ship", record.Summary)

	record = e.Extract(fragmentFrom(t, `<div class="row"><span class="summary">Design, build</span></div>`))
	assert.Equal(t, Unknown, record.Summary, "no word is followed by whitespace")

	record = e.Extract(fragmentFrom(t, `<div class="row"><span class="summary"> ... </span></div>`))
	assert.Equal(t, Unknown, record.Summary, "punctuation-only summary is treated as missing")
}

func TestNormalizeSummary(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"trailing word dropped", "Work with Go", "Work with"},
		{"punctuation-adjacent words dropped", "Fast, safe and (simple) code here", "safe and code"},
		{"whitespace runs collapse", "one \t two\n\tthree four", "one two three"},
		{"surrounding whitespace trimmed", "  alpha beta  ", "alpha"},
		{"unicode words", "café crème brûlée", "café crème"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeSummary(tt.text))
		})
	}
}

func TestExtractSalaryUsesLastBlock(t *testing.T) {
	e := testExtractor(time.Now())

	record := e.Extract(fragmentFrom(t, `<div class="row">
		<span class="sjcl">$40,000 - $60,000</span>
		<span class="sjcl">$70,000 a year</span></div>`))
	assert.Equal(t, "70,000", record.Salary)

	record = e.Extract(fragmentFrom(t, `<div class="row">
		<span class="sjcl">$40,000</span>
		<span class="sjcl">Full-time</span></div>`))
	assert.Equal(t, NotAvailable, record.Salary, "figures in earlier blocks are ignored")

	record = e.Extract(fragmentFrom(t, `<div class="row"><span class="sjcl">$50,000 - $70,000 - $90,000</span></div>`))
	assert.Equal(t, "50,000-70,000", record.Salary)
}

func TestExtractPostedDate(t *testing.T) {
	today := time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)
	e := testExtractor(today)

	record := e.Extract(fragmentFrom(t, `<div class="row"><span class="date">an hour ago</span></div>`))
	assert.Equal(t, "2024-03-10", record.DateString())

	record = e.Extract(fragmentFrom(t, `<div class="row"><span class="date">Today</span></div>`))
	assert.Nil(t, record.PostedDate)
}

func TestApplyHandlersSkipsEmptyAndNil(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<div></div>`))
	require.NoError(t, err)

	got := applyHandlers(doc.Selection, []ElementHandler{
		nil,
		func(*goquery.Selection) string { return "  " },
		func(*goquery.Selection) string { return "second" },
		func(*goquery.Selection) string { return "third" },
	})
	assert.Equal(t, "second", got)
}

func TestFieldRecoversFromPanic(t *testing.T) {
	e := testExtractor(time.Now())
	f := fragmentFrom(t, `<div class="row"></div>`)

	got := e.field(f, "title", Unknown, func() string { panic("bad markup") })
	assert.Equal(t, Unknown, got)
}
