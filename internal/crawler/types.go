package crawler

import (
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	// Unknown is the sentinel for title, company and summary
	Unknown = "unknown"
	// NotAvailable is the sentinel for location and salary
	NotAvailable = "N/A"

	// PageSize is the number of results requested per page and the offset step
	PageSize = 50
	// SearchRadius is the radius (miles) sent with every search
	SearchRadius = 50
	// MaxAgeDays limits results to postings younger than this many days
	MaxAgeDays = 30
)

// Target is one location scope to search within: a city, state, zip code
// or a member of a predefined target set.
type Target string

func (t Target) String() string { return string(t) }

// Page is the raw text of one result page and the request that produced it
type Page struct {
	Target Target
	Offset int
	Body   []byte
}

// PostingFragment is the markup subtree of a single posting on a page
type PostingFragment struct {
	Target    Target
	Offset    int
	Index     int
	Selection *goquery.Selection
}

// JobRecord is one normalized posting. Content fields always hold a value;
// missing data is represented by Unknown, NotAvailable or a nil PostedDate.
type JobRecord struct {
	Key        int        `json:"key"`
	Title      string     `json:"title"`
	Company    string     `json:"company"`
	Location   string     `json:"location"`
	Summary    string     `json:"summary"`
	Salary     string     `json:"salary"`
	PostedDate *time.Time `json:"posted_date"`
	Target     Target     `json:"target"`
}

// DateString formats PostedDate as YYYY-MM-DD, or "" when it is unknown
func (r JobRecord) DateString() string {
	if r.PostedDate == nil {
		return ""
	}
	return r.PostedDate.Format("2006-01-02")
}

// ElementHandler extracts one string from a posting; "" means "try the next handler"
type ElementHandler func(*goquery.Selection) string

// Selectors contains CSS selectors for the posting markup
type Selectors struct {
	Posting string
	Title   string
	// Company lists selectors in fallback order
	Company []string
	// Location holds one primary/fallback pair per pass; every pass contributes
	Location [][]string
	Summary  string
	Salary   string
	PostedAt string
}

// DefaultSelectors matches the listing service's result markup
var DefaultSelectors = Selectors{
	Posting: "div.row",
	Title:   `a[data-tn-element="jobTitle"]`,
	Company: []string{"span.company", "span.result-link-source"},
	Location: [][]string{
		{"span.location", "span.vjs-loc"},
		{"div.location", "div.vjs-loc"},
	},
	Summary:  "span.summary",
	Salary:   "span.sjcl",
	PostedAt: "span.date",
}
