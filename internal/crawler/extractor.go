package crawler

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/dealmungchi/jobcrawler/helpers"
	"github.com/dealmungchi/jobcrawler/logger"
)

// a token is a word run followed by whitespace; punctuation and a trailing
// word fall outside the pattern
var summaryToken = regexp.MustCompile(`([\p{L}\p{N}_]+)\s`)

// Extractor turns posting fragments into JobRecords.
// Each field is extracted on its own; a field that cannot be read gets its
// sentinel and the rest of the record is still filled in.
type Extractor struct {
	Selectors Selectors
	// Now supplies "today" for relative dates
	Now func() time.Time

	log *logger.Logger
}

// NewExtractor creates an extractor for the given selectors
func NewExtractor(selectors Selectors) *Extractor {
	return &Extractor{
		Selectors: selectors,
		Now:       time.Now,
		log:       logger.ForComponent("extractor"),
	}
}

// Extract builds a fully populated record from one fragment. Key is left at
// zero; the record store assigns it.
func (e *Extractor) Extract(f PostingFragment) JobRecord {
	s := f.Selection
	today := e.today()

	return JobRecord{
		Title:      e.field(f, "title", Unknown, func() string { return applyHandlers(s, e.titleHandlers()) }),
		Company:    e.field(f, "company", Unknown, func() string { return applyHandlers(s, e.companyHandlers()) }),
		Location:   e.field(f, "location", NotAvailable, func() string { return e.location(s) }),
		Summary:    e.field(f, "summary", Unknown, func() string { return e.summary(s) }),
		Salary:     e.field(f, "salary", NotAvailable, func() string { return e.salary(s) }),
		PostedDate: e.postedDate(f, today),
		Target:     f.Target,
	}
}

func (e *Extractor) today() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// field runs one extraction and substitutes the sentinel for an empty result
// or a panic inside the extraction.
func (e *Extractor) field(f PostingFragment, name, sentinel string, extract func() string) (value string) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn().
				Str("field", name).
				Str("target", f.Target.String()).
				Int("offset", f.Offset).
				Int("index", f.Index).
				Interface("panic", r).
				Msg("Field extraction failed")
			value = sentinel
		}
	}()

	value = strings.TrimSpace(extract())
	if value == "" {
		return sentinel
	}
	return value
}

// applyHandlers returns the first non-empty handler result
func applyHandlers(s *goquery.Selection, handlers []ElementHandler) string {
	for _, handler := range handlers {
		if handler == nil {
			continue
		}
		if result := strings.TrimSpace(handler(s)); result != "" {
			return result
		}
	}
	return ""
}

func (e *Extractor) titleHandlers() []ElementHandler {
	return []ElementHandler{
		func(s *goquery.Selection) string {
			title, _ := s.Find(e.Selectors.Title).First().Attr("title")
			return title
		},
		func(s *goquery.Selection) string {
			return helpers.CollapseSpaces(s.Find(e.Selectors.Title).First().Text())
		},
	}
}

func (e *Extractor) companyHandlers() []ElementHandler {
	handlers := make([]ElementHandler, 0, len(e.Selectors.Company))
	for _, selector := range e.Selectors.Company {
		selector := selector
		handlers = append(handlers, func(s *goquery.Selection) string {
			return helpers.CollapseSpaces(s.Find(selector).First().Text())
		})
	}
	return handlers
}

// locationCandidates collects location texts pass by pass. Within a pass the
// fallback selector is consulted only when the primary one yields nothing.
func (e *Extractor) locationCandidates(s *goquery.Selection) []string {
	var collected []string
	for _, pass := range e.Selectors.Location {
		for _, selector := range pass {
			texts := nonEmptyTexts(s.Find(selector))
			if len(texts) > 0 {
				collected = append(collected, texts...)
				break
			}
		}
	}
	return collected
}

func (e *Extractor) location(s *goquery.Selection) string {
	candidates := e.locationCandidates(s)
	if len(candidates) == 0 {
		return ""
	}
	return candidates[0]
}

func (e *Extractor) summary(s *goquery.Selection) string {
	sel := s.Find(e.Selectors.Summary).First()
	if sel.Length() == 0 {
		return ""
	}
	return NormalizeSummary(sel.Text())
}

// NormalizeSummary keeps the word-character runs of text that are followed by
// whitespace and joins them with single spaces.
func NormalizeSummary(text string) string {
	matches := summaryToken.FindAllStringSubmatch(strings.TrimSpace(text), -1)
	tokens := make([]string, 0, len(matches))
	for _, m := range matches {
		tokens = append(tokens, m[1])
	}
	return strings.Join(tokens, " ")
}

// salary reads figures from the last salary block only; figures in earlier
// blocks are ignored.
func (e *Extractor) salary(s *goquery.Selection) string {
	blocks := s.Find(e.Selectors.Salary)
	if blocks.Length() == 0 {
		return NotAvailable
	}
	return ParseSalary(FindSalaryFigures(blocks.Last().Text()))
}

func (e *Extractor) postedDate(f PostingFragment, today time.Time) (posted *time.Time) {
	defer func() {
		if r := recover(); r != nil {
			posted = nil
		}
	}()

	sel := f.Selection.Find(e.Selectors.PostedAt).First()
	if sel.Length() == 0 {
		return nil
	}
	return ResolveDate(sel.Text(), today)
}

func nonEmptyTexts(sel *goquery.Selection) []string {
	var texts []string
	sel.Each(func(_ int, item *goquery.Selection) {
		if text := helpers.CollapseSpaces(item.Text()); text != "" {
			texts = append(texts, text)
		}
	})
	return texts
}
