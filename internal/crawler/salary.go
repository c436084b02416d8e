package crawler

import (
	"regexp"
	"strings"
)

// grabs figures such as 50,000 or 100,000
var salaryFigure = regexp.MustCompile(`\d{2,3},\d{1,3}`)

// FindSalaryFigures returns every salary-shaped figure in text, in order
func FindSalaryFigures(text string) []string {
	return salaryFigure.FindAllString(strings.TrimSpace(text), -1)
}

// ParseSalary renders matched figures as a salary string.
// No figures gives NotAvailable, one gives that figure, two or more give
// "<first>-<second>". Figures past the second are ignored.
func ParseSalary(figures []string) string {
	switch len(figures) {
	case 0:
		return NotAvailable
	case 1:
		return figures[0]
	default:
		return figures[0] + "-" + figures[1]
	}
}
