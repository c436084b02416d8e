package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSalary(t *testing.T) {
	assert.Equal(t, "N/A", ParseSalary(nil))
	assert.Equal(t, "N/A", ParseSalary([]string{}))
	assert.Equal(t, "40,000", ParseSalary([]string{"40,000"}))
	assert.Equal(t, "40,000-60,000", ParseSalary([]string{"40,000", "60,000"}))
	assert.Equal(t, "40,000-60,000", ParseSalary([]string{"40,000", "60,000", "80,000"}))
}

func TestFindSalaryFigures(t *testing.T) {
	assert.Equal(t, []string{"50,000", "100,000"}, FindSalaryFigures(" $50,000 - $100,000 a year "))
	assert.Equal(t, []string{"45,000"}, FindSalaryFigures("From $45,000 a year"))
	assert.Empty(t, FindSalaryFigures("$25 an hour"))
	assert.Empty(t, FindSalaryFigures(""))
}
