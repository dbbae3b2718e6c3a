package filter

import (
	"regexp"
	"strings"
	"unicode"

	"go-actuarylist-scraper/internal/models"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	internshipRegex = regexp.MustCompile(`\bintern(ship)?s?\b`)
	partTimeRegex   = regexp.MustCompile(`\bpart[\s-]?time\b`)
	contractRegex   = regexp.MustCompile(`\bcontract(ors?|s)?\b`)
)

// jobTypeRules are checked in order; the first match wins.
var jobTypeRules = []struct {
	re      *regexp.Regexp
	jobType models.JobType
}{
	{internshipRegex, models.JobTypeInternship},
	{partTimeRegex, models.JobTypePartTime},
	{contractRegex, models.JobTypeContract},
}

// normalizeText lowercases and strips diacritics so "Stagiaire Intérimaire"
// and "stagiaire interimaire" scan the same.
func normalizeText(str string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, str)
	return strings.ToLower(result)
}

// InferJobType classifies a listing from its title and tag text.
// Listings matching no rule are full-time.
func InferJobType(title string, tags []string) models.JobType {
	text := normalizeText(title + " " + strings.Join(tags, " "))
	for _, rule := range jobTypeRules {
		if rule.re.MatchString(text) {
			return rule.jobType
		}
	}
	return models.JobTypeFullTime
}
