package content

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"
)

// Text returns the NFC-normalized, whitespace-collapsed text of s.
func Text(s *goquery.Selection) string {
	return NormalizeText(s.Text())
}

// NormalizeText applies NFC and collapses runs of whitespace.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// Sanitizer cleans extracted markup before it leaves the page.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer builds the user-generated-content policy.
func NewSanitizer() *Sanitizer {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return &Sanitizer{policy: p}
}

// HTML returns the sanitized, NFC-normalized inner markup of s.
func (z *Sanitizer) HTML(s *goquery.Selection) string {
	if s.Length() == 0 {
		return ""
	}
	raw, err := s.Html()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(norm.NFC.String(z.policy.Sanitize(raw)))
}

// parseCount reads integers like "1234", "1,234", "12.5k" or "-3 points".
func parseCount(s string) int {
	s = strings.TrimSpace(strings.ToLower(s))
	if i := strings.IndexByte(s, ' '); i >= 0 {
		s = s[:i]
	}
	s = strings.ReplaceAll(s, ",", "")
	mult := 1.0
	switch {
	case strings.HasSuffix(s, "k"):
		mult, s = 1e3, strings.TrimSuffix(s, "k")
	case strings.HasSuffix(s, "m"):
		mult, s = 1e6, strings.TrimSuffix(s, "m")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int(f * mult)
}
