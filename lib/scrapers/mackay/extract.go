package mackay

import (
	"regexp"
	"strings"

	"mackay-backend/lib/htmlutil"
)

var fallbackPatterns = []struct {
	re    *regexp.Regexp
	field func(*Outcome) *string
}{
	{regexp.MustCompile(`看診日期[：:]?\s*(\S+)`), func(o *Outcome) *string { return &o.AppointmentDate }},
	{regexp.MustCompile(`科別[：:]?\s*(\S+)`), func(o *Outcome) *string { return &o.Department }},
	{regexp.MustCompile(`醫師[：:]?\s*(\S+)`), func(o *Outcome) *string { return &o.Doctor }},
	{regexp.MustCompile(`(\d{4}[-/]\d{1,2}[-/]\d{1,2})`), func(o *Outcome) *string { return &o.AppointmentDate }},
}

// extractDetails pulls appointment metadata out of a confirmation
// page. The markup varies across the portal's code paths, so this is
// best effort: emphasis-styled labels first, regex over the page text
// as a fallback. Fields that cannot be found stay empty; extraction
// never fails the classification.
func extractDetails(p page) Outcome {
	var out Outcome

	for _, node := range p.doc.Find("strong").Nodes {
		label := htmlutil.NormalizeString(htmlutil.GetText(node))
		value := htmlutil.NextSiblingText(node)
		if value == "" {
			continue
		}

		switch {
		case strings.Contains(label, "日期") && out.AppointmentDate == "":
			out.AppointmentDate = value
		case strings.Contains(label, "科別") && out.Department == "":
			out.Department = value
		case strings.Contains(label, "醫師") && out.Doctor == "":
			out.Doctor = value
		}
	}

	for _, pattern := range fallbackPatterns {
		field := pattern.field(&out)
		if *field != "" {
			continue
		}
		match := pattern.re.FindStringSubmatch(p.text)
		if len(match) >= 2 {
			*field = match[1]
		}
	}

	out.StatusText = "掛號成功"
	return out
}
