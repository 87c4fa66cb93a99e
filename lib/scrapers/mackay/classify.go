package mackay

import (
	"strings"

	"mackay-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

type OutcomeKind int

const (
	OutcomeUnknown OutcomeKind = iota
	OutcomeSuccess
	OutcomeFull
	OutcomeError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeFull:
		return "full"
	case OutcomeError:
		return "error"
	}
	return "unknown"
}

// Outcome is the verdict for one registration response. Exactly one
// kind is set; Unknown is a deliberate terminal verdict, not an error.
type Outcome struct {
	Kind OutcomeKind

	// set on Success, best effort
	AppointmentDate string
	Department      string
	Doctor          string
	StatusText      string

	// set on Error
	Reason string

	// set on Unknown
	RawExcerpt string
}

// keyword lists observed from the live portal. unrecognized variants
// surface as Unknown together with a raw dump (see restyutil).
var (
	fullKeywords    = []string{"滿號", "請改掛", "已額滿", "額滿", "已掛滿"}
	successKeywords = []string{"掛號成功", "預約成功", "掛號完成", "已掛號", "成功掛號"}
	errorKeywords   = []string{"驗證碼錯誤", "身份證錯誤", "生日錯誤", "資料錯誤"}
)

const excerptLimit = 500

type page struct {
	doc  *goquery.Document
	text string
}

type rule func(p page) (Outcome, bool)

// evaluated top to bottom, first match wins. full-slot keywords come
// before success keywords: some "slot full" pages still carry generic
// confirmation boilerplate further down.
var rules = []rule{
	matchFullKeywords,
	matchSuccessKeywords,
	matchErrorKeywords,
	matchPrintBlock,
	matchResultTable,
	matchAlertMarkup,
}

// Classify turns the raw response HTML of one registration attempt
// into an Outcome. It never fails: unparseable input and pages
// matching no rule both come back as Unknown.
func Classify(rawHtml string) Outcome {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHtml))
	if err != nil {
		return Outcome{
			Kind:       OutcomeUnknown,
			RawExcerpt: excerpt(rawHtml),
		}
	}

	p := page{
		doc:  doc,
		text: htmlutil.NormalizeString(doc.Text()),
	}

	for _, r := range rules {
		if outcome, ok := r(p); ok {
			return outcome
		}
	}

	return Outcome{
		Kind:       OutcomeUnknown,
		RawExcerpt: excerpt(p.text),
	}
}

func excerpt(s string) string {
	runes := []rune(s)
	if len(runes) > excerptLimit {
		runes = runes[:excerptLimit]
	}
	return string(runes)
}

func containsAny(text string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return kw, true
		}
	}
	return "", false
}

func matchFullKeywords(p page) (Outcome, bool) {
	if _, ok := containsAny(p.text, fullKeywords); !ok {
		return Outcome{}, false
	}
	return Outcome{
		Kind:       OutcomeFull,
		StatusText: "已滿號或無可用時段",
	}, true
}

func matchSuccessKeywords(p page) (Outcome, bool) {
	if _, ok := containsAny(p.text, successKeywords); !ok {
		return Outcome{}, false
	}
	outcome := extractDetails(p)
	outcome.Kind = OutcomeSuccess
	return outcome, true
}

func matchErrorKeywords(p page) (Outcome, bool) {
	kw, ok := containsAny(p.text, errorKeywords)
	if !ok {
		return Outcome{}, false
	}
	return Outcome{
		Kind:   OutcomeError,
		Reason: kw,
	}, true
}

// classifyStatusText applies the keyword rules to the outcome text of
// a structured result block. ok is false when the status matches
// nothing, in which case the caller falls through to the next rule.
func classifyStatusText(status string, fields Outcome) (Outcome, bool) {
	if _, full := containsAny(status, fullKeywords); full {
		return Outcome{Kind: OutcomeFull, StatusText: status}, true
	}
	if strings.Contains(status, "成功") || strings.Contains(status, "已掛號") {
		fields.Kind = OutcomeSuccess
		fields.StatusText = status
		return fields, true
	}
	if _, failed := containsAny(status, errorKeywords); failed {
		return Outcome{Kind: OutcomeError, Reason: status}, true
	}
	return Outcome{}, false
}

// the portal's printable confirmation area, a <div id="myprint"> with
// labeled <li> lines
func matchPrintBlock(p page) (Outcome, bool) {
	block := p.doc.Find("div#myprint")
	if block.Length() == 0 {
		return Outcome{}, false
	}

	var fields Outcome
	var status string
	block.Find("li").Each(func(_ int, item *goquery.Selection) {
		text := htmlutil.NormalizeText(item)
		switch {
		case strings.Contains(text, "看診日期："):
			fields.AppointmentDate = strings.TrimSpace(strings.ReplaceAll(text, "看診日期：", ""))
		case strings.Contains(text, "看診科別："):
			fields.Department = strings.TrimSpace(strings.ReplaceAll(text, "看診科別：", ""))
		case strings.Contains(text, "看診醫師："):
			fields.Doctor = strings.TrimSpace(strings.ReplaceAll(text, "看診醫師：", ""))
		case strings.Contains(text, "掛號結果："):
			status = strings.TrimSpace(strings.ReplaceAll(text, "掛號結果：", ""))
		}
	})

	if status == "" {
		return Outcome{}, false
	}
	return classifyStatusText(status, fields)
}

// generic label/value result tables
func matchResultTable(p page) (Outcome, bool) {
	var outcome Outcome
	var matched bool

	p.doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		tableText := htmlutil.NormalizeText(table)
		if !strings.Contains(tableText, "掛號結果") && !strings.Contains(tableText, "看診日期") {
			return true
		}

		var fields Outcome
		var status string
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cols := row.Find("td")
			if cols.Length() < 2 {
				return
			}
			key := htmlutil.NormalizeText(cols.Eq(0))
			value := htmlutil.NormalizeText(cols.Eq(1))
			switch {
			case strings.Contains(key, "日期"):
				fields.AppointmentDate = value
			case strings.Contains(key, "科別"):
				fields.Department = value
			case strings.Contains(key, "醫師"):
				fields.Doctor = value
			case strings.Contains(key, "結果"):
				status = value
			}
		})

		if status == "" {
			return true
		}
		outcome, matched = classifyStatusText(status, fields)
		return !matched
	})

	return outcome, matched
}

// form validation errors rendered as styled inline elements
func matchAlertMarkup(p page) (Outcome, bool) {
	alerts := p.doc.Find(
		"div.error, div.alert, div.warning, p.error, p.alert, p.warning, span.error, span.alert, span.warning",
	)
	if alerts.Length() == 0 {
		return Outcome{}, false
	}

	var messages []string
	alerts.EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if i >= 3 {
			return false
		}
		if text := htmlutil.NormalizeText(sel); text != "" {
			messages = append(messages, text)
		}
		return true
	})
	if len(messages) == 0 {
		return Outcome{}, false
	}

	reason := strings.Join(messages, " | ")
	if runes := []rune(reason); len(runes) > 100 {
		reason = string(runes[:100])
	}
	return Outcome{
		Kind:   OutcomeError,
		Reason: "頁面錯誤: " + reason,
	}, true
}
