// Package vghtpe scrapes doctor timetable pages of the outpatient
// registration site, extracting the slots that are currently open for
// booking. Read-only; the actual booking happens elsewhere.
package vghtpe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mackay-backend/lib/htmlutil"
	"mackay-backend/lib/restyutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
)

// Slot is one bookable row of a doctor's timetable.
type Slot struct {
	ClinicType string
	Date       string
	WeekDay    string
	TimeSlot   string
	Doctor     string
	Room       string
	Status     string
	// the timetable page the slot was found on, doubles as the
	// booking link in notifications
	Url string
}

// Key identifies a slot across polls for de-duplication purposes.
func (s Slot) Key() string {
	return strings.Join([]string{s.Date, s.TimeSlot, s.Doctor, s.Room}, "|")
}

type Client struct {
	Http *resty.Client
}

func NewClient() *Client {
	client := resty.New()
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/142.0.0.0 Safari/537.36")
	client.SetTimeout(time.Second * 30)

	restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)

	return &Client{Http: client}
}

// statuses the portal renders for a row that can still be booked
var openStatuses = map[string]bool{
	"可掛號": true,
	"可選擇": true,
}

// FetchOpenSlots downloads one doctor timetable page and returns its
// open slots. Substitute-doctor rows are dropped.
func (c *Client) FetchOpenSlots(ctx context.Context, link string) ([]Slot, error) {
	ctx, span := tracer.Start(ctx, "client:FetchOpenSlots")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		Get(link)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch timetable page")
		return nil, err
	}
	if res.IsError() {
		span.SetStatus(codes.Error, "timetable page returned error status")
		return nil, fmt.Errorf("GET %s: status %d", link, res.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.String()))
	if err != nil {
		return nil, err
	}
	if !strings.Contains(doc.Text(), "醫師") && !strings.Contains(doc.Text(), "醫生") {
		span.SetStatus(codes.Error, "page does not look like a timetable")
		return nil, fmt.Errorf("unexpected page content at %s", link)
	}

	return parseTimetable(doc, link), nil
}

func parseTimetable(doc *goquery.Document, link string) []Slot {
	var slots []Slot

	doc.Find("table.table_list.reg_return_table").Each(func(_ int, table *goquery.Selection) {
		table.Find("tr").Each(func(rowIdx int, row *goquery.Selection) {
			// header row
			if rowIdx == 0 {
				return
			}
			cells := row.Find("td")
			if cells.Length() < 7 {
				return
			}

			slot := Slot{
				ClinicType: htmlutil.NormalizeText(cells.Eq(0)),
				Date:       htmlutil.NormalizeText(cells.Eq(1)),
				WeekDay:    htmlutil.NormalizeText(cells.Eq(2)),
				TimeSlot:   htmlutil.NormalizeText(cells.Eq(3)),
				Doctor:     htmlutil.NormalizeText(cells.Eq(4)),
				Room:       htmlutil.NormalizeText(cells.Eq(5)),
				Status:     htmlutil.NormalizeText(cells.Eq(6)),
				Url:        link,
			}

			if !openStatuses[slot.Status] {
				return
			}
			if slot.Doctor == "代診醫師" || strings.Contains(slot.Doctor, "代診") {
				return
			}
			slots = append(slots, slot)
		})
	})

	return slots
}
