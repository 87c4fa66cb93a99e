package mackay

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/codes"
)

// TimeSession is a half-day scheduling window for a given date, in the
// numeric encoding the form expects.
type TimeSession string

const (
	SessionMorning   TimeSession = "1"
	SessionAfternoon TimeSession = "2"
	SessionEvening   TimeSession = "3"
)

func (s TimeSession) Label() string {
	switch s {
	case SessionMorning:
		return "上午診"
	case SessionAfternoon:
		return "下午診"
	case SessionEvening:
		return "夜間診"
	}
	return string(s)
}

// Request carries everything needed for one registration POST. Built
// fresh for every attempt, never reused.
type Request struct {
	// YYYY/MM/DD
	Date    string
	Session TimeSession
	// department code, e.g. "30" for pediatrics
	DeptCode   string
	DoctorCode string
	IdNumber   string
	// YYYYMMDD
	Birthday string
	// challenge-response token, passed through opaque and usually empty
	Captcha string
}

// Register submits one registration attempt and returns the raw
// response HTML. The body has no stable schema across the portal's
// code paths; interpreting it is Classify's job.
func (c *Client) Register(ctx context.Context, req Request) (string, error) {
	ctx, span := tracer.Start(ctx, "client:Register")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		SetHeader("referer", c.BaseUrl.JoinPath("register_action.php").String()).
		SetFormData(map[string]string{
			"workflag":           "registernow",
			"strSchdate":         req.Date,
			"strSchap":           string(req.Session),
			"strDept":            req.DeptCode,
			"strDr":              req.DoctorCode,
			"strIdnoPassPortSel": "1",
			"txtID":              req.IdNumber,
			"txtBirth":           req.Birthday,
			"txtwebword":         req.Captcha,
		}).
		Post("/registerdone.php")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "registration request failed")
		return "", err
	}
	if res.IsError() {
		span.SetStatus(codes.Error, "registration request returned error status")
		return "", fmt.Errorf("registration POST: status %d", res.StatusCode())
	}

	return res.String(), nil
}
