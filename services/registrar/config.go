package registrar

import (
	"fmt"
	"regexp"
	"time"

	"mackay-backend/lib/scrapers/mackay"
)

// CandidateSlot is one (date, session, doctor) combination eligible
// for a registration attempt. List order in the config is attempt
// priority.
type CandidateSlot struct {
	// YYYY/MM/DD
	Date    string             `json:"date"`
	Session mackay.TimeSession `json:"session"`
	// department code, e.g. "30" for pediatrics
	DeptCode   string `json:"dept_code"`
	DoctorCode string `json:"doctor_code"`
	// display only, the form wants the code
	DoctorName string `json:"doctor_name"`
}

func (s CandidateSlot) String() string {
	return fmt.Sprintf("%s %s %s", s.Date, s.DoctorName, s.Session.Label())
}

// Identity is the patient identity the form authenticates against.
type Identity struct {
	// national id, 10 characters
	IdNumber string `json:"id_number"`
	// YYYYMMDD
	Birthday string `json:"birthday"`
}

var birthdayPattern = regexp.MustCompile(`^\d{8}$`)

func (id Identity) Validate() error {
	if len(id.IdNumber) != 10 {
		return fmt.Errorf("id number must be 10 characters, got %d", len(id.IdNumber))
	}
	if !birthdayPattern.MatchString(id.Birthday) {
		return fmt.Errorf("birthday must be 8 digits (YYYYMMDD)")
	}
	return nil
}

type SmtpConfig struct {
	Server   string `json:"server"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	Sender   string `json:"sender"`
}

func (c SmtpConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server, c.Port)
}

// Options wires one scheduler run. Delays are fixed, not backoffs:
// the portal's capacity changes on its own schedule, not in response
// to our request rate.
type Options struct {
	Slots    []CandidateSlot
	Identity Identity

	Smtp SmtpConfig
	// comma-delimited, entries trimmed
	Recipients string

	// number of passes over the candidate list, at least 1
	MaxRounds int
	// pause between two attempts within a round
	AttemptDelay time.Duration
	// pause between two rounds
	RoundDelay time.Duration
	// suppression window set after a successful booking
	CooldownWindow time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxRounds < 1 {
		o.MaxRounds = 1
	}
	if o.AttemptDelay == 0 {
		o.AttemptDelay = 2 * time.Second
	}
	if o.RoundDelay == 0 {
		o.RoundDelay = 30 * time.Second
	}
	if o.CooldownWindow == 0 {
		o.CooldownWindow = 2 * time.Hour
	}
	return o
}
