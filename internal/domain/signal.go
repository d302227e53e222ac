package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Direction is the traded side of a binary-options signal.
type Direction string

const (
	DirectionCall Direction = "CALL"
	DirectionPut  Direction = "PUT"
)

// Outcome is the lifecycle state of a signal. A signal is created PENDING and
// resolves exactly once to WIN or LOSS; resolved outcomes never change.
type Outcome string

const (
	OutcomePending Outcome = "PENDING"
	OutcomeWin     Outcome = "WIN"
	OutcomeLoss    Outcome = "LOSS"
)

// Resolved reports whether the outcome is final.
func (o Outcome) Resolved() bool {
	return o == OutcomeWin || o == OutcomeLoss
}

// DateLayout is the source-local calendar date format used in the canonical log.
const DateLayout = "02/01/2006"

// Signal is one observed trade event parsed from the chat stream.
type Signal struct {
	Date      time.Time `json:"date"`
	Time      TimeOfDay `json:"time"`
	Asset     string    `json:"asset"`
	Direction Direction `json:"direction"`
	Outcome   Outcome   `json:"outcome"`
	Gale      int       `json:"gale"` // retry level, 0 = first attempt
}

// Key identifies a signal within the canonical log. (date, time) is unique.
type Key struct {
	Date string
	Time string
}

// Key returns the dedup key for the signal.
func (s Signal) Key() Key {
	return Key{Date: s.Date.Format(DateLayout), Time: s.Time.String()}
}

// Fields serializes the signal into the positional 6-field row format of the
// canonical log: date, time, asset, direction, outcome, gale.
func (s Signal) Fields() []string {
	return []string{
		s.Date.Format(DateLayout),
		s.Time.String(),
		s.Asset,
		string(s.Direction),
		string(s.Outcome),
		strconv.Itoa(s.Gale),
	}
}

// SignalFromFields parses a positional canonical-log row back into a Signal.
func SignalFromFields(fields []string) (Signal, error) {
	if len(fields) < 6 {
		return Signal{}, fmt.Errorf("row has %d fields, want 6", len(fields))
	}
	date, err := time.Parse(DateLayout, strings.TrimSpace(fields[0]))
	if err != nil {
		return Signal{}, fmt.Errorf("parse date %q: %w", fields[0], err)
	}
	tod, err := ParseTimeOfDay(fields[1])
	if err != nil {
		return Signal{}, fmt.Errorf("parse time %q: %w", fields[1], err)
	}
	gale, err := strconv.Atoi(strings.TrimSpace(fields[5]))
	if err != nil {
		return Signal{}, fmt.Errorf("parse gale %q: %w", fields[5], err)
	}
	return Signal{
		Date:      date,
		Time:      tod,
		Asset:     strings.ToUpper(strings.TrimSpace(fields[2])),
		Direction: Direction(strings.ToUpper(strings.TrimSpace(fields[3]))),
		Outcome:   Outcome(strings.ToUpper(strings.TrimSpace(fields[4]))),
		Gale:      gale,
	}, nil
}

// Validate checks field ranges before a signal enters the canonical log.
func (s Signal) Validate() error {
	if s.Asset == "" {
		return fmt.Errorf("signal has empty asset")
	}
	if s.Direction != DirectionCall && s.Direction != DirectionPut {
		return fmt.Errorf("invalid direction %q", s.Direction)
	}
	switch s.Outcome {
	case OutcomePending, OutcomeWin, OutcomeLoss:
	default:
		return fmt.Errorf("invalid outcome %q", s.Outcome)
	}
	if s.Gale < 0 || s.Gale > 2 {
		return fmt.Errorf("gale %d out of range 0..2", s.Gale)
	}
	return nil
}
