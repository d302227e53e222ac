// Package parser turns raw chat-message text into candidate signals.
// Most chat traffic is noise; a miss is not an error.
package parser

import (
	"regexp"
	"strings"

	"github.com/otcflow/signaldesk/internal/domain"
)

// Kind tags which message shape matched.
type Kind int

const (
	// KindLiveEntry is an announcement of a trade about to be taken; the
	// outcome is implicitly PENDING.
	KindLiveEntry Kind = iota + 1
	// KindFinalResult is a settled trade report carrying WIN or LOSS.
	KindFinalResult
)

// Result is a tagged parse outcome. Signal.Date is zero; attribution to a
// calendar day needs the message timestamp and is the caller's job.
type Result struct {
	Kind   Kind
	Signal domain.Signal
}

var (
	// Live-entry shape: asset, time and direction markers in order, with
	// arbitrary decoration between them.
	liveEntryRe = regexp.MustCompile(`(?is)Ativo:\s*([A-Z0-9\-]+).*?Hor[áa]rio:\s*(\d{2}:\d{2}:\d{2}).*?Dire[çc][ãa]o:\s*(call|put)`)

	// Final-result shape: ASSET - HH:MM:SS - M1 - DIRECTION - WIN|LOSS.
	finalResultRe = regexp.MustCompile(`(?i)([A-Z0-9\-]+)\s*-\s*(\d{2}:\d{2}:\d{2})\s*-\s*M1\s*-\s*(call|put)\s*-\s*(WIN|LOSS)`)
)

// Parser recognizes the two signal message shapes.
type Parser struct{}

func New() *Parser { return &Parser{} }

// Parse returns the candidate signal found in text, or ok=false when the text
// matches neither shape.
func (p *Parser) Parse(text string) (Result, bool) {
	if m := liveEntryRe.FindStringSubmatch(text); m != nil {
		tod, err := domain.ParseTimeOfDay(m[2])
		if err != nil {
			return Result{}, false
		}
		return Result{
			Kind: KindLiveEntry,
			Signal: domain.Signal{
				Time:      tod,
				Asset:     strings.ToUpper(strings.TrimSpace(m[1])),
				Direction: domain.Direction(strings.ToUpper(m[3])),
				Outcome:   domain.OutcomePending,
				Gale:      galeLevel(text),
			},
		}, true
	}

	if m := finalResultRe.FindStringSubmatch(text); m != nil {
		tod, err := domain.ParseTimeOfDay(m[2])
		if err != nil {
			return Result{}, false
		}
		return Result{
			Kind: KindFinalResult,
			Signal: domain.Signal{
				Time:      tod,
				Asset:     strings.ToUpper(strings.TrimSpace(m[1])),
				Direction: domain.Direction(strings.ToUpper(m[3])),
				Outcome:   domain.Outcome(strings.ToUpper(m[4])),
				Gale:      galeLevel(text),
			},
		}, true
	}

	return Result{}, false
}

// galeLevel reads the superscript retry marker anywhere in the text.
func galeLevel(text string) int {
	switch {
	case strings.Contains(text, "¹"):
		return 1
	case strings.Contains(text, "²"):
		return 2
	default:
		return 0
	}
}
