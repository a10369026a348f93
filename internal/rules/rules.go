// Package rules holds the automoderation detectors: link policy, caps abuse and flood.
package rules

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"tg-automod/internal/config"
	"tg-automod/internal/domain"
	"tg-automod/internal/models"
)

type Reason string

const (
	ReasonLinks Reason = "links"
	ReasonCaps  Reason = "caps"
	ReasonFlood Reason = "flood"
)

// Violation describes why a message was rejected.
type Violation struct {
	Reason  Reason
	Detail  string
	Domains []string
}

// Message is the rule engine's view of an inbound chat message.
type Message struct {
	Key    models.MemberKey
	Text   string
	Exempt bool
	SentAt time.Time
}

type Options struct {
	CommandPrefixes []string
	CapsMinLetters  int
	CapsRatio       float64
	FloodWindow     time.Duration
	FloodThreshold  int
	FloodDebounce   time.Duration
}

func OptionsFromConfig(m config.ModerationConfig) Options {
	return Options{
		CommandPrefixes: m.CommandPrefixes,
		CapsMinLetters:  m.CapsMinLetters,
		CapsRatio:       m.CapsRatio,
		FloodWindow:     m.FloodWindow,
		FloodThreshold:  m.FloodThreshold,
		FloodDebounce:   m.FloodDebounce,
	}
}

type Engine struct {
	opts  Options
	Flood *FloodTracker
}

func NewEngine(opts Options) *Engine {
	return &Engine{
		opts:  opts,
		Flood: NewFloodTracker(opts.FloodWindow, opts.FloodDebounce),
	}
}

// IsCommand reports whether text starts with one of the configured command prefixes.
func (e *Engine) IsCommand(text string) bool {
	for _, p := range e.opts.CommandPrefixes {
		if p != "" && strings.HasPrefix(text, p) {
			return true
		}
	}
	return false
}

// Evaluate runs the detectors in order (links, caps, flood) and returns the first hit.
// Only the flood detector has a side effect: it records the message in the sender's window.
func (e *Engine) Evaluate(msg Message, lists domain.Lists) *Violation {
	if msg.Exempt || e.IsCommand(msg.Text) {
		return nil
	}

	if blocked := lists.Violations(msg.Text); len(blocked) > 0 {
		return &Violation{
			Reason:  ReasonLinks,
			Detail:  strings.Join(blocked, ", "),
			Domains: blocked,
		}
	}

	if IsCapsAbuse(msg.Text, e.opts.CapsMinLetters, e.opts.CapsRatio) {
		return &Violation{Reason: ReasonCaps}
	}

	if n := e.Flood.Record(msg.Key, msg.SentAt); n >= e.opts.FloodThreshold {
		return &Violation{
			Reason: ReasonFlood,
			Detail: fmt.Sprintf("%d messages in %s", n, e.opts.FloodWindow),
		}
	}

	return nil
}

// IsCapsAbuse reports whether at least ratio of the letters in text are upper case.
// Texts with fewer than minLetters letters never qualify.
func IsCapsAbuse(text string, minLetters int, ratio float64) bool {
	letters, upper := 0, 0
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.IsUpper(r) {
			upper++
		}
	}
	if letters < minLetters {
		return false
	}
	return float64(upper)/float64(letters) >= ratio
}
