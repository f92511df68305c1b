package alpha

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/claude/trainload/internal/models"
)

var (
	// sessionHeaderRe matches: "Session Name";"2026-02-19 4:54 h";"1:02 hr"
	sessionHeaderRe = regexp.MustCompile(`^"(.+)";"(\d{4}-\d{2}-\d{2}\s+\d+:\d+)\s+h";"(.+)"$`)

	// exerciseHeaderRe matches: "1. Exercise Name · Equipment · 8 reps[· modifiers]"[;"warmup info"]
	exerciseHeaderRe = regexp.MustCompile(`^"(\d+)\.\s+(.+?)(?:\s+·\s+(\S.*?))?\s+·\s+(\d+)\s+reps(.*?)"(?:;"(.+)")?$`)

	// setDataRe matches: 1;115;8;1 and 1;115;8;- (untracked RIR)
	setDataRe = regexp.MustCompile(`^(\d+);([^;]+);(\d+);([^;]*)$`)

	// warmupRe matches: WU1 · 37,5 kg · 9 reps
	warmupRe = regexp.MustCompile(`WU(\d+)\s+·\s+(.+?)\s+kg\s+·\s+(\d+)\s+reps`)

	// columnHeaderRe matches: #;KG;REPS;RIR
	columnHeaderRe = regexp.MustCompile(`^#;KG;REPS;RIR$`)
)

// parser accumulates sessions line by line. Blank lines and new session
// headers close the open session.
type parser struct {
	sessions []models.AlphaSession
	session  *models.AlphaSession
	exercise *models.AlphaExercise
}

func (p *parser) closeExercise() {
	if p.session != nil && p.exercise != nil {
		p.session.Exercises = append(p.session.Exercises, *p.exercise)
	}
	p.exercise = nil
}

func (p *parser) closeSession() {
	p.closeExercise()
	if p.session != nil {
		p.sessions = append(p.sessions, *p.session)
	}
	p.session = nil
}

func (p *parser) line(line string) error {
	switch {
	case line == "":
		p.closeSession()

	case columnHeaderRe.MatchString(line):

	case sessionHeaderRe.MatchString(line):
		m := sessionHeaderRe.FindStringSubmatch(line)
		p.closeSession()
		date, err := parseSessionDate(m[2])
		if err != nil {
			return fmt.Errorf("parsing session date %q: %w", m[2], err)
		}
		p.session = &models.AlphaSession{Name: m[1], Date: date, Duration: m[3]}

	case exerciseHeaderRe.MatchString(line):
		m := exerciseHeaderRe.FindStringSubmatch(line)
		if p.session == nil {
			return fmt.Errorf("exercise without session: %q", line)
		}
		p.closeExercise()
		num, _ := strconv.Atoi(m[1])
		targetReps, _ := strconv.Atoi(m[4])
		p.exercise = &models.AlphaExercise{
			Number:     num,
			Name:       strings.TrimSpace(m[2]),
			Equipment:  strings.TrimSpace(m[3]),
			TargetReps: targetReps,
		}
		if m[6] != "" {
			p.exercise.Sets = append(p.exercise.Sets, parseWarmups(m[6])...)
		}

	case setDataRe.MatchString(line):
		m := setDataRe.FindStringSubmatch(line)
		if p.exercise == nil {
			return fmt.Errorf("set data without exercise: %q", line)
		}
		setNum, _ := strconv.Atoi(m[1])
		weight, isBW := parseWeight(m[2])
		reps, _ := strconv.Atoi(m[3])
		p.exercise.Sets = append(p.exercise.Sets, models.AlphaSet{
			Number:           setNum,
			WeightKg:         weight,
			IsBodyweightPlus: isBW,
			Reps:             reps,
			RIR:              parseRIR(m[4]),
		})
	}
	// anything else is notes or metadata
	return nil
}

// Parse reads an Alpha Progression CSV export and returns parsed sessions.
func Parse(r io.Reader) ([]models.AlphaSession, error) {
	scanner := bufio.NewScanner(r)
	p := &parser{}
	for scanner.Scan() {
		if err := p.line(strings.TrimSpace(scanner.Text())); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	p.closeSession()
	return p.sessions, nil
}

// parseSessionDate parses "2026-02-19 4:54" as UTC.
func parseSessionDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02 3:04"} {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse date %q", s)
}

// parseDuration parses "1:02 hr" or "45 min". ok is false for anything else.
func parseDuration(s string) (time.Duration, bool) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasSuffix(s, "hr"):
		hm := strings.SplitN(strings.TrimSpace(strings.TrimSuffix(s, "hr")), ":", 2)
		if len(hm) != 2 {
			return 0, false
		}
		h, err1 := strconv.Atoi(hm[0])
		m, err2 := strconv.Atoi(hm[1])
		if err1 != nil || err2 != nil {
			return 0, false
		}
		return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, true
	case strings.HasSuffix(s, "min"):
		m, err := strconv.Atoi(strings.TrimSpace(strings.TrimSuffix(s, "min")))
		if err != nil {
			return 0, false
		}
		return time.Duration(m) * time.Minute, true
	}
	return 0, false
}

// parseWarmups extracts warmup sets from the warmup info string.
// Example: "WU1 · 37,5 kg · 9 reps<br>WU2 · 72,5 kg · 7 reps"
func parseWarmups(s string) []models.AlphaSet {
	var sets []models.AlphaSet
	for _, part := range strings.Split(s, "<br>") {
		m := warmupRe.FindStringSubmatch(part)
		if m == nil {
			continue
		}
		num, _ := strconv.Atoi(m[1])
		weight, isBW := parseWeight(m[2])
		reps, _ := strconv.Atoi(m[3])
		sets = append(sets, models.AlphaSet{
			Number:           num,
			WeightKg:         weight,
			IsBodyweightPlus: isBW,
			Reps:             reps,
			IsWarmup:         true,
		})
	}
	return sets
}

// parseWeight handles European decimals and bodyweight-plus notation.
// "+35" -> (35, true), "102,5" -> (102.5, false), "+0" -> (0, true)
func parseWeight(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "+") {
		return parseEuropeanFloat(s[1:]), true
	}
	return parseEuropeanFloat(s), false
}

// parseRIR returns nil for an untracked column ("-" or empty).
func parseRIR(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return nil
	}
	return &f
}

// parseEuropeanFloat converts a European decimal string to float64.
// "102,5" -> 102.5, "0,5" -> 0.5
func parseEuropeanFloat(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
