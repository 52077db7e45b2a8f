// Package scoring grades a finished mission from its event log.
package scoring

import (
	"math"

	"launchops-sim/internal/telemetry"
)

// BaselineMs is the completion time that earns a full time score.
const BaselineMs = 300000

// Weights of each component in the overall score.
const (
	timeWeight       = 0.2
	errorWeight      = 0.3
	checklistWeight  = 0.2
	completionWeight = 0.3
)

// Record is the derived performance report. It is immutable once computed.
type Record struct {
	TimeScore       float64 `json:"time_score"`
	ErrorScore      float64 `json:"error_score"`
	ChecklistScore  float64 `json:"checklist_score"`
	CompletionScore float64 `json:"completion_score"`
	OverallScore    int     `json:"overall_score"`
	Grade           string  `json:"grade"`
	ErrorCount      int     `json:"error_count"`
	WarningCount    int     `json:"warning_count"`
}

// Score computes the performance record. It has no side effects.
// Admin-originated events are not held against the operator.
func Score(events []telemetry.LogEvent, completionTimeMs int64, terminal telemetry.SystemState, checklist []telemetry.ChecklistItem) Record {
	errors, warnings := 0, 0
	for _, ev := range events {
		if ev.IsAdmin {
			continue
		}
		switch ev.Level {
		case telemetry.LevelError:
			errors++
		case telemetry.LevelWarning:
			warnings++
		}
	}

	rec := Record{
		TimeScore:       TimeScore(completionTimeMs),
		ErrorScore:      ErrorScore(errors, warnings),
		ChecklistScore:  ChecklistScore(checklist),
		CompletionScore: CompletionScore(terminal),
		ErrorCount:      errors,
		WarningCount:    warnings,
	}
	rec.OverallScore = int(math.Round(timeWeight*rec.TimeScore +
		errorWeight*rec.ErrorScore +
		checklistWeight*rec.ChecklistScore +
		completionWeight*rec.CompletionScore))
	rec.Grade = Grade(rec.OverallScore)
	return rec
}

// TimeScore loses 50 points per baseline period over the baseline.
func TimeScore(completionTimeMs int64) float64 {
	over := float64(completionTimeMs-BaselineMs) / BaselineMs
	return clamp(100 - over*50)
}

// ErrorScore deducts 10 per error and 5 per warning.
func ErrorScore(errors, warnings int) float64 {
	return clamp(100 - 10*float64(errors) - 5*float64(warnings))
}

// ChecklistScore is the checked share; an unused checklist scores 100.
func ChecklistScore(items []telemetry.ChecklistItem) float64 {
	if len(items) == 0 {
		return 100
	}
	checked := 0
	for _, it := range items {
		if it.Checked {
			checked++
		}
	}
	return 100 * float64(checked) / float64(len(items))
}

// CompletionScore rewards completion over abort over anything else.
func CompletionScore(terminal telemetry.SystemState) float64 {
	switch terminal {
	case telemetry.StateComplete:
		return 100
	case telemetry.StateAborted:
		return 30
	}
	return 0
}

var thresholds = []struct {
	min   int
	grade string
}{
	{90, "A"},
	{80, "B"},
	{70, "C"},
	{60, "D"},
}

// Grade maps an overall score to a letter.
func Grade(score int) string {
	for _, th := range thresholds {
		if score >= th.min {
			return th.grade
		}
	}
	return "F"
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
