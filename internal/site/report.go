package site

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// BuildOutcome is the typed enumeration of final build result states.
type BuildOutcome string

const (
	OutcomeSuccess  BuildOutcome = "success"
	OutcomeWarning  BuildOutcome = "warning"
	OutcomeFailed   BuildOutcome = "failed"
	OutcomeCanceled BuildOutcome = "canceled"
)

// StageCount aggregates per-stage outcome counts.
type StageCount struct {
	Success  int
	Warning  int
	Fatal    int
	Canceled int
}

// LinkFinding is one unresolvable reference discovered during the
// build. Layer distinguishes Markdown-time findings from the output
// verification pass.
type LinkFinding struct {
	Layer  string `json:"layer"` // markdown | html
	Source string `json:"source"`
	URL    string `json:"url"`
	Tag    string `json:"tag,omitempty"`
	Line   int    `json:"line,omitempty"`
}

// BuildReport captures high-level metrics about one site build.
type BuildReport struct {
	SchemaVersion int
	BuildID       string
	Start         time.Time
	End           time.Time

	Pages            int // documents discovered and included
	Assets           int // non-markdown files copied through
	Sections         int
	RenderedPages    int // pages written to the output
	SkippedDrafts    int
	SkippedScheduled int
	BrokenLinks      int

	Errors   []error // fatal errors causing build abortion
	Warnings []error // non-fatal issues

	StageDurations  map[string]time.Duration
	StageErrorKinds map[StageName]StageErrorKind
	StageCounts     map[StageName]StageCount

	Findings          []LinkFinding
	TemplateOverrides []string

	Outcome  string       // string form for JSON consumers
	OutcomeT BuildOutcome // typed mirror, source of truth
}

func newBuildReport(buildID string) *BuildReport {
	return &BuildReport{
		SchemaVersion:   1,
		BuildID:         buildID,
		Start:           time.Now(),
		StageDurations:  make(map[string]time.Duration),
		StageErrorKinds: make(map[StageName]StageErrorKind),
		StageCounts:     make(map[StageName]StageCount),
	}
}

func (r *BuildReport) finish() { r.End = time.Now() }

// Summary returns a human-readable single-line summary.
func (r *BuildReport) Summary() string {
	dur := r.End.Sub(r.Start)
	return fmt.Sprintf("build=%s pages=%d assets=%d rendered=%d broken_links=%d duration=%s errors=%d warnings=%d outcome=%s",
		shortID(r.BuildID), r.Pages, r.Assets, r.RenderedPages, r.BrokenLinks,
		dur.Truncate(time.Millisecond), len(r.Errors), len(r.Warnings), r.Outcome)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// deriveOutcome sets the outcome from recorded errors and warnings.
func (r *BuildReport) deriveOutcome() {
	if len(r.Errors) > 0 {
		for _, e := range r.Errors {
			if se, ok := e.(*StageError); ok && se.Kind == StageErrorCanceled {
				r.setOutcome(OutcomeCanceled)
				return
			}
		}
		r.setOutcome(OutcomeFailed)
		return
	}
	if len(r.Warnings) > 0 {
		r.setOutcome(OutcomeWarning)
		return
	}
	r.setOutcome(OutcomeSuccess)
}

func (r *BuildReport) setOutcome(o BuildOutcome) {
	r.OutcomeT = o
	r.Outcome = string(o)
}

// AddFinding appends a broken-link finding and keeps the counter in
// step.
func (r *BuildReport) AddFinding(f LinkFinding) {
	r.Findings = append(r.Findings, f)
	r.BrokenLinks++
}

// Persist writes the report into root (the final output directory):
//
//	build-report.json  (machine readable)
//	build-report.txt   (human summary)
//
// Best effort; errors are returned for caller logging but do not
// change the build outcome.
func (r *BuildReport) Persist(root string) error {
	if r.End.IsZero() {
		r.finish()
		r.deriveOutcome()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("ensure root for report: %w", err)
	}

	jb, err := json.MarshalIndent(r.sanitizedCopy(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	jsonPath := filepath.Join(root, "build-report.json")
	tmpJSON := jsonPath + ".tmp"
	if err := os.WriteFile(tmpJSON, jb, 0o644); err != nil {
		return fmt.Errorf("write temp report json: %w", err)
	}
	if err := os.Rename(tmpJSON, jsonPath); err != nil {
		return fmt.Errorf("atomic rename json: %w", err)
	}

	summaryPath := filepath.Join(root, "build-report.txt")
	tmpTxt := summaryPath + ".tmp"
	if err := os.WriteFile(tmpTxt, []byte(r.Summary()+"\n"), 0o644); err != nil {
		return fmt.Errorf("write temp report summary: %w", err)
	}
	if err := os.Rename(tmpTxt, summaryPath); err != nil {
		return fmt.Errorf("atomic rename summary: %w", err)
	}
	return nil
}

// JSON returns the serialized report for the build history store.
func (r *BuildReport) JSON() ([]byte, error) {
	return json.Marshal(r.sanitizedCopy())
}

// sanitizedCopy converts error fields to strings and typed map keys to
// plain strings for stable JSON output.
func (r *BuildReport) sanitizedCopy() *BuildReportSerializable {
	stageCounts := make(map[string]StageCount, len(r.StageCounts))
	for k, v := range r.StageCounts {
		stageCounts[string(k)] = v
	}
	sek := make(map[string]string, len(r.StageErrorKinds))
	for k, v := range r.StageErrorKinds {
		sek[string(k)] = string(v)
	}

	durations := make(map[string]string, len(r.StageDurations))
	for k, v := range r.StageDurations {
		durations[k] = v.String()
	}

	s := &BuildReportSerializable{
		SchemaVersion:     r.SchemaVersion,
		BuildID:           r.BuildID,
		Start:             r.Start,
		End:               r.End,
		Pages:             r.Pages,
		Assets:            r.Assets,
		Sections:          r.Sections,
		RenderedPages:     r.RenderedPages,
		SkippedDrafts:     r.SkippedDrafts,
		SkippedScheduled:  r.SkippedScheduled,
		BrokenLinks:       r.BrokenLinks,
		Errors:            make([]string, len(r.Errors)),
		Warnings:          make([]string, len(r.Warnings)),
		StageDurations:    durations,
		StageErrorKinds:   sek,
		StageCounts:       stageCounts,
		Findings:          r.Findings,
		TemplateOverrides: r.TemplateOverrides,
		Outcome:           r.Outcome,
	}
	for i, e := range r.Errors {
		s.Errors[i] = e.Error()
	}
	for i, w := range r.Warnings {
		s.Warnings[i] = w.Error()
	}
	return s
}

// BuildReportSerializable mirrors BuildReport with string errors and
// string-keyed maps for JSON output.
type BuildReportSerializable struct {
	SchemaVersion     int                   `json:"schema_version"`
	BuildID           string                `json:"build_id"`
	Start             time.Time             `json:"start"`
	End               time.Time             `json:"end"`
	Pages             int                   `json:"pages"`
	Assets            int                   `json:"assets"`
	Sections          int                   `json:"sections"`
	RenderedPages     int                   `json:"rendered_pages"`
	SkippedDrafts     int                   `json:"skipped_drafts"`
	SkippedScheduled  int                   `json:"skipped_scheduled"`
	BrokenLinks       int                   `json:"broken_links"`
	Errors            []string              `json:"errors"`
	Warnings          []string              `json:"warnings"`
	StageDurations    map[string]string     `json:"stage_durations"`
	StageErrorKinds   map[string]string     `json:"stage_error_kinds"`
	StageCounts       map[string]StageCount `json:"stage_counts"`
	Findings          []LinkFinding         `json:"findings,omitempty"`
	TemplateOverrides []string              `json:"template_overrides,omitempty"`
	Outcome           string                `json:"outcome"`
}
