package site

import (
	"context"
	"errors"
	"fmt"
	"time"

	"git.home.luguber.info/inful/notesite/internal/metrics"
)

// Stage is a discrete unit of work in the site build.
type Stage func(ctx context.Context, bs *BuildState) error

// StageName is a strongly-typed identifier for a build stage. All
// canonical stages are declared as constants here.
type StageName string

// Canonical stage names, in execution order.
const (
	StagePrepareOutput  StageName = "prepare_output"
	StageLoadContent    StageName = "load_content"
	StageGitMetadata    StageName = "git_metadata"
	StageSidebar        StageName = "sidebar"
	StageRenderMarkdown StageName = "render_markdown"
	StageRenderPages    StageName = "render_pages"
	StageCopyStatic     StageName = "copy_static"
	StageSearchIndex    StageName = "search_index"
	StageVerifyOutput   StageName = "verify_output"
)

// StageErrorKind classifies the outcome of a stage.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Build must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying category and underlying
// cause.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func newFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}

func newWarnStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}

func newCanceledStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// StageDef pairs a stage name with its executing function.
type StageDef struct {
	Name StageName
	Fn   Stage
}

// Pipeline is a fluent builder for ordered stage definitions.
type Pipeline struct{ Defs []StageDef }

// NewPipeline creates an empty pipeline.
func NewPipeline() *Pipeline { return &Pipeline{Defs: make([]StageDef, 0, 9)} }

// Add appends a stage unconditionally.
func (p *Pipeline) Add(name StageName, fn Stage) *Pipeline {
	p.Defs = append(p.Defs, StageDef{Name: name, Fn: fn})
	return p
}

// AddIf appends a stage only if cond is true.
func (p *Pipeline) AddIf(cond bool, name StageName, fn Stage) *Pipeline {
	if cond {
		p.Add(name, fn)
	}
	return p
}

// Build returns a defensive copy of the stage definitions slice.
func (p *Pipeline) Build() []StageDef {
	out := make([]StageDef, len(p.Defs))
	copy(out, p.Defs)
	return out
}

// runStages executes stages in order, recording timing and
// classification, stopping on the first fatal or canceled stage.
// Warnings are recorded and the run continues.
func runStages(ctx context.Context, bs *BuildState, stages []StageDef) error {
	for _, st := range stages {
		select {
		case <-ctx.Done():
			se := newCanceledStageError(st.Name, ctx.Err())
			bs.Report.Errors = append(bs.Report.Errors, se)
			bs.Report.StageErrorKinds[st.Name] = se.Kind
			bs.recorder().IncStageResult(string(st.Name), metrics.ResultLabel(StageErrorCanceled))
			return se
		default:
		}

		t0 := time.Now()
		err := st.Fn(ctx, bs)
		dur := time.Since(t0)
		bs.Report.StageDurations[string(st.Name)] = dur
		bs.recorder().ObserveStageDuration(string(st.Name), dur)

		if err == nil {
			sc := bs.Report.StageCounts[st.Name]
			sc.Success++
			bs.Report.StageCounts[st.Name] = sc
			bs.recorder().IncStageResult(string(st.Name), "success")
			continue
		}

		var se *StageError
		if !errors.As(err, &se) {
			// Unclassified errors abort the build.
			se = newFatalStageError(st.Name, err)
		}
		bs.Report.StageErrorKinds[st.Name] = se.Kind
		sc := bs.Report.StageCounts[st.Name]
		switch se.Kind {
		case StageErrorWarning:
			sc.Warning++
		case StageErrorCanceled:
			sc.Canceled++
		default:
			sc.Fatal++
		}
		bs.Report.StageCounts[st.Name] = sc
		bs.recorder().IncStageResult(string(st.Name), metrics.ResultLabel(se.Kind))

		if se.Kind == StageErrorWarning {
			bs.Report.Warnings = append(bs.Report.Warnings, se)
			continue
		}
		bs.Report.Errors = append(bs.Report.Errors, se)
		return se
	}
	return nil
}
