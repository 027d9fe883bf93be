package site

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/notesite/internal/config"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func parseConfig(t *testing.T, yaml string) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(yaml))
	require.NoError(t, err)
	return cfg
}

// fixtureSite lays out a small site in a temp working directory:
// three docs, one asset, a declared sidebar and a static file.
func fixtureSite(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())

	writeFile(t, "docs/intro.md", `---
title: Introduction
description: Start here
---

Welcome to the notes. See [setup](guides/01-setup.md).

## Install

Run the installer.
`)
	writeFile(t, "docs/guides/index.md", `---
title: Guides
---

Pick a guide.
`)
	writeFile(t, "docs/guides/01-setup.md", `---
title: Setup
---

Setup instructions.
`)
	writeFile(t, "docs/guides/pixel.png", "\x89PNG")
	writeFile(t, "sidebars.yaml", `sidebar:
  - intro
  - type: category
    label: Guides
    id: guides
    collapsed: false
    items:
      - guides/setup
`)
	writeFile(t, "static/robots.txt", "User-agent: *\n")
}

const fixtureConfig = `
site:
  title: Field Notes
  tagline: Notes that build themselves
navbar:
  - label: Docs
    to: docs/intro
  - label: Source
    href: https://github.com/acme/notes
    position: right
footer:
  copyright: 2025 Acme
features:
  - title: Fast
    description: Builds in milliseconds.
    link: docs/intro
  - title: Portable
    description: One binary serves it all.
    link: https://example.com/portable
`

func readOutput(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.FromSlash(rel))
	require.NoError(t, err)
	return string(data)
}

func TestBuild_EndToEnd(t *testing.T) {
	fixtureSite(t)
	cfg := parseConfig(t, fixtureConfig)

	report, err := NewBuilder(cfg, "").Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeSuccess, report.OutcomeT)
	assert.Equal(t, 3, report.Pages)
	assert.Equal(t, 3, report.RenderedPages)
	assert.Equal(t, 1, report.Assets)
	assert.Equal(t, 2, report.Sections)
	assert.Zero(t, report.BrokenLinks)
	assert.NotEmpty(t, report.BuildID)

	// Every executed stage left a duration; git metadata was not
	// configured so it never ran.
	assert.Len(t, report.StageDurations, 8)
	assert.Contains(t, report.StageDurations, string(StageRenderPages))
	assert.NotContains(t, report.StageDurations, string(StageGitMetadata))

	home := readOutput(t, "build/index.html")
	assert.Equal(t, 2, strings.Count(home, `class="feature-card"`))
	assert.Contains(t, home, "Field Notes")
	assert.Contains(t, home, `href="/docs/intro/"`)

	intro := readOutput(t, "build/docs/intro/index.html")
	assert.Contains(t, intro, "<title>Introduction | Field Notes</title>")
	assert.Contains(t, intro, `href="/docs/guides/setup/"`) // rewritten .md link
	assert.Contains(t, intro, `id="install"`)
	assert.Contains(t, intro, "Guides") // sidebar category

	setup := readOutput(t, "build/docs/guides/setup/index.html")
	assert.Contains(t, setup, `class="sidebar-current"`)
	assert.Contains(t, setup, "pagination-prev")

	assert.FileExists(t, "build/404.html")
	assert.FileExists(t, "build/robots.txt")
	assert.FileExists(t, "build/docs/guides/pixel.png")
	assert.FileExists(t, "build/assets/css/main.css")
	assert.NoFileExists(t, "build/assets/js/livereload.js")
	assert.NoDirExists(t, "build_stage")

	var persisted map[string]any
	require.NoError(t, json.Unmarshal([]byte(readOutput(t, "build/build-report.json")), &persisted))
	assert.Equal(t, float64(1), persisted["schema_version"])
	assert.Equal(t, "success", persisted["outcome"])
	assert.Contains(t, readOutput(t, "build/build-report.txt"), "outcome=success")
}

func TestBuild_SearchIndexListsEveryPage(t *testing.T) {
	fixtureSite(t)
	cfg := parseConfig(t, fixtureConfig)

	_, err := NewBuilder(cfg, "").Build(context.Background())
	require.NoError(t, err)

	var entries []searchEntry
	require.NoError(t, json.Unmarshal([]byte(readOutput(t, "build/search-index.json")), &entries))
	require.Len(t, entries, 3)

	byID := make(map[string]searchEntry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}
	intro := byID["intro"]
	assert.Equal(t, "Introduction", intro.Title)
	assert.Equal(t, "/docs/intro/", intro.URL)
	assert.Contains(t, intro.Text, "Run the installer")
	assert.NotContains(t, intro.Text, "](") // links flattened
	assert.Equal(t, "Guides", byID["guides/setup"].Section)
}

func TestBuild_SearchIndexSkipsUnlistedPages(t *testing.T) {
	fixtureSite(t)
	writeFile(t, "docs/scratch.md", `---
title: Scratch
unlisted: true
---

Working notes, reachable by URL only.
`)
	cfg := parseConfig(t, fixtureConfig)

	_, err := NewBuilder(cfg, "").Build(context.Background())
	require.NoError(t, err)

	// The page itself still renders; it just stays out of search.
	assert.FileExists(t, "build/docs/scratch/index.html")

	var entries []searchEntry
	require.NoError(t, json.Unmarshal([]byte(readOutput(t, "build/search-index.json")), &entries))
	require.Len(t, entries, 3)
	for _, e := range entries {
		assert.NotEqual(t, "scratch", e.ID)
	}
}

func TestBuild_SearchIndexCanBeDisabled(t *testing.T) {
	fixtureSite(t)
	cfg := parseConfig(t, fixtureConfig+`
build:
  disable_search: true
`)

	report, err := NewBuilder(cfg, "").Build(context.Background())
	require.NoError(t, err)

	assert.NoFileExists(t, "build/search-index.json")
	assert.NotContains(t, report.StageDurations, string(StageSearchIndex))
}

func TestBuild_BrokenLinkFailsBuild(t *testing.T) {
	fixtureSite(t)
	writeFile(t, "docs/intro.md", `---
title: Introduction
---

See [missing](gone.md).
`)
	cfg := parseConfig(t, fixtureConfig)

	report, err := NewBuilder(cfg, "").Build(context.Background())
	require.Error(t, err)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageErrorFatal, se.Kind)
	assert.Equal(t, StageRenderMarkdown, se.Stage)

	assert.Equal(t, OutcomeFailed, report.OutcomeT)
	require.Len(t, report.Findings, 1)
	assert.Equal(t, "markdown", report.Findings[0].Layer)
	assert.Equal(t, "gone.md", report.Findings[0].URL)

	// No partial site: the output was never created and staging is
	// cleaned up.
	assert.NoDirExists(t, "build")
	assert.NoDirExists(t, "build_stage")
}

func TestBuild_BrokenLinkWarnsWhenConfigured(t *testing.T) {
	fixtureSite(t)
	writeFile(t, "docs/intro.md", `---
title: Introduction
---

See [missing](gone.md).
`)
	cfg := parseConfig(t, fixtureConfig+`
build:
  broken_links: warn
`)

	report, err := NewBuilder(cfg, "").Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeWarning, report.OutcomeT)
	assert.NotEmpty(t, report.Warnings)
	// The unrewritten href is flagged again by output verification.
	assert.GreaterOrEqual(t, report.BrokenLinks, 2)
	assert.DirExists(t, "build")
}

func TestBuild_DraftHandling(t *testing.T) {
	fixtureSite(t)
	require.NoError(t, os.Remove("sidebars.yaml")) // autogenerate, no dangling refs
	writeFile(t, "docs/secret.md", `---
title: Secret
draft: true
---

Not yet.
`)

	report, err := NewBuilder(parseConfig(t, fixtureConfig), "").Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.SkippedDrafts)
	assert.Equal(t, 3, report.Pages)
	assert.NoDirExists(t, "build/docs/secret")

	report, err = NewBuilder(parseConfig(t, fixtureConfig+`
build:
  drafts: true
`), "").Build(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.SkippedDrafts)
	assert.Equal(t, 4, report.Pages)
	assert.FileExists(t, "build/docs/secret/index.html")
}

func TestBuild_FutureDatedPageSkipped(t *testing.T) {
	fixtureSite(t)
	require.NoError(t, os.Remove("sidebars.yaml"))
	writeFile(t, "docs/roadmap.md", `---
title: Roadmap
date: 2099-01-01
---

Later.
`)

	report, err := NewBuilder(parseConfig(t, fixtureConfig), "").Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.SkippedScheduled)
	assert.NoDirExists(t, "build/docs/roadmap")

	report, err = NewBuilder(parseConfig(t, fixtureConfig+`
build:
  include_future: true
`), "").Build(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.SkippedScheduled)
	assert.FileExists(t, "build/docs/roadmap/index.html")
}

func TestBuild_EmptyDocsDirWarns(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.MkdirAll("docs", 0o755))
	cfg := parseConfig(t, "site:\n  title: Empty\n")

	report, err := NewBuilder(cfg, "").Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeWarning, report.OutcomeT)
	assert.Equal(t, StageErrorWarning, report.StageErrorKinds[StageLoadContent])
	// The skeleton site is still emitted.
	assert.FileExists(t, "build/index.html")
	assert.FileExists(t, "build/404.html")
	assert.FileExists(t, "build/assets/css/main.css")
}

func TestBuild_SecondBuildReplacesOutputAndKeepsBackup(t *testing.T) {
	fixtureSite(t)
	cfg := parseConfig(t, fixtureConfig)

	_, err := NewBuilder(cfg, "").Build(context.Background())
	require.NoError(t, err)

	writeFile(t, "docs/intro.md", `---
title: Fresh Introduction
---

Rewritten.
`)
	_, err = NewBuilder(cfg, "").Build(context.Background())
	require.NoError(t, err)

	assert.Contains(t, readOutput(t, "build/docs/intro/index.html"), "Fresh Introduction")
	// clean defaults to off, so the previous output survives as a
	// rollback target.
	assert.NotContains(t, readOutput(t, "build.prev/docs/intro/index.html"), "Fresh")
}

func TestBuild_CanceledContext(t *testing.T) {
	fixtureSite(t)
	cfg := parseConfig(t, fixtureConfig)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := NewBuilder(cfg, "").Build(ctx)
	require.Error(t, err)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageErrorCanceled, se.Kind)
	assert.Equal(t, OutcomeCanceled, report.OutcomeT)
	assert.NoDirExists(t, "build")
	assert.NoDirExists(t, "build_stage")
}

func TestBuild_LiveReloadAssetOnlyInPreview(t *testing.T) {
	fixtureSite(t)
	cfg := parseConfig(t, fixtureConfig)

	_, err := NewBuilder(cfg, "").SetLiveReload(true).Build(context.Background())
	require.NoError(t, err)

	assert.FileExists(t, "build/assets/js/livereload.js")
	assert.Contains(t, readOutput(t, "build/docs/intro/index.html"), "assets/js/livereload.js")
}

func TestBuild_TemplateOverrideRecorded(t *testing.T) {
	fixtureSite(t)
	writeFile(t, "templates/404.tmpl", "<!doctype html><html><body>custom not found</body></html>")
	cfg := parseConfig(t, fixtureConfig)

	report, err := NewBuilder(cfg, "").Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"404.tmpl"}, report.TemplateOverrides)
	assert.Contains(t, readOutput(t, "build/404.html"), "custom not found")
}

func TestBuild_OutputDirOverride(t *testing.T) {
	fixtureSite(t)
	cfg := parseConfig(t, fixtureConfig)
	out := filepath.Join(t.TempDir(), "public")

	b := NewBuilder(cfg, out)
	assert.Equal(t, out, b.OutputDir())

	_, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(out, "index.html"))
	assert.NoDirExists(t, "build")
}

func TestBuild_UnresolvedSidebarRefFails(t *testing.T) {
	fixtureSite(t)
	writeFile(t, "sidebars.yaml", "sidebar:\n  - intro\n  - nowhere/to-be-found\n")
	cfg := parseConfig(t, fixtureConfig)

	_, err := NewBuilder(cfg, "").Build(context.Background())
	require.Error(t, err)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageSidebar, se.Stage)
	assert.Contains(t, err.Error(), "nowhere/to-be-found")
	assert.NoDirExists(t, "build")
}

func TestBrokenLinkSeverityModes(t *testing.T) {
	for mode, wantKind := range map[string]StageErrorKind{
		"error":  StageErrorFatal,
		"warn":   StageErrorWarning,
		"ignore": "",
	} {
		cfg := parseConfig(t, "site:\n  title: T\nbuild:\n  broken_links: "+mode+"\n")
		bs := newBuildState(NewBuilder(cfg, t.TempDir()), newBuildReport("x"))

		err := brokenLinkSeverity(StageVerifyOutput, bs, 2, "a.html -> /gone/")
		if wantKind == "" {
			assert.NoError(t, err, mode)
			continue
		}
		var se *StageError
		require.ErrorAs(t, err, &se, mode)
		assert.Equal(t, wantKind, se.Kind, mode)
	}
}

var errBoom = errors.New("boom")

func TestRunStages_WarningContinuesFatalAborts(t *testing.T) {
	cfg := parseConfig(t, "site:\n  title: T\n")
	bs := newBuildState(NewBuilder(cfg, filepath.Join(t.TempDir(), "out")), newBuildReport("x"))

	var ran []StageName
	record := func(name StageName, err error) Stage {
		return func(context.Context, *BuildState) error {
			ran = append(ran, name)
			return err
		}
	}
	stages := NewPipeline().
		Add("one", record("one", nil)).
		Add("two", record("two", newWarnStageError("two", errBoom))).
		Add("three", record("three", newFatalStageError("three", errBoom))).
		Add("four", record("four", nil)).
		Build()

	err := runStages(context.Background(), bs, stages)
	require.Error(t, err)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageErrorFatal, se.Kind)
	assert.Equal(t, StageName("three"), se.Stage)
	assert.ErrorIs(t, err, errBoom)

	assert.Equal(t, []StageName{"one", "two", "three"}, ran)
	assert.Len(t, bs.Report.StageDurations, 3)
	assert.Equal(t, 1, bs.Report.StageCounts["one"].Success)
	assert.Equal(t, 1, bs.Report.StageCounts["two"].Warning)
	assert.Equal(t, 1, bs.Report.StageCounts["three"].Fatal)
	assert.Len(t, bs.Report.Warnings, 1)
	assert.Len(t, bs.Report.Errors, 1)
}

func TestRunStages_UnclassifiedErrorIsFatal(t *testing.T) {
	cfg := parseConfig(t, "site:\n  title: T\n")
	bs := newBuildState(NewBuilder(cfg, filepath.Join(t.TempDir(), "out")), newBuildReport("x"))

	stages := NewPipeline().
		Add("one", func(context.Context, *BuildState) error { return errBoom }).
		Build()

	err := runStages(context.Background(), bs, stages)
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageErrorFatal, se.Kind)
	assert.Equal(t, StageErrorFatal, bs.Report.StageErrorKinds["one"])
}

func TestRunStages_CanceledBeforeFirstStage(t *testing.T) {
	cfg := parseConfig(t, "site:\n  title: T\n")
	bs := newBuildState(NewBuilder(cfg, filepath.Join(t.TempDir(), "out")), newBuildReport("x"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	stages := NewPipeline().
		Add("one", func(context.Context, *BuildState) error { ran = true; return nil }).
		Build()

	err := runStages(ctx, bs, stages)
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageErrorCanceled, se.Kind)
	assert.False(t, ran)
	assert.Empty(t, bs.Report.StageDurations)
}
