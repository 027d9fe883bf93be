package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/notesite/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing files"`
}

const starterSidebar = `sidebar:
  - intro
`

// The starter page carries no uid so every scaffolded site does not
// share one; lint --fix generates a fresh uid per document.
const starterDoc = `---
title: Introduction
sidebar_position: 1
---

Welcome to your new site. Edit this page, add more Markdown files
under the docs directory, and list them in sidebars.yaml.

Run ` + "`notesite preview`" + ` to work on the site with live reload, and
` + "`notesite build`" + ` to produce the deployable output.
`

const starterEnv = `# Environment for notesite. Values here are loaded at startup and
# expanded into ${VAR} references in the config file.
# NOTESITE_LOG_LEVEL=debug
`

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	fmt.Println("Initializing notesite project")

	fmt.Printf("Writing configuration to %s\n", root.Config)
	if err := config.Init(root.Config, i.Force); err != nil {
		fmt.Println("Initialization failed")
		return err
	}

	if err := scaffoldSite(i.Force); err != nil {
		fmt.Println("Initialization failed")
		return err
	}

	fmt.Println("initialized successfully")
	fmt.Println("Next: notesite preview")
	return nil
}

// scaffoldSite lays down the minimal site around the config file: a
// docs directory with a starter page, a sidebar listing it, a static
// asset directory and an env template.
func scaffoldSite(force bool) error {
	for _, dir := range []string{"docs", "static"} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	files := []struct {
		path    string
		content string
	}{
		{"sidebars.yaml", starterSidebar},
		{filepath.Join("docs", "intro.md"), starterDoc},
		{".env.example", starterEnv},
	}
	for _, f := range files {
		wrote, err := writeIfAbsent(f.path, f.content, force)
		if err != nil {
			return err
		}
		if wrote {
			fmt.Printf("Writing %s\n", f.path)
		} else {
			fmt.Printf("Keeping existing %s\n", f.path)
		}
	}
	return nil
}

func writeIfAbsent(path, content string, force bool) (bool, error) {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}
