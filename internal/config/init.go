package config

import (
	"fmt"
	"os"
)

const exampleConfig = `# notesite configuration.
# Values support ${ENV_VAR} expansion; .env and .env.local are loaded first.

site:
  title: My Notes
  tagline: Notes worth keeping
  url: https://notes.example.com
  base_url: /
  language: en

navbar:
  - label: Docs
    to: /docs/intro/
  - label: GitHub
    href: https://github.com/example/notes
    position: right

footer:
  style: dark
  copyright: Built with notesite.
  links:
    - title: Docs
      items:
        - label: Introduction
          to: /docs/intro/
    - title: More
      items:
        - label: Source
          href: https://github.com/example/notes

theme:
  default_mode: system   # light | dark | system
  disable_switch: false
  respect_prefers_color_scheme: true

hero:
  title: My Notes
  subtitle: Notes worth keeping
  cta_label: Get Started
  cta_to: /docs/intro/

features:
  - title: Plain Markdown
    description: Write documents with front-matter, get a site.
    link: /docs/intro/
    icon: "📝"
  - title: Fast Builds
    description: The whole site renders in one pass.
    link: /docs/intro/
    icon: "⚡"

docs:
  dir: docs
  sidebar_file: sidebars.yaml
  route_base: docs
  # edit_url: https://github.com/example/notes/edit/main/

build:
  output: build
  broken_links: error   # error | warn | ignore

serve:
  port: 3000

check:
  external: false
  timeout: 10s

git:
  last_updated: false
  edit_links: false
`

// Init writes an example configuration file. Existing files are kept
// unless force is set.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
	}
	if err := os.WriteFile(path, []byte(exampleConfig), 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
