// Package sidebar models the navigation tree: its declarative YAML
// form, filesystem autogeneration, and resolution against loaded
// content.
package sidebar

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// MaxDepth bounds sidebar nesting. YAML cannot express a cyclic tree,
// but the limit keeps pathological files from producing unusable
// navigation.
const MaxDepth = 16

var (
	// ErrTooDeep indicates nesting beyond MaxDepth.
	ErrTooDeep = errors.New("sidebar nesting exceeds maximum depth")

	// ErrInvalidNode indicates a node whose fields do not form a valid
	// category, doc or link entry.
	ErrInvalidNode = errors.New("invalid sidebar node")
)

// NodeType discriminates sidebar entries.
type NodeType string

const (
	NodeCategory NodeType = "category"
	NodeDoc      NodeType = "doc"
	NodeLink     NodeType = "link"
)

// Node is one entry of the declarative sidebar tree.
//
// YAML shorthand: a bare string is a doc node with that ID.
//
//	sidebar:
//	  - intro
//	  - type: category
//	    label: Guides
//	    id: guides
//	    items:
//	      - guides/setup
type Node struct {
	Type  NodeType `yaml:"type,omitempty"`
	Label string   `yaml:"label,omitempty"`
	// ID names a document: the target of a doc node, or the index page
	// a category links to.
	ID   string `yaml:"id,omitempty"`
	Href string `yaml:"href,omitempty"`
	// Collapsed controls a category's initial state. Defaults to true.
	Collapsed *bool  `yaml:"collapsed,omitempty"`
	Items     []Node `yaml:"items,omitempty"`
}

// file is the sidebars.yaml document root.
type file struct {
	Sidebar []Node `yaml:"sidebar"`
}

// UnmarshalYAML accepts both the mapping form and the bare-string doc
// shorthand.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var id string
		if err := value.Decode(&id); err != nil {
			return err
		}
		*n = Node{Type: NodeDoc, ID: id}
		return nil
	}

	type plain Node
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*n = Node(p)
	return nil
}

// Load reads and validates a sidebar file.
func Load(path string) ([]Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sidebar file: %w", err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse sidebar file: %w", err)
	}

	if err := validateNodes(f.Sidebar, 1); err != nil {
		return nil, err
	}
	return f.Sidebar, nil
}

// validateNodes infers missing node types and checks structural rules
// down the tree.
func validateNodes(nodes []Node, depth int) error {
	if depth > MaxDepth {
		return fmt.Errorf("%w (%d levels)", ErrTooDeep, MaxDepth)
	}
	for i := range nodes {
		n := &nodes[i]
		if n.Type == "" {
			n.Type = inferType(n)
		}
		switch n.Type {
		case NodeCategory:
			if strings.TrimSpace(n.Label) == "" {
				return fmt.Errorf("%w: category at depth %d needs a label", ErrInvalidNode, depth)
			}
			if n.Href != "" {
				return fmt.Errorf("%w: category %q cannot have href", ErrInvalidNode, n.Label)
			}
		case NodeDoc:
			if strings.TrimSpace(n.ID) == "" {
				return fmt.Errorf("%w: doc node at depth %d needs an id", ErrInvalidNode, depth)
			}
			if len(n.Items) > 0 {
				return fmt.Errorf("%w: doc node %q cannot have items", ErrInvalidNode, n.ID)
			}
		case NodeLink:
			if strings.TrimSpace(n.Label) == "" || strings.TrimSpace(n.Href) == "" {
				return fmt.Errorf("%w: link node at depth %d needs label and href", ErrInvalidNode, depth)
			}
			if len(n.Items) > 0 {
				return fmt.Errorf("%w: link node %q cannot have items", ErrInvalidNode, n.Label)
			}
		default:
			return fmt.Errorf("%w: unknown type %q", ErrInvalidNode, n.Type)
		}
		if err := validateNodes(n.Items, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func inferType(n *Node) NodeType {
	switch {
	case len(n.Items) > 0:
		return NodeCategory
	case n.Href != "":
		return NodeLink
	default:
		return NodeDoc
	}
}

func (n *Node) collapsed() bool {
	if n.Collapsed == nil {
		return true
	}
	return *n.Collapsed
}
