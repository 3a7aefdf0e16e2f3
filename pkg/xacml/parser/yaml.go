package parser

import (
	"bytes"
	"errors"
	"io"

	"gopkg.in/yaml.v3"
)

// yamlDocument is the intermediate structure of a rule document. Variables,
// rules and conditions stay as YAML nodes so expressions keep their
// positions.
type yamlDocument struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Variables   yaml.Node `yaml:"variables"`
	Rules       yaml.Node `yaml:"rules"`
}

var ruleFields = []string{"id", "description", "effect", "enabled", "condition"}

type yamlRule struct {
	ID          string    `yaml:"id"`
	Description string    `yaml:"description"`
	Effect      string    `yaml:"effect"`
	Enabled     *bool     `yaml:"enabled"` // unset means enabled
	Condition   yaml.Node `yaml:"condition"`
}

var designatorFields = []string{"category", "id", "datatype", "issuer", "must_be_present"}

type yamlDesignator struct {
	Category      string `yaml:"category"`
	ID            string `yaml:"id"`
	Datatype      string `yaml:"datatype"`
	Issuer        string `yaml:"issuer"`
	MustBePresent bool   `yaml:"must_be_present"`
}

var errEmptyDocument = errors.New("document is empty")

// decodeDocument decodes YAML bytes, rejecting unknown top-level fields.
func decodeDocument(data []byte) (*yamlDocument, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc yamlDocument
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errEmptyDocument
		}
		return nil, err
	}
	return &doc, nil
}

// deref follows YAML aliases.
func deref(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	return node
}

type mappingEntry struct {
	key   *yaml.Node
	value *yaml.Node
}

// mappingEntries returns the key/value pairs of a mapping node in document
// order.
func mappingEntries(node *yaml.Node) []mappingEntry {
	entries := make([]mappingEntry, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		entries = append(entries, mappingEntry{key: node.Content[i], value: deref(node.Content[i+1])})
	}
	return entries
}

// isSet reports whether an optional node field was present in the document.
func isSet(node *yaml.Node) bool {
	return node != nil && node.Kind != 0
}
