package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const restartNotice = "\n⚠  Restart the monitor for changes to take effect.\n"

// configDoc is a config file loaded as a yaml.Node tree so that edits keep
// the user's comments and key order.
type configDoc struct {
	path string
	doc  yaml.Node
}

func loadConfigDoc(path string) (*configDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cd := &configDoc{path: path}
	if err := yaml.Unmarshal(data, &cd.doc); err != nil {
		return nil, fmt.Errorf("parsing config yaml: %w", err)
	}
	if cd.doc.Kind != yaml.DocumentNode || len(cd.doc.Content) == 0 || cd.doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("unexpected yaml structure in %s", path)
	}
	return cd, nil
}

// save writes the tree back with the file's original permissions.
func (cd *configDoc) save() error {
	data, err := yaml.Marshal(&cd.doc)
	if err != nil {
		return fmt.Errorf("marshaling config yaml: %w", err)
	}
	info, err := os.Stat(cd.path)
	if err != nil {
		return fmt.Errorf("stat config file: %w", err)
	}
	if err := os.WriteFile(cd.path, data, info.Mode().Perm()); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// lookup follows path through nested mappings. It returns nil when any
// segment is missing.
func (cd *configDoc) lookup(path ...string) *yaml.Node {
	n := cd.doc.Content[0]
	for _, key := range path {
		if n = field(n, key); n == nil {
			return nil
		}
	}
	return n
}

// ensure is lookup that creates missing segments. Intermediate segments are
// mappings; the last one has the given kind.
func (cd *configDoc) ensure(kind yaml.Kind, path ...string) *yaml.Node {
	n := cd.doc.Content[0]
	for i, key := range path {
		next := field(n, key)
		if next == nil || next.Kind == yaml.ScalarNode && next.Tag == "!!null" {
			k := yaml.MappingNode
			if i == len(path)-1 {
				k = kind
			}
			next = setField(n, key, &yaml.Node{Kind: k})
		}
		n = next
	}
	return n
}

func field(mapping *yaml.Node, key string) *yaml.Node {
	if mapping == nil || mapping.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

// setField replaces or appends key in mapping and returns value.
func setField(mapping *yaml.Node, key string, value *yaml.Node) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			mapping.Content[i+1] = value
			return value
		}
	}
	mapping.Content = append(mapping.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: key}, value)
	return value
}

func scalar(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: value}
}

// indexByField returns the index of the first mapping in seq whose key
// equals value, or -1.
func indexByField(seq *yaml.Node, key, value string) int {
	if seq == nil || seq.Kind != yaml.SequenceNode {
		return -1
	}
	for i, item := range seq.Content {
		if v := field(item, key); v != nil && v.Value == value {
			return i
		}
	}
	return -1
}
