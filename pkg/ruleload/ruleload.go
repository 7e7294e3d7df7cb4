// Package ruleload seeds the rule store from a file mapping client ids to
// rule lists, and optionally reloads it when the file changes. The file may
// be YAML or JSON, detected by extension.
package ruleload

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cjzdmj1997/parrot-mocker-web/pkg/rule"
)

// Load reads a rules file and returns the per-client lists. Every list is
// validated; one bad rule rejects the whole file.
func Load(path string) (map[string][]rule.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}

	var lists map[string][]rule.Rule
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		err = yaml.Unmarshal(data, &lists)
	} else {
		err = json.Unmarshal(data, &lists)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing rules file %s: %w", path, err)
	}

	for clientID, rules := range lists {
		if err := rule.ValidateList(rules); err != nil {
			return nil, fmt.Errorf("client %s: %w", clientID, err)
		}
	}
	return lists, nil
}

// Apply loads a rules file into the store, replacing the lists of every
// client named in the file. Clients absent from the file keep their rules.
func Apply(store *rule.Store, path string) error {
	lists, err := Load(path)
	if err != nil {
		return err
	}
	for clientID, rules := range lists {
		store.Put(clientID, rules)
	}
	return nil
}
