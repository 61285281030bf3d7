// Package orglist loads the ordered organization lists driving the crawl.
// The input documents map a grouping (country, agency category, ...) to the
// organization logins under it; document order is preserved so the crawl
// checkpoint stays a plain index.
package orglist

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Type labels for the two input lists.
const (
	TypeGovernment = "government"
	TypeCivic      = "civic"
)

// Entry is one organization to crawl.
type Entry struct {
	Login    string
	Grouping string
	Type     string
}

// Classification holds the two lowercase-login lookup sets used to label
// fork provenance.
type Classification struct {
	Government map[string]bool
	Civic      map[string]bool
}

// Classify labels a fork origin owner's login against the two sets,
// case-insensitively. An unresolvable origin (empty login) is
// conservatively treated as government-sourced. A login present in both
// lists reports both flags true; the ambiguity is deliberate.
func (c *Classification) Classify(login string) (government, civic bool) {
	if login == "" {
		return true, false
	}
	l := strings.ToLower(login)
	return c.Government[l], c.Civic[l]
}

// Load reads both list documents and returns the flattened crawl list
// (government entries first, in document order) and the classification
// sets.
func Load(governmentPath, civicPath string) ([]Entry, *Classification, error) {
	government, err := parseFile(governmentPath, TypeGovernment)
	if err != nil {
		return nil, nil, err
	}
	civic, err := parseFile(civicPath, TypeCivic)
	if err != nil {
		return nil, nil, err
	}

	entries := make([]Entry, 0, len(government)+len(civic))
	entries = append(entries, government...)
	entries = append(entries, civic...)

	cls := &Classification{
		Government: loginSet(government),
		Civic:      loginSet(civic),
	}
	return entries, cls, nil
}

func parseFile(path, listType string) ([]Entry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read organization list %s: %w", path, err)
	}
	return parse(raw, listType, path)
}

// parse walks the yaml mapping node directly so the grouping order of the
// document survives (a plain map would shuffle it).
func parse(raw []byte, listType, name string) ([]Entry, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse organization list %s: %w", name, err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("organization list %s: expected a grouping -> logins mapping", name)
	}

	var entries []Entry
	for i := 0; i+1 < len(root.Content); i += 2 {
		grouping := root.Content[i].Value
		logins := root.Content[i+1]
		if logins.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("organization list %s: grouping %q is not a sequence", name, grouping)
		}
		for _, login := range logins.Content {
			if login.Value == "" {
				continue
			}
			entries = append(entries, Entry{
				Login:    login.Value,
				Grouping: grouping,
				Type:     listType,
			})
		}
	}
	return entries, nil
}

func loginSet(entries []Entry) map[string]bool {
	set := make(map[string]bool, len(entries))
	for _, e := range entries {
		set[strings.ToLower(e.Login)] = true
	}
	return set
}
