// Package catalog defines the declarative catalog of task groups that
// planning runs consume. Catalogs are loaded from YAML files, one file per
// module, and are immutable within a planning run.
package catalog

import "sort"

// TaskType classifies how a task is meant to be worked on.
type TaskType string

const (
	// TaskTypeCoding is a programming exercise with a problem statement and starter code.
	TaskTypeCoding TaskType = "coding"
	// TaskTypeTodo is a plain actionable item.
	TaskTypeTodo TaskType = "todo"
)

// Item is a single selectable catalog entry.
type Item struct {
	Name       string         `yaml:"name" json:"name"`
	Importance float64        `yaml:"importance" json:"importance"`
	URL        string         `yaml:"url,omitempty" json:"url,omitempty"`
	TaskType   TaskType       `yaml:"task_type,omitempty" json:"task_type,omitempty"`
	Minutes    int            `yaml:"minutes,omitempty" json:"minutes,omitempty"`
	Tags       []string       `yaml:"tags,omitempty" json:"tags,omitempty"`
	Extra      map[string]any `yaml:"extra,omitempty" json:"extra,omitempty"`
}

// Group is a named collection of catalog items.
// Group names are unique within a catalog snapshot.
type Group struct {
	Name  string `yaml:"group" json:"group"`
	Items []Item `yaml:"items" json:"items"`
}

// Snapshot is a full catalog load, keyed by module ID (the source file stem).
type Snapshot map[string][]Group

// Modules returns the module IDs in the snapshot, sorted.
func (s Snapshot) Modules() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AllGroups returns every group across all modules, ordered by module ID.
func (s Snapshot) AllGroups() []Group {
	var groups []Group
	for _, id := range s.Modules() {
		groups = append(groups, s[id]...)
	}
	return groups
}
