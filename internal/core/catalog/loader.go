package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hay-kot/criterio"
	"gopkg.in/yaml.v3"
)

// ErrInvalid marks a malformed catalog entry. Load rejects the whole
// directory on the first malformed file so a planning run never sees a
// partial catalog.
var ErrInvalid = errors.New("invalid catalog")

// fileItem mirrors Item with optional fields so presence can be validated
// before conversion. Importance must be present, not merely non-zero.
type fileItem struct {
	Name       *string        `yaml:"name"`
	Importance *float64       `yaml:"importance"`
	URL        string         `yaml:"url"`
	TaskType   TaskType       `yaml:"task_type"`
	Minutes    int            `yaml:"minutes"`
	Tags       []string       `yaml:"tags"`
	Extra      map[string]any `yaml:"extra"`
}

type fileGroup struct {
	Group *string    `yaml:"group"`
	Items []fileItem `yaml:"items"`
}

// Load reads every *.yaml / *.yml file in dir into a Snapshot keyed by file
// stem. A file may hold a single group document or a list of groups. Empty
// files are skipped. Any malformed entry fails the whole load with a
// descriptive error wrapping ErrInvalid.
func Load(dir string) (Snapshot, error) {
	matches, err := doublestar.FilepathGlob(filepath.Join(dir, "*.{yaml,yml}"))
	if err != nil {
		return nil, fmt.Errorf("glob catalog dir: %w", err)
	}

	snap := make(Snapshot)
	for _, path := range matches {
		groups, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		if len(groups) == 0 {
			continue
		}

		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		snap[stem] = groups
	}

	return snap, nil
}

func loadFile(path string) ([]Group, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, filepath.Base(path), err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil // empty file
	}

	var raw []fileGroup
	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, filepath.Base(path), err)
		}
	case yaml.MappingNode:
		var single fileGroup
		if err := root.Decode(&single); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, filepath.Base(path), err)
		}
		raw = []fileGroup{single}
	default:
		return nil, fmt.Errorf("%w: %s: document must be a group or a list of groups", ErrInvalid, filepath.Base(path))
	}

	groups := make([]Group, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, fg := range raw {
		if err := validateGroup(fg, i); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, filepath.Base(path), err)
		}

		g := fg.toGroup()
		if seen[g.Name] {
			return nil, fmt.Errorf("%w: %s: duplicate group %q", ErrInvalid, filepath.Base(path), g.Name)
		}
		seen[g.Name] = true
		groups = append(groups, g)
	}

	return groups, nil
}

func validateGroup(fg fileGroup, index int) error {
	var errs criterio.FieldErrorsBuilder

	if fg.Group == nil || *fg.Group == "" {
		errs = errs.Append(fmt.Sprintf("groups[%d].group", index), errors.New("missing required key"))
	}
	if fg.Items == nil {
		errs = errs.Append(fmt.Sprintf("groups[%d].items", index), errors.New("missing required key"))
	}

	for j, item := range fg.Items {
		if item.Name == nil || *item.Name == "" {
			errs = errs.Append(fmt.Sprintf("groups[%d].items[%d].name", index, j), errors.New("missing name"))
		}
		if item.Importance == nil {
			errs = errs.Append(fmt.Sprintf("groups[%d].items[%d].importance", index, j), errors.New("missing importance"))
		}
		if item.TaskType != "" && item.TaskType != TaskTypeCoding && item.TaskType != TaskTypeTodo {
			errs = errs.Append(fmt.Sprintf("groups[%d].items[%d].task_type", index, j), fmt.Errorf("unknown task type %q", item.TaskType))
		}
	}

	return errs.ToError()
}

func (fg fileGroup) toGroup() Group {
	g := Group{Name: *fg.Group, Items: make([]Item, 0, len(fg.Items))}
	for _, fi := range fg.Items {
		g.Items = append(g.Items, Item{
			Name:       *fi.Name,
			Importance: *fi.Importance,
			URL:        fi.URL,
			TaskType:   fi.TaskType,
			Minutes:    fi.Minutes,
			Tags:       fi.Tags,
			Extra:      fi.Extra,
		})
	}
	return g
}
