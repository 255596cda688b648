// Package project locates the workspace and reads project files.
package project

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"
	yaml "gopkg.in/yaml.v3"

	"github.com/josephgoksu/CostWing/models"
	"github.com/josephgoksu/CostWing/types"
)

// dateLayouts are tried in order for string dates.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// projectFile is the on-disk shape. Dates stay untyped because YAML and TOML
// may hand us native timestamps while JSON always gives strings.
type projectFile struct {
	ID        string         `json:"id" yaml:"id" toml:"id"`
	Name      string         `json:"name" yaml:"name" toml:"name"`
	StartDate any            `json:"start_date" yaml:"start_date" toml:"start_date"`
	Tasks     []models.Task  `json:"tasks" yaml:"tasks" toml:"tasks"`
	Resources []resourceFile `json:"resources" yaml:"resources" toml:"resources"`
}

type resourceFile struct {
	ID           string            `json:"id" yaml:"id" toml:"id"`
	Name         string            `json:"name" yaml:"name" toml:"name"`
	Type         string            `json:"type" yaml:"type" toml:"type"`
	Capacity     float64           `json:"capacity" yaml:"capacity" toml:"capacity"`
	CostPerHour  float64           `json:"cost_per_hour" yaml:"cost_per_hour" toml:"cost_per_hour"`
	Skills       []string          `json:"skills" yaml:"skills" toml:"skills"`
	Availability *availabilityFile `json:"availability" yaml:"availability" toml:"availability"`
}

type availabilityFile struct {
	Start      any     `json:"start" yaml:"start" toml:"start"`
	End        any     `json:"end" yaml:"end" toml:"end"`
	DailyHours float64 `json:"daily_hours" yaml:"daily_hours" toml:"daily_hours"`
}

// Loader reads project files from a filesystem.
type Loader struct {
	Fs afero.Fs
}

// NewLoader returns a Loader on fs, or on the OS filesystem if fs is nil.
func NewLoader(fs afero.Fs) *Loader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Loader{Fs: fs}
}

// Load reads a .yaml/.yml, .json or .toml project file, converts it and
// applies defaults. The result is not validated.
func (l *Loader) Load(path string) (models.Project, error) {
	data, err := afero.ReadFile(l.Fs, path)
	if err != nil {
		return models.Project{}, fmt.Errorf("failed to read project file %s: %w", path, err)
	}
	p, err := Decode(data, filepath.Ext(path))
	if err != nil {
		return models.Project{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Decode parses project data in the format named by ext (".json", ".yaml",
// ".yml" or ".toml", with or without the dot).
func Decode(data []byte, ext string) (models.Project, error) {
	var (
		pf  projectFile
		err error
	)
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&pf)
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&pf)
	case "toml":
		var md toml.MetaData
		md, err = toml.Decode(string(data), &pf)
		if err == nil {
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				err = fmt.Errorf("unknown key %q", undecoded[0].String())
			}
		}
	default:
		return models.Project{}, types.NewInvalidInputError(
			fmt.Sprintf("unsupported project file format %q (use .yaml, .json or .toml)", ext), nil)
	}
	if err != nil {
		return models.Project{}, types.NewInvalidInputError("failed to parse project file",
			map[string]interface{}{"cause": err.Error()})
	}
	return pf.toModel()
}

func (pf projectFile) toModel() (models.Project, error) {
	start, err := parseDate(pf.StartDate)
	if err != nil {
		return models.Project{}, types.NewInvalidInputError(fmt.Sprintf("start_date: %v", err), nil)
	}
	p := models.Project{
		ID:        pf.ID,
		Name:      pf.Name,
		StartDate: start,
		Tasks:     pf.Tasks,
		Resources: make([]models.Resource, 0, len(pf.Resources)),
	}
	for _, rf := range pf.Resources {
		r := models.Resource{
			ID:          rf.ID,
			Name:        rf.Name,
			Type:        rf.Type,
			Capacity:    rf.Capacity,
			CostPerHour: rf.CostPerHour,
			Skills:      rf.Skills,
		}
		if a := rf.Availability; a != nil {
			av := &models.Availability{DailyHours: a.DailyHours}
			if av.Start, err = optionalDate(a.Start); err != nil {
				return models.Project{}, types.NewInvalidInputError(fmt.Sprintf("resource %q availability start: %v", rf.ID, err), nil)
			}
			if av.End, err = optionalDate(a.End); err != nil {
				return models.Project{}, types.NewInvalidInputError(fmt.Sprintf("resource %q availability end: %v", rf.ID, err), nil)
			}
			r.Availability = av
		}
		p.Resources = append(p.Resources, r)
	}
	p.ApplyDefaults()
	return p, nil
}

func optionalDate(v any) (*time.Time, error) {
	if v == nil {
		return nil, nil
	}
	t, err := parseDate(v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseDate(v any) (time.Time, error) {
	switch d := v.(type) {
	case nil:
		return time.Time{}, fmt.Errorf("missing date")
	case time.Time:
		return d, nil
	case string:
		s := strings.TrimSpace(d)
		for _, layout := range dateLayouts {
			if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognised date %q", d)
	default:
		return time.Time{}, fmt.Errorf("unexpected date value %v (%T)", v, v)
	}
}
