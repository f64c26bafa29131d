package catalog

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v2"

	"climate-platform/internal/models"
	"climate-platform/internal/reader"
)

const dateLayout = "2006-01-02"

// Catalog is the set of data sets the platform knows how to read
type Catalog struct {
	DataSets []DataSet `yaml:"data_sets" json:"data_sets"`

	byID map[string]int
}

// DataSet describes one series and the files it is read from
type DataSet struct {
	ID          string           `yaml:"id" json:"id"`
	Name        string           `yaml:"name" json:"name"`
	Description string           `yaml:"description" json:"description,omitempty"`
	Units       string           `yaml:"units" json:"units,omitempty"`
	Resolution  string           `yaml:"resolution" json:"resolution"`
	RowPattern  string           `yaml:"row_pattern" json:"-"`
	NullValue   string           `yaml:"null_value" json:"-"`
	Archive     string           `yaml:"archive" json:"-"`
	Files       []FileDefinition `yaml:"files" json:"-"`

	pattern *regexp.Regexp
}

// FileDefinition is one file segment of a data set. Dates are YYYY-MM-DD.
type FileDefinition struct {
	FileName   string                  `yaml:"file_name"`
	Station    string                  `yaml:"station"`
	StartDate  string                  `yaml:"start_date"`
	EndDate    string                  `yaml:"end_date"`
	Adjustment *reader.ValueAdjustment `yaml:"adjustment"`
}

// Load reads and validates a catalog file
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	cat, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return cat, nil
}

// Parse decodes and validates catalog YAML
func Parse(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.UnmarshalStrict(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	cat.byID = make(map[string]int, len(cat.DataSets))
	for i := range cat.DataSets {
		ds := &cat.DataSets[i]
		if err := ds.validate(); err != nil {
			return nil, err
		}
		if _, dup := cat.byID[ds.ID]; dup {
			return nil, &models.ValidationError{Field: "id", Value: ds.ID, Message: "duplicate data set id"}
		}
		cat.byID[ds.ID] = i
	}
	return &cat, nil
}

// Find returns the data set with the given id
func (c *Catalog) Find(id string) (*DataSet, bool) {
	i, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	return &c.DataSets[i], true
}

func (ds *DataSet) validate() error {
	if ds.ID == "" {
		return &models.ValidationError{Field: "id", Message: "data set id is required"}
	}
	res, err := models.ParseDataResolution(ds.Resolution)
	if err != nil {
		return fmt.Errorf("data set %s: %w", ds.ID, err)
	}
	if res == models.Weekly {
		return fmt.Errorf("data set %s: %w", ds.ID, reader.ErrWeeklyUnsupported)
	}

	ds.pattern, err = regexp.Compile(ds.RowPattern)
	if err != nil {
		return &models.ValidationError{Field: "row_pattern", Value: ds.RowPattern, Message: err.Error()}
	}

	if len(ds.Files) == 0 {
		return &models.ValidationError{Field: "files", Value: ds.ID, Message: "at least one file is required"}
	}
	for _, f := range ds.Files {
		if f.FileName == "" {
			return &models.ValidationError{Field: "file_name", Value: ds.ID, Message: "file name is required"}
		}
		if _, err := parseOptionalDate(f.StartDate); err != nil {
			return err
		}
		if _, err := parseOptionalDate(f.EndDate); err != nil {
			return err
		}
		if f.Adjustment != nil {
			if err := f.Adjustment.Validate(); err != nil {
				return fmt.Errorf("data set %s file %s: %w", ds.ID, f.FileName, err)
			}
		}
	}
	return nil
}

// DataResolution returns the parsed resolution
func (ds *DataSet) DataResolution() models.DataResolution {
	return models.DataResolution(ds.Resolution)
}

// ReaderOptions returns the base reader options shared by every file of the data set
func (ds *DataSet) ReaderOptions() reader.Options {
	return reader.Options{
		RowPattern: ds.pattern,
		NullValue:  ds.NullValue,
		Resolution: ds.DataResolution(),
	}
}

// Segments converts the file definitions into merge segments, in catalog order
func (ds *DataSet) Segments() []reader.FileSegment {
	out := make([]reader.FileSegment, 0, len(ds.Files))
	for _, f := range ds.Files {
		// dates were checked in validate
		start, _ := parseOptionalDate(f.StartDate)
		end, _ := parseOptionalDate(f.EndDate)
		out = append(out, reader.FileSegment{
			FileName:   f.FileName,
			Station:    f.Station,
			StartDate:  start,
			EndDate:    end,
			Adjustment: f.Adjustment,
		})
	}
	return out
}

func parseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, &models.ValidationError{Field: "date", Value: s, Message: "expected YYYY-MM-DD"}
	}
	return &t, nil
}
