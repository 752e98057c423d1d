// Package config materializes a validated, immutable run description. All
// components take the values they need explicitly; nothing reads flags or
// environment after construction.
package config

import (
	"fmt"
	"runtime"
	"time"

	"github.com/coastalobs/ofsskill/internal/assemble"
	"github.com/coastalobs/ofsskill/internal/match"
	"github.com/coastalobs/ofsskill/internal/models"
)

// Params carries raw CLI-level inputs into New.
type Params struct {
	OFS          string
	FileType     string
	Modes        []string
	Variables    []string
	Start        time.Time
	End          time.Time
	ForecastHour int
	Workers      int
	ToleranceKM  float64
	OutputDir    string
	DBPath       string
}

// Config is the validated run description.
type Config struct {
	OFS          string
	Spec         assemble.OFSSpec
	FileType     models.FileType
	Modes        []models.Mode
	Variables    []models.Variable
	Start        time.Time
	End          time.Time
	ForecastHour int
	Workers      int
	ToleranceKM  float64
	OutputDir    string
	DBPath       string
}

// New validates every field. A bad OFS identifier, mode, variable, or date
// ordering is fatal for the run; there are no partial defaults for them.
func New(p Params) (Config, error) {
	spec, err := assemble.LookupOFS(p.OFS)
	if err != nil {
		return Config{}, err
	}

	fileType, err := models.ParseFileType(p.FileType)
	if err != nil {
		return Config{}, err
	}

	if len(p.Modes) == 0 {
		return Config{}, fmt.Errorf("at least one mode required")
	}
	modes := make([]models.Mode, 0, len(p.Modes))
	for _, s := range p.Modes {
		m, err := models.ParseMode(s)
		if err != nil {
			return Config{}, err
		}
		modes = append(modes, m)
	}

	if len(p.Variables) == 0 {
		return Config{}, fmt.Errorf("at least one variable required")
	}
	variables := make([]models.Variable, 0, len(p.Variables))
	for _, s := range p.Variables {
		v, err := models.ParseVariable(s)
		if err != nil {
			return Config{}, err
		}
		variables = append(variables, v)
	}

	start, end := p.Start.UTC(), p.End.UTC()
	if end.Before(start) {
		return Config{}, fmt.Errorf("end date %s before start date %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	if p.ForecastHour < 0 || p.ForecastHour > 23 {
		return Config{}, fmt.Errorf("forecast cycle hour %d out of range [0,23]", p.ForecastHour)
	}

	workers := p.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	tolerance := p.ToleranceKM
	if tolerance <= 0 {
		tolerance = match.DefaultToleranceKM
	}

	return Config{
		OFS:          p.OFS,
		Spec:         spec,
		FileType:     fileType,
		Modes:        modes,
		Variables:    variables,
		Start:        start,
		End:          end,
		ForecastHour: p.ForecastHour,
		Workers:      workers,
		ToleranceKM:  tolerance,
		OutputDir:    p.OutputDir,
		DBPath:       p.DBPath,
	}, nil
}

// Period names the assessment window for table naming and file prefixes.
func (c Config) Period() string {
	return fmt.Sprintf("%s_%s_%s", c.OFS, c.Start.Format("20060102"), c.End.Format("20060102"))
}
