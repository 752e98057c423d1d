package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
	_ "modernc.org/sqlite"

	"github.com/coastalobs/ofsskill/internal/assemble"
	"github.com/coastalobs/ofsskill/internal/assess"
	"github.com/coastalobs/ofsskill/internal/config"
	"github.com/coastalobs/ofsskill/internal/iceskill"
	"github.com/coastalobs/ofsskill/internal/input"
	"github.com/coastalobs/ofsskill/internal/match"
	"github.com/coastalobs/ofsskill/internal/models"
	"github.com/coastalobs/ofsskill/internal/report"
	"github.com/coastalobs/ofsskill/internal/store"
)

var cli struct {
	OFS          string    `help:"Operational Forecast System identifier, e.g. cbofs." required:""`
	FileType     string    `help:"Model output layout: stations or fields." default:"stations"`
	Modes        []string  `help:"Run modes: nowcast, forecast_a, forecast_b." default:"nowcast"`
	Variables    []string  `help:"Variables to assess: wl, temp, salt, cu, ice." default:"wl"`
	Start        time.Time `help:"Assessment start date (UTC)." format:"2006-01-02" required:""`
	End          time.Time `help:"Assessment end date (UTC); ignored when forecast_a is requested." format:"2006-01-02" required:""`
	ForecastHour int       `help:"Requested cycle hour for forecast_a, snapped to the OFS schedule." default:"0"`
	Workers      int       `help:"Worker pool size; 0 uses the CPU count." default:"0"`
	Tolerance    float64   `help:"Station match tolerance in km." default:"2"`
	Input        string    `help:"Dataset JSON with stations, candidates, cycles, observations." required:"" type:"existingfile"`
	IceInput     string    `help:"Ice grid JSON with daily pairs and climatology." optional:"" type:"existingfile"`
	OutputDir    string    `help:"Directory for control, paired, and summary files." default:"out"`
	DB           string    `help:"SQLite database path." default:"data/ofsskill.db"`
}

func main() {
	kong.Parse(&cli,
		kong.Name("ofsskill"),
		kong.Description("Observation-model alignment and skill statistics for NOAA OFS output."),
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
	)

	cfg, err := config.New(config.Params{
		OFS:          cli.OFS,
		FileType:     cli.FileType,
		Modes:        cli.Modes,
		Variables:    cli.Variables,
		Start:        cli.Start,
		End:          cli.End,
		ForecastHour: cli.ForecastHour,
		Workers:      cli.Workers,
		ToleranceKM:  cli.Tolerance,
		OutputDir:    cli.OutputDir,
		DBPath:       cli.DB,
	})
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if err := run(context.Background(), cfg); err != nil {
		log.Fatalf("run: %v", err)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	ds, err := input.Load(cli.Input)
	if err != nil {
		return err
	}
	log.Printf("loaded %d stations, %d candidates from %s", len(ds.Stations()), len(ds.Candidates()), cli.Input)

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	st := store.New(db)
	if err := st.EnsureSkillTable(cfg.Period()); err != nil {
		return err
	}

	matcher := match.NewMatcher(ds.Candidates(), cfg.ToleranceKM)
	assembler := assemble.New(cfg.Spec, cfg.FileType, ds)
	runner := assess.NewRunner(cfg.Spec, assembler, matcher, ds, cfg.Workers)

	results, err := runner.Run(ctx, ds.Stations(), cfg.Variables, cfg.Modes, cfg.Start, cfg.End, cfg.ForecastHour)
	if err != nil {
		return err
	}
	log.Printf("assessed %d station pipelines", len(results))

	if err := writeControlFiles(cfg, matcher, ds.Stations()); err != nil {
		return err
	}
	if err := writePairedSeries(cfg, results); err != nil {
		return err
	}
	if err := writeSkillOutputs(cfg, st, results); err != nil {
		return err
	}

	if cli.IceInput != "" {
		if err := runIce(ctx, cfg, runner); err != nil {
			return err
		}
	}
	return nil
}

func writeControlFiles(cfg config.Config, matcher *match.Matcher, stations []models.Station) error {
	for _, v := range cfg.Variables {
		if v.Kind() == models.KindIce {
			continue
		}
		entries := matcher.MatchAll(stations, v)
		path := filepath.Join(cfg.OutputDir, report.CtlFileName(cfg.OFS, v))
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		err = report.WriteControlFile(f, entries)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		log.Printf("wrote %s", path)

		path = filepath.Join(cfg.OutputDir, report.StationCtlFileName(cfg.OFS, v))
		f, err = os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		err = report.WriteStationControlFile(f, entries, datumFor(v))
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		log.Printf("wrote %s", path)
	}
	return nil
}

// datumFor names the vertical reference recorded in the station roster.
// Water levels are assessed against MLLW; everything else is depth below
// mean sea level.
func datumFor(v models.Variable) string {
	if v == models.WaterLevel {
		return "MLLW"
	}
	return "MSL"
}

func writePairedSeries(cfg config.Config, results []assess.StationResult) error {
	for _, r := range results {
		if len(r.Paired) == 0 {
			continue
		}
		path := filepath.Join(cfg.OutputDir, report.IntFileName(cfg.OFS, r.Entry.Station.ID, r.Variable, r.Mode))
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		err = report.WritePairedSeries(f, r.Variable, cfg.Start, r.Paired)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}

func writeSkillOutputs(cfg config.Config, st *store.Store, results []assess.StationResult) error {
	sets := make([]models.SkillStatSet, 0, len(results))
	rows := make([]store.SkillStatRow, 0, len(results))
	for _, r := range results {
		sets = append(sets, r.Stats)
		rows = append(rows, store.RowFromStats(cfg.OFS, r.Stats))
	}

	path := filepath.Join(cfg.OutputDir, cfg.Period()+"_skill.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	err = report.WriteSkillTable(f, cfg.OFS, sets)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	log.Printf("wrote %s", path)

	if err := st.InsertSkillStats(cfg.Period(), rows); err != nil {
		return fmt.Errorf("insert skill stats: %w", err)
	}
	log.Printf("stored %d skill rows in %s", len(rows), cfg.DBPath)
	return nil
}

func runIce(ctx context.Context, cfg config.Config, runner *assess.Runner) error {
	pairs, clim, err := input.LoadIce(cli.IceInput)
	if err != nil {
		return err
	}
	season, err := runner.RunIce(ctx, pairs, clim)
	if err != nil {
		return err
	}

	path := filepath.Join(cfg.OutputDir, cfg.Period()+"_ice_daily.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	err = report.WriteIceDaily(f, season.Days)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	log.Printf("wrote %s", path)

	logDate := func(label string, d iceskill.Date) {
		if d.Found {
			log.Printf("ice %s: %s", label, d.Time.Format("2006-01-02"))
		} else {
			log.Printf("ice %s: not found", label)
		}
	}
	logDate("onset (obs)", season.OnsetObs)
	logDate("onset (model)", season.OnsetModel)
	logDate("thaw (obs)", season.ThawObs)
	logDate("thaw (model)", season.ThawModel)
	log.Printf("ice days: %d observed, %d modeled", season.IceDaysObs, season.IceDaysModel)
	return nil
}
