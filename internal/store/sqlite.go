// Package store persists skill-statistic rows to SQLite. Tables are
// per assessment period, named <period>_skill_stats, and rows are keyed by
// product, station, begin date, and run type so re-running a period never
// duplicates rows.
package store

import (
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"github.com/coastalobs/ofsskill/internal/models"
)

const timeLayout = "2006-01-02 15:04:05"

// periodPattern guards the table name, which cannot be a bind parameter.
var periodPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// SkillStatRow is one persisted statistics row. Product identifies the OFS
// and variable together, e.g. "cbofs_wl"; Type is the run mode.
type SkillStatRow struct {
	InsertedAt time.Time
	Product    string
	StationID  string
	Type       string
	Begin      time.Time
	End        time.Time
	Node       int

	RMSE       sql.NullFloat64
	R          sql.NullFloat64
	Bias       sql.NullFloat64
	BiasPerc   sql.NullFloat64
	BiasDir    sql.NullFloat64
	BiasStdDev sql.NullFloat64

	CentralFreq         sql.NullFloat64
	CentralFreqPassFail sql.NullString
	PosOutlierFreq      sql.NullFloat64
	PosOutlierPassFail  sql.NullString
	NegOutlierFreq      sql.NullFloat64
	NegOutlierPassFail  sql.NullString

	TargetErrorRange sql.NullFloat64
}

// RowFromStats flattens a statistics set for storage.
func RowFromStats(ofs string, set models.SkillStatSet) SkillStatRow {
	return SkillStatRow{
		Product:    fmt.Sprintf("%s_%s", ofs, set.Variable.Short()),
		StationID:  set.StationID,
		Type:       set.Mode.String(),
		Begin:      set.Start,
		End:        set.End,
		Node:       set.Node,
		RMSE:       nullable(set.RMSE),
		R:          nullable(set.R),
		Bias:       nullable(set.Bias),
		BiasPerc:   nullable(set.BiasPct),
		BiasDir:    nullable(set.BiasDir),
		BiasStdDev: nullable(set.BiasStdDev),

		CentralFreq:         nullable(set.CF),
		CentralFreqPassFail: passFail(set.CFPass),
		PosOutlierFreq:      nullable(set.POF),
		PosOutlierPassFail:  passFail(set.POFPass),
		NegOutlierFreq:      nullable(set.NOF),
		NegOutlierPassFail:  passFail(set.NOFPass),

		TargetErrorRange: nullable(set.TargetRange),
	}
}

func nullable(v models.Value) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v.Float64, Valid: v.Valid}
}

func passFail(p models.PassFail) sql.NullString {
	if p == models.PassFailMissing {
		return sql.NullString{}
	}
	return sql.NullString{String: p.String(), Valid: true}
}

func tableName(period string) (string, error) {
	if !periodPattern.MatchString(period) {
		return "", fmt.Errorf("invalid period %q", period)
	}
	return period + "_skill_stats", nil
}

// EnsureSkillTable creates the period's table when absent.
func (s *Store) EnsureSkillTable(period string) error {
	table, err := tableName(period)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			datetime_inserted TEXT,
			product TEXT,
			station_id TEXT,
			type TEXT,
			begin_date_time TEXT,
			end_date_time TEXT,
			node INTEGER,
			rmse REAL,
			r REAL,
			bias REAL,
			bias_perc REAL,
			bias_dir REAL,
			central_freq REAL,
			central_freq_pass_fail TEXT,
			pos_outlier_freq REAL,
			pos_outlier_freq_pass_fail TEXT,
			neg_outlier_freq REAL,
			neg_outlier_freq_pass_fail TEXT,
			bias_standard_dev REAL,
			target_error_range REAL,
			PRIMARY KEY (product, station_id, begin_date_time, type)
		)
	`, table))
	if err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}

// InsertSkillStats appends rows for a period. Rows whose key already exists
// are left untouched.
func (s *Store) InsertSkillStats(period string, rows []SkillStatRow) error {
	table, err := tableName(period)
	if err != nil {
		return err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	stmt, err := tx.Prepare(fmt.Sprintf(`
		INSERT OR IGNORE INTO %s (
			datetime_inserted, product, station_id, type,
			begin_date_time, end_date_time, node,
			rmse, r, bias, bias_perc, bias_dir,
			central_freq, central_freq_pass_fail,
			pos_outlier_freq, pos_outlier_freq_pass_fail,
			neg_outlier_freq, neg_outlier_freq_pass_fail,
			bias_standard_dev, target_error_range
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, table))
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(timeLayout)
	for _, r := range rows {
		if _, err := stmt.Exec(
			now, r.Product, r.StationID, r.Type,
			r.Begin.UTC().Format(timeLayout), r.End.UTC().Format(timeLayout), r.Node,
			r.RMSE, r.R, r.Bias, r.BiasPerc, r.BiasDir,
			r.CentralFreq, r.CentralFreqPassFail,
			r.PosOutlierFreq, r.PosOutlierPassFail,
			r.NegOutlierFreq, r.NegOutlierPassFail,
			r.BiasStdDev, r.TargetErrorRange,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert %s/%s: %w", r.Product, r.StationID, err)
		}
	}
	return tx.Commit()
}

// GetSkillStats reads a period's rows back, ordered by product then station.
func (s *Store) GetSkillStats(period string) ([]SkillStatRow, error) {
	table, err := tableName(period)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(fmt.Sprintf(`
		SELECT product, station_id, type, begin_date_time, end_date_time, node,
			rmse, r, bias, bias_perc, bias_dir,
			central_freq, central_freq_pass_fail,
			pos_outlier_freq, pos_outlier_freq_pass_fail,
			neg_outlier_freq, neg_outlier_freq_pass_fail,
			bias_standard_dev, target_error_range
		FROM %s
		ORDER BY product, station_id, type
	`, table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SkillStatRow
	for rows.Next() {
		var r SkillStatRow
		var begin, end string
		if err := rows.Scan(
			&r.Product, &r.StationID, &r.Type, &begin, &end, &r.Node,
			&r.RMSE, &r.R, &r.Bias, &r.BiasPerc, &r.BiasDir,
			&r.CentralFreq, &r.CentralFreqPassFail,
			&r.PosOutlierFreq, &r.PosOutlierPassFail,
			&r.NegOutlierFreq, &r.NegOutlierPassFail,
			&r.BiasStdDev, &r.TargetErrorRange,
		); err != nil {
			return nil, err
		}
		if r.Begin, err = time.Parse(timeLayout, begin); err != nil {
			return nil, fmt.Errorf("parse begin_date_time: %w", err)
		}
		if r.End, err = time.Parse(timeLayout, end); err != nil {
			return nil, fmt.Errorf("parse end_date_time: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
