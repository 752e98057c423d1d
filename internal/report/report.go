// Package report writes the engine's file outputs: station control files,
// paired-series tables, and the skill summary CSV. Missing values appear as
// -999 in the fixed formats; they are represented explicitly everywhere
// upstream.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/coastalobs/ofsskill/internal/models"
)

// CtlFileName is the conventional control file name for an OFS and variable,
// e.g. cbofs_wl_model_station.ctl.
func CtlFileName(ofs string, v models.Variable) string {
	return fmt.Sprintf("%s_%s_model_station.ctl", ofs, v.Short())
}

// StationCtlFileName is the observation-side control file name,
// e.g. cbofs_wl_station.ctl.
func StationCtlFileName(ofs string, v models.Variable) string {
	return fmt.Sprintf("%s_%s_station.ctl", ofs, v.Short())
}

// IntFileName is the paired-series table name for one station pipeline.
func IntFileName(ofs, stationID string, v models.Variable, mode models.Mode) string {
	return fmt.Sprintf("%s_%s_%s_%s.int", ofs, stationID, v.Short(), mode)
}

// WriteControlFile writes one space-delimited line per station:
//
//	<node> <layer> <lat> <lon> <station_id> <shift>
//
// Unmatched stations keep their line with sentinel node and layer so the
// station roster is traceable through the run.
func WriteControlFile(w io.Writer, entries []models.ControlFileEntry) error {
	for _, e := range entries {
		node := e.Location.Node
		layer := e.Location.Layer
		if !e.Matched {
			node = int(models.Sentinel)
			layer = int(models.Sentinel)
		} else if layer < 0 {
			layer = 0 // surface
		}
		_, err := fmt.Fprintf(w, "%d %d %.6f %.6f %s %.4f\n",
			node, layer, e.Station.Latitude, e.Station.Longitude,
			e.Station.ID, e.Station.DatumShift.OrSentinel())
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteStationControlFile writes the station roster layout: two lines per
// station, identity then coordinates.
//
//	<ID> <ID>_<PROVIDER> "<station name>"
//	<lat> <lon> <depth> <shift> <datum>
func WriteStationControlFile(w io.Writer, entries []models.ControlFileEntry, datum string) error {
	for _, e := range entries {
		st := e.Station
		_, err := fmt.Fprintf(w, "%s %s_%s %q\n%.6f %.6f %.2f %.4f %s\n",
			st.ID, st.ID, st.Provider, st.Name,
			st.Latitude, st.Longitude, st.Depth.OrSentinel(),
			st.DatumShift.OrSentinel(), datum)
		if err != nil {
			return err
		}
	}
	return nil
}

// julianDay is the fractional day count since the start of yearStart's year.
func julianDay(t time.Time, yearStart time.Time) float64 {
	return t.Sub(yearStart).Hours() / 24
}

// WritePairedSeries writes the paired table for one station. Scalar columns:
//
//	Julian year month day hour minute OBS OFS BIAS
//
// Currents additionally carry OBS_DIR OFS_DIR BIAS_DIR. The Julian column
// counts fractional days from the start of the run's first year.
func WritePairedSeries(w io.Writer, v models.Variable, start time.Time, records []models.PairedRecord) error {
	vector := v.Kind() == models.KindVector
	yearStart := time.Date(start.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	for _, r := range records {
		t := r.Time.UTC()
		_, err := fmt.Fprintf(w, "%.5f %d %d %d %d %d %.3f %.3f %.3f",
			julianDay(t, yearStart),
			t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(),
			r.Obs, r.Model, r.Bias)
		if err != nil {
			return err
		}
		if vector {
			_, err = fmt.Fprintf(w, " %.3f %.3f %.3f",
				r.ObsDir.OrSentinel(), r.ModelDir.OrSentinel(), r.DirBias.OrSentinel())
			if err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

var skillHeader = []string{
	"product", "station_id", "type",
	"begin_date_time", "end_date_time", "node",
	"rmse", "r", "bias", "bias_perc", "bias_dir",
	"central_freq", "central_freq_pass_fail",
	"pos_outlier_freq", "pos_outlier_freq_pass_fail",
	"neg_outlier_freq", "neg_outlier_freq_pass_fail",
	"bias_standard_dev", "target_error_range",
}

// WriteSkillTable writes the per-station summary CSV for one OFS.
func WriteSkillTable(w io.Writer, ofs string, sets []models.SkillStatSet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(skillHeader); err != nil {
		return err
	}
	for _, s := range sets {
		rec := []string{
			fmt.Sprintf("%s_%s", ofs, s.Variable.Short()),
			s.StationID,
			s.Mode.String(),
			s.Start.UTC().Format("2006-01-02 15:04:05"),
			s.End.UTC().Format("2006-01-02 15:04:05"),
			strconv.Itoa(s.Node),
			num(s.RMSE), num(s.R), num(s.Bias), num(s.BiasPct), num(s.BiasDir),
			num(s.CF), s.CFPass.String(),
			num(s.POF), s.POFPass.String(),
			num(s.NOF), s.NOFPass.String(),
			num(s.BiasStdDev), num(s.TargetRange),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func num(v models.Value) string {
	return strconv.FormatFloat(v.OrSentinel(), 'f', 3, 64)
}
