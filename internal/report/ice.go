package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/coastalobs/ofsskill/internal/iceskill"
)

var iceDailyHeader = []string{
	"date",
	"mean_obs", "std_obs", "mean_mod", "std_mod",
	"extent_obs", "extent_mod",
	"rmse_all", "rmse_ice", "r",
	"skill_score", "csi",
	"hits", "false_alarms", "misses",
	"hit_rate_mod", "hit_rate_obs",
}

// WriteIceDaily writes the per-day basin statistics CSV for an ice season.
func WriteIceDaily(w io.Writer, days []iceskill.DailyStats) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(iceDailyHeader); err != nil {
		return err
	}
	for _, d := range days {
		rec := []string{
			d.Date.UTC().Format("2006-01-02"),
			num(d.MeanObs), num(d.StdObs), num(d.MeanModel), num(d.StdModel),
			num(d.ExtentObs), num(d.ExtentModel),
			num(d.RMSEAll), num(d.RMSEIce), num(d.R),
			num(d.SkillScore), num(d.CSI),
			strconv.Itoa(d.Hits), strconv.Itoa(d.FalseAlarms), strconv.Itoa(d.Misses),
			num(d.HitRateModel), num(d.HitRateObs),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
