package cmd

import (
	"github.com/etnz/tradebook/docs"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Completion describes the tbk commands and flags for shell completion.
func Completion() *complete.Command {
	dates := predict.Set{"0d", "-1d", "-1w", "-1m", "-1y"}
	topics, _ := docs.List()
	return &complete.Command{
		Flags: map[string]complete.Predictor{
			"env": predict.Files("*"),
			"raw": predict.Nothing,
		},
		Sub: map[string]*complete.Command{
			"summary": {Flags: map[string]complete.Predictor{
				"d":       dates,
				"offline": predict.Nothing,
				"full":    predict.Nothing,
			}},
			"holdings": {Flags: map[string]complete.Predictor{
				"d":    dates,
				"full": predict.Nothing,
			}},
			"status":   {},
			"snapshot": {Flags: map[string]complete.Predictor{"y": predict.Something}},
			"rebuild": {Flags: map[string]complete.Predictor{
				"from": predict.Something,
				"to":   predict.Something,
			}},
			"verify":        {Flags: map[string]complete.Predictor{"y": predict.Something}},
			"consolidate":   {Flags: map[string]complete.Predictor{"o": predict.Files("*.csv")}},
			"format-ledger": {Flags: map[string]complete.Predictor{"o": predict.Files("*.csv")}},
			"topic":         {Args: predict.Set(topics)},
			"help":          {},
		},
	}
}
