package quote

import (
	"context"
	"errors"
	"fmt"

	"github.com/etnz/tradebook"
	"github.com/etnz/tradebook/date"
	"github.com/etnz/tradebook/logger"
)

// Chain routes bond-like instruments to Bonds and the others to Market, and
// falls back to Backup when they fail. Successful remote prices are recorded
// into Backup as today's close.
type Chain struct {
	Market tradebook.PriceSource
	Bonds  tradebook.PriceSource
	Backup *Backup // optional
}

func (c *Chain) Quote(ctx context.Context, inst tradebook.Instrument) (tradebook.Quote, error) {
	src := c.Market
	if inst.BondLike && c.Bonds != nil {
		src = c.Bonds
	}
	var err error
	if src != nil {
		var q tradebook.Quote
		q, err = src.Quote(ctx, inst)
		if err == nil {
			if c.Backup != nil {
				if rerr := c.Backup.Record(inst.Ticker, date.Today(), q.Price); rerr != nil {
					logger.L().Warn().Err(rerr).Str("instrument", inst.Ticker).Msg("cannot record backup price")
				}
			}
			return q, nil
		}
	} else {
		err = fmt.Errorf("no source for %s: %w", inst.Ticker, tradebook.ErrNoPrice)
	}
	if c.Backup == nil {
		return tradebook.Quote{}, err
	}
	q, berr := c.Backup.Quote(ctx, inst)
	if berr != nil {
		return tradebook.Quote{}, errors.Join(err, berr)
	}
	logger.L().Warn().Str("instrument", inst.Ticker).AnErr("cause", err).Msg("using backup price")
	return q, nil
}
