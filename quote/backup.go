package quote

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/etnz/tradebook"
	"github.com/etnz/tradebook/date"
	"github.com/shopspring/decimal"
)

var backupHeader = []string{"Ticker", "Date", "Closing Price"}

type closing struct {
	on    date.Date
	price decimal.Decimal
}

// Backup is a local file of closing prices (Ticker, Date, Closing Price) used
// when the remote providers fail. Every successful remote price is recorded
// into it.
type Backup struct {
	Path string

	mu     sync.Mutex
	loaded bool
	dirty  bool
	closes map[string][]closing // most recent first, one per date
}

// NewBackup returns a backup stored in path. The file is read on first use.
func NewBackup(path string) *Backup { return &Backup{Path: path} }

func (b *Backup) load() error {
	if b.loaded {
		return nil
	}
	b.closes = make(map[string][]closing)
	f, err := os.Open(b.Path)
	if errors.Is(err, fs.ErrNotExist) {
		b.loaded = true
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()
	if err := b.decode(f); err != nil {
		return fmt.Errorf("load error: %s: %w", b.Path, err)
	}
	b.loaded = true
	return nil
}

func (b *Backup) decode(r io.Reader) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return err
	}
	col := make(map[string]int)
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	ti, ok := col["Ticker"]
	if !ok {
		return errors.New("missing Ticker column")
	}
	// the older layout has only a current price without date.
	pi, dated := col["Closing Price"]
	di := col["Date"]
	if !dated {
		if pi, ok = col["Current Price"]; !ok {
			return errors.New("missing Closing Price column")
		}
	}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if max(ti, pi, di) >= len(rec) {
			continue
		}
		price, err := decimal.NewFromString(strings.TrimSpace(rec[pi]))
		if err != nil || !price.IsPositive() {
			continue
		}
		on := date.Today() // undated closes are migrated as today's
		if dated {
			if on, err = date.Parse(rec[di]); err != nil {
				continue
			}
		}
		b.add(strings.TrimSpace(rec[ti]), on, price)
	}
	return nil
}

// add inserts or replaces the close of ticker on a date.
func (b *Backup) add(ticker string, on date.Date, price decimal.Decimal) {
	list := b.closes[ticker]
	i, found := slices.BinarySearchFunc(list, on, func(c closing, d date.Date) int { return d.Compare(c.on) })
	if found {
		list[i].price = price
	} else {
		list = slices.Insert(list, i, closing{on: on, price: price})
	}
	b.closes[ticker] = list
}

// Quote returns the most recent close as price and the close of the previous
// recorded date as previous close.
func (b *Backup) Quote(ctx context.Context, inst tradebook.Instrument) (tradebook.Quote, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.load(); err != nil {
		return tradebook.Quote{}, err
	}
	list := b.closes[inst.Ticker]
	if len(list) == 0 {
		return tradebook.Quote{}, fmt.Errorf("backup %s: %w", inst.Ticker, tradebook.ErrNoPrice)
	}
	q := tradebook.Quote{Price: list[0].price, PreviousClose: list[0].price, Name: inst.Ticker, Source: "cached"}
	if len(list) > 1 {
		q.PreviousClose = list[1].price
	}
	return q, nil
}

// Record sets the close of ticker on a date, in memory until Save.
func (b *Backup) Record(ticker string, on date.Date, price decimal.Decimal) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.load(); err != nil {
		return err
	}
	b.add(ticker, on, price)
	b.dirty = true
	return nil
}

// Save writes the recorded closes, sorted by ticker then most recent date first.
func (b *Backup) Save() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.dirty {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(b.Path), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(b.Path), "."+filepath.Base(b.Path)+".*")
	if err != nil {
		return err
	}
	if err := b.encode(f); err != nil {
		f.Close()
		os.Remove(f.Name())
		return fmt.Errorf("persist error: %s: %w", b.Path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return err
	}
	if err := os.Rename(f.Name(), b.Path); err != nil {
		return err
	}
	b.dirty = false
	return nil
}

func (b *Backup) encode(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(backupHeader); err != nil {
		return err
	}
	tickers := make([]string, 0, len(b.closes))
	for t := range b.closes {
		tickers = append(tickers, t)
	}
	slices.Sort(tickers)
	for _, t := range tickers {
		for _, c := range b.closes[t] {
			if err := cw.Write([]string{t, c.on.String(), c.price.String()}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
