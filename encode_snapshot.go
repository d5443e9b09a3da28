package tradebook

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/etnz/tradebook/date"
	"github.com/etnz/tradebook/logger"
	"github.com/shopspring/decimal"
)

const (
	holdingsPattern  = "holdings_snapshot_%d.csv"
	cashflowsPattern = "cashflows_snapshot_%d.json"
	holdingsGlob     = "holdings_snapshot_[0-9][0-9][0-9][0-9].csv"
)

var holdingsHeader = []string{"Ticker", "Qty", "Avg_Buy_Price", "Total_Invested", "Realized_Profit", "Currency", "Exchange_Rate", "Is_Bond"}

// cashflowsFile is the json layout of the cash-flow side of a snapshot.
type cashflowsFile struct {
	Year           int                        `json:"year"`
	CutoffDate     date.Date                  `json:"cutoff_date"`
	Currency       string                     `json:"currency"`
	CashFlows      []decimal.Decimal          `json:"cash_flows"`
	CashFlowDates  []date.Date                `json:"cash_flow_dates"`
	TradeCount     int                        `json:"trade_count"`
	ClosedRealized map[string]decimal.Decimal `json:"closed_realized"`
	OpenLots       map[string]Lots            `json:"open_lots"`
}

// SnapshotStore persists snapshots as one pair of files per year in Dir.
type SnapshotStore struct {
	Dir string
}

// NewSnapshotStore returns a store rooted at dir.
func NewSnapshotStore(dir string) *SnapshotStore { return &SnapshotStore{Dir: dir} }

func (st *SnapshotStore) holdingsPath(year int) string {
	return filepath.Join(st.Dir, fmt.Sprintf(holdingsPattern, year))
}

func (st *SnapshotStore) cashflowsPath(year int) string {
	return filepath.Join(st.Dir, fmt.Sprintf(cashflowsPattern, year))
}

// Save writes both files of the snapshot, overwriting any previous version of
// the same year.
func (st *SnapshotStore) Save(s *Snapshot) error {
	if err := os.MkdirAll(st.Dir, 0o755); err != nil {
		return fmt.Errorf("cannot create snapshot dir: %w", err)
	}
	year := s.Year()
	if err := writeFile(st.holdingsPath(year), func(w io.Writer) error { return encodeHoldings(w, s) }); err != nil {
		return fmt.Errorf("cannot save holdings of %d: %w", year, err)
	}
	if err := writeFile(st.cashflowsPath(year), func(w io.Writer) error { return encodeCashflows(w, s) }); err != nil {
		return fmt.Errorf("cannot save cash flows of %d: %w", year, err)
	}
	logger.L().Debug().Int("year", year).Int("positions", len(s.Positions)).Str("dir", st.Dir).Msg("snapshot saved")
	return nil
}

// Load reads the snapshot of year. It returns an error wrapping ErrNoSnapshot
// when the files do not exist.
func (st *SnapshotStore) Load(year int) (*Snapshot, error) {
	hf, err := os.Open(st.holdingsPath(year))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("year %d: %w", year, ErrNoSnapshot)
	}
	if err != nil {
		return nil, fmt.Errorf("load error: %w", err)
	}
	defer hf.Close()
	cf, err := os.Open(st.cashflowsPath(year))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("year %d: %w", year, ErrNoSnapshot)
	}
	if err != nil {
		return nil, fmt.Errorf("load error: %w", err)
	}
	defer cf.Close()

	s := &Snapshot{}
	if err := decodeCashflows(cf, s); err != nil {
		return nil, fmt.Errorf("load error: %s: %w", cf.Name(), err)
	}
	if err := decodeHoldings(hf, s); err != nil {
		return nil, fmt.Errorf("load error: %s: %w", hf.Name(), err)
	}
	if s.Year() != year {
		return nil, fmt.Errorf("load error: %s holds year %d", cf.Name(), s.Year())
	}
	return s, nil
}

// Years returns the sorted years with a snapshot in the store.
func (st *SnapshotStore) Years() ([]int, error) {
	matches, err := filepath.Glob(filepath.Join(st.Dir, holdingsGlob))
	if err != nil {
		return nil, err
	}
	var years []int
	for _, m := range matches {
		var year int
		if _, err := fmt.Sscanf(filepath.Base(m), holdingsPattern, &year); err != nil {
			continue
		}
		if _, err := os.Stat(st.cashflowsPath(year)); err != nil {
			continue
		}
		years = append(years, year)
	}
	slices.Sort(years)
	return years, nil
}

// Latest loads the most recent snapshot.
func (st *SnapshotStore) Latest() (*Snapshot, error) {
	years, err := st.Years()
	if err != nil {
		return nil, err
	}
	if len(years) == 0 {
		return nil, ErrNoSnapshot
	}
	return st.Load(years[len(years)-1])
}

// LatestBefore loads the most recent snapshot whose cutoff is strictly before on.
func (st *SnapshotStore) LatestBefore(on date.Date) (*Snapshot, error) {
	years, err := st.Years()
	if err != nil {
		return nil, err
	}
	for i := len(years) - 1; i >= 0; i-- {
		if date.EndOfYear(years[i]).Before(on) {
			return st.Load(years[i])
		}
	}
	return nil, fmt.Errorf("before %v: %w", on, ErrNoSnapshot)
}

// Rebuild builds the snapshot of every year from fromYear to toYear and
// replaces the whole store directory with them.
//
// The snapshots are written in a sibling temporary directory that is swapped
// in once complete, readers never see old and new years mixed. Years without
// any trade are skipped.
func (st *SnapshotStore) Rebuild(l *Ledger, fromYear, toYear int, opts Options) (years []int, anomalies []Anomaly, err error) {
	if fromYear > toYear {
		return nil, nil, fmt.Errorf("invalid year range %d-%d", fromYear, toYear)
	}
	dir := filepath.Clean(st.Dir)
	parent, name := filepath.Dir(dir), filepath.Base(dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, nil, fmt.Errorf("cannot create %s: %w", parent, err)
	}
	tmp, err := os.MkdirTemp(parent, "."+name+".new-")
	if err != nil {
		return nil, nil, fmt.Errorf("cannot create temporary snapshot dir: %w", err)
	}
	defer func() {
		if err != nil {
			os.RemoveAll(tmp)
		}
	}()

	staging := &SnapshotStore{Dir: tmp}
	for year := fromYear; year <= toYear; year++ {
		s, ok, err := BuildSnapshot(l, date.EndOfYear(year), opts)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			logger.L().Debug().Int("year", year).Msg("no trade, snapshot skipped")
			continue
		}
		if err := staging.Save(s); err != nil {
			return nil, nil, err
		}
		years = append(years, year)
		anomalies = append(anomalies, s.Anomalies...)
	}

	if err := swapDir(tmp, dir); err != nil {
		return nil, nil, err
	}
	logger.L().Info().Ints("years", years).Str("dir", dir).Msg("snapshots rebuilt")
	return years, anomalies, nil
}

// swapDir replaces dst by src.
func swapDir(src, dst string) error {
	old := src + ".old"
	if err := os.Rename(dst, old); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("cannot move away %s: %w", dst, err)
	}
	if err := os.Rename(src, dst); err != nil {
		// put the previous version back
		os.Rename(old, dst)
		return fmt.Errorf("cannot swap in %s: %w", dst, err)
	}
	return os.RemoveAll(old)
}

// writeFile writes path through a temporary file renamed on success.
func writeFile(path string, encode func(io.Writer) error) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	if err := encode(f); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return err
	}
	return os.Rename(f.Name(), path)
}

func encodeHoldings(w io.Writer, s *Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(holdingsHeader); err != nil {
		return err
	}
	for _, instrument := range s.Instruments() {
		p := s.Positions[instrument]
		err := cw.Write([]string{
			p.Instrument,
			p.Quantity.String(),
			p.AverageCost.value.String(),
			p.Invested().value.String(),
			p.Realized.value.String(),
			p.Currency,
			p.FxRate.String(),
			strconv.FormatBool(p.BondLike),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func decodeHoldings(r io.Reader, s *Snapshot) error {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return fmt.Errorf("cannot read header: %w", err)
	}
	col := make(map[string]int)
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	for _, h := range holdingsHeader {
		if _, ok := col[h]; !ok {
			return fmt.Errorf("missing column %q", h)
		}
	}

	s.Positions = make(map[string]Position)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		line, _ := cr.FieldPos(0)
		get := func(h string) string { return strings.TrimSpace(rec[col[h]]) }
		qty, err1 := ParseQuantity(get("Qty"))
		avg, err2 := decimal.NewFromString(get("Avg_Buy_Price"))
		realized, err3 := decimal.NewFromString(get("Realized_Profit"))
		fx, err4 := decimal.NewFromString(get("Exchange_Rate"))
		bond, err5 := strconv.ParseBool(get("Is_Bond"))
		if err := errors.Join(err1, err2, err3, err4, err5); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		p := Position{
			Instrument:  get("Ticker"),
			Quantity:    qty,
			AverageCost: M(avg, get("Currency")),
			Realized:    M(realized, s.Currency),
			Currency:    get("Currency"),
			FxRate:      fx,
			BondLike:    bond,
		}
		s.Positions[p.Instrument] = p
	}
	return nil
}

func encodeCashflows(w io.Writer, s *Snapshot) error {
	f := cashflowsFile{
		Year:           s.Year(),
		CutoffDate:     s.Cutoff,
		Currency:       s.Currency,
		CashFlows:      make([]decimal.Decimal, 0, len(s.CashFlows)),
		CashFlowDates:  make([]date.Date, 0, len(s.CashFlows)),
		TradeCount:     s.TradeCount,
		ClosedRealized: make(map[string]decimal.Decimal, len(s.Closed)),
		OpenLots:       s.OpenLots,
	}
	for _, cf := range s.CashFlows {
		f.CashFlows = append(f.CashFlows, cf.Amount.value)
		f.CashFlowDates = append(f.CashFlowDates, cf.Date)
	}
	for instrument, r := range s.Closed {
		f.ClosedRealized[instrument] = r.value
	}
	if f.OpenLots == nil {
		f.OpenLots = make(map[string]Lots)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(f)
}

func decodeCashflows(r io.Reader, s *Snapshot) error {
	var f cashflowsFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return err
	}
	if len(f.CashFlows) != len(f.CashFlowDates) {
		return fmt.Errorf("%d cash flows for %d dates", len(f.CashFlows), len(f.CashFlowDates))
	}
	if f.Currency == "" {
		f.Currency = DefaultBaseCurrency
	}
	s.Cutoff = f.CutoffDate
	s.Currency = f.Currency
	s.TradeCount = f.TradeCount
	s.CashFlows = make([]CashFlow, len(f.CashFlows))
	for i := range f.CashFlows {
		s.CashFlows[i] = CashFlow{Date: f.CashFlowDates[i], Amount: M(f.CashFlows[i], f.Currency)}
	}
	s.Closed = make(map[string]Money, len(f.ClosedRealized))
	for instrument, v := range f.ClosedRealized {
		s.Closed[instrument] = M(v, f.Currency)
	}
	s.OpenLots = f.OpenLots
	if s.OpenLots == nil {
		s.OpenLots = make(map[string]Lots)
	}
	return nil
}
