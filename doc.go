// Package tradebook provides the position accounting of a trade ledger. It is
// designed to be local-first and auditable: every figure is replayed from the
// trades, and year-end snapshots only speed that replay up.
//
// The core functionalities include:
//   - Ledger: the date ordered list of buy and sell trades, decoded from and
//     encoded to CSV files.
//   - Lot matching: a FIFO lot queue per instrument computing open positions,
//     average cost and realized profit.
//   - Snapshots: year-end positions and cash flows persisted per year, from
//     which later holdings are resolved incrementally.
//   - Valuation: market value, unrealized profit, daily change and XIRR of the
//     holdings given current quotes.
//
// Data-quality problems never stop a computation, they are reported as
// anomalies alongside the result.
//
// This package serves as the foundational logic for the `tbk` command-line
// tool.
package tradebook
