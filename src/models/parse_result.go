package models

import "fmt"

// StructuredLog is one audit record for a single row-level decision.
type StructuredLog struct {
	Step    string `json:"step"`
	Action  string `json:"action"`
	Details string `json:"details"`
	Result  string `json:"result"`
}

// AssetLog groups the audit records and accepted transactions of one asset.
type AssetLog struct {
	Logs         []StructuredLog `json:"logs"`
	Transactions []Transaction   `json:"transactions"`
}

// Record appends one structured decision record to the asset's log.
func (a *AssetLog) Record(step, action, details, result string) {
	a.Logs = append(a.Logs, StructuredLog{Step: step, Action: action, Details: details, Result: result})
}

// ParsingLogs is the replayable audit trail of a single parse invocation.
// Setup holds global messages (delimiter, headers, schema, structural errors),
// AssetLogs one sub-log per asset, and Summary the final counts. It is
// append-only and never read back by the parsing pipeline itself.
type ParsingLogs struct {
	Setup     []string             `json:"setup"`
	AssetLogs map[string]*AssetLog `json:"asset_logs"`
	Summary   []string             `json:"summary"`
}

// NewParsingLogs returns an empty audit trail.
func NewParsingLogs() *ParsingLogs {
	return &ParsingLogs{
		Setup:     []string{},
		AssetLogs: make(map[string]*AssetLog),
		Summary:   []string{},
	}
}

// Setupf appends a formatted message to the global setup channel.
func (l *ParsingLogs) Setupf(format string, args ...any) {
	l.Setup = append(l.Setup, fmt.Sprintf(format, args...))
}

// Summaryf appends a formatted message to the summary channel.
func (l *ParsingLogs) Summaryf(format string, args ...any) {
	l.Summary = append(l.Summary, fmt.Sprintf(format, args...))
}

// Asset returns the sub-log for the named asset, creating it on first use.
func (l *ParsingLogs) Asset(name string) *AssetLog {
	al, ok := l.AssetLogs[name]
	if !ok {
		al = &AssetLog{}
		l.AssetLogs[name] = al
	}
	return al
}

// ParseResult is the complete outcome of one parse invocation. Error is set
// exclusive-or with a populated result: structural failures (empty input,
// missing required columns) leave Assets and Transactions empty, while
// row-level failures are skipped and logged without aborting the parse.
type ParseResult struct {
	Assets         []Asset       `json:"assets"`
	Transactions   []Transaction `json:"transactions"`
	RealizedProfit float64       `json:"realized_profit"`
	Logs           *ParsingLogs  `json:"logs"`
	Error          string        `json:"error,omitempty"`
}
