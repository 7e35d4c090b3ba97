package processors

import (
	"fmt"
	"math"

	"github.com/username/investview/backend/src/models"
)

// ClosureEpsilon is the threshold below which a position counts as closed.
// Selling the exact remaining quantity leaves floating-point dust in the
// accumulator; anything within this distance of zero is forced to exactly
// zero and excluded from the final holdings.
const ClosureEpsilon = 1e-5

// Holding is the mutable running accumulator for one asset.
type Holding struct {
	Quantity  float64
	TotalCost float64
	AssetType string
}

// LedgerProcessor maintains per-asset running quantity and total cost using
// the weighted-average cost-basis method, and accumulates realized profit
// across partial sells. Transactions are applied strictly in the order they
// arrive, which is file order, not date order: a caller that needs
// chronological accounting must sort before applying, because re-sorting here
// would observably change cost-basis outcomes.
type LedgerProcessor struct {
	holdings       map[string]*Holding
	order          []string // first-appearance order, for deterministic output
	realizedProfit float64
}

func NewLedgerProcessor() *LedgerProcessor {
	return &LedgerProcessor{holdings: make(map[string]*Holding)}
}

func (p *LedgerProcessor) holding(tx models.Transaction) *Holding {
	h, ok := p.holdings[tx.Asset]
	if !ok {
		h = &Holding{AssetType: tx.AssetType}
		p.holdings[tx.Asset] = h
		p.order = append(p.order, tx.Asset)
	}
	return h
}

// Apply folds one transaction into the ledger. Every decision is mirrored
// into the asset's audit sub-log when logs is non-nil.
func (p *LedgerProcessor) Apply(tx models.Transaction, logs *models.ParsingLogs) {
	h := p.holding(tx)

	switch tx.Type {
	case models.TransactionBuy:
		h.Quantity += tx.Quantity
		h.TotalCost += tx.Quantity * tx.Price
		p.record(logs, tx, fmt.Sprintf("BUY %v @ %.4f", tx.Quantity, tx.Price),
			fmt.Sprintf("qty=%v, totalCost=%.4f", h.Quantity, h.TotalCost))

	case models.TransactionSell:
		if h.Quantity > 0 {
			// Realized profit is computed against the average cost as of
			// immediately before this sale, never the final average. The cost
			// removed is proportional to shares sold, which keeps the average
			// for the remaining shares unchanged.
			avgCostBeforeSale := h.TotalCost / h.Quantity
			profit := (tx.Price - avgCostBeforeSale) * tx.Quantity
			p.realizedProfit += profit
			h.TotalCost -= avgCostBeforeSale * tx.Quantity
			h.Quantity -= tx.Quantity
			p.clampClosed(h)
			p.record(logs, tx, fmt.Sprintf("SELL %v @ %.4f (avg cost %.4f)", tx.Quantity, tx.Price, avgCostBeforeSale),
				fmt.Sprintf("realized %+.4f, qty=%v, totalCost=%.4f", profit, h.Quantity, h.TotalCost))
			return
		}
		// Sell without recorded buys. The quantity still drops (possibly below
		// zero) but profit and cost basis are left untouched; there is no
		// short-sale model and the correct semantic is a pending product
		// decision, so the behavior is reproduced as observed, not fixed.
		h.Quantity -= tx.Quantity
		p.clampClosed(h)
		p.record(logs, tx, fmt.Sprintf("SELL %v @ %.4f with no recorded buys", tx.Quantity, tx.Price),
			fmt.Sprintf("cost basis unchanged, qty=%v", h.Quantity))
	}
}

func (p *LedgerProcessor) clampClosed(h *Holding) {
	if math.Abs(h.Quantity) < ClosureEpsilon {
		h.Quantity = 0
		h.TotalCost = 0
	}
}

func (p *LedgerProcessor) record(logs *models.ParsingLogs, tx models.Transaction, details, result string) {
	if logs == nil {
		return
	}
	logs.Asset(tx.Asset).Record(fmt.Sprintf("Ledger %s", tx.Date.Format("2006-01-02")), "Apply", details, result)
}

// RealizedProfit returns the profit locked in by all sells applied so far.
func (p *LedgerProcessor) RealizedProfit() float64 {
	return p.realizedProfit
}

// Holdings emits the surviving positions as output assets, in the order the
// assets first appeared. PurchasePrice and CurrentPrice both carry the final
// average cost; live prices are filled in elsewhere.
func (p *LedgerProcessor) Holdings() []models.Asset {
	assets := []models.Asset{}
	for _, key := range p.order {
		h := p.holdings[key]
		if h.Quantity <= ClosureEpsilon {
			continue
		}
		avg := 0.0
		if h.Quantity > 0 {
			avg = h.TotalCost / h.Quantity
		}
		assets = append(assets, models.Asset{
			Asset:         key,
			Quantity:      h.Quantity,
			PurchasePrice: avg,
			CurrentPrice:  avg,
			AssetType:     h.AssetType,
		})
	}
	return assets
}

// ReplayTransactions rebuilds holdings and realized profit from a recorded
// transaction sequence. Replaying the exact sequence reproduces the original
// averages bit for bit, which is what lets the stored ledger stand in for a
// stored snapshot.
func ReplayTransactions(txs []models.Transaction) ([]models.Asset, float64) {
	p := NewLedgerProcessor()
	for _, tx := range txs {
		p.Apply(tx, nil)
	}
	return p.Holdings(), p.RealizedProfit()
}
