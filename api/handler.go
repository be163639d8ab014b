package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rustyeddy/signalbt/journal"
	"github.com/rustyeddy/signalbt/market"
)

// RunStore is the read side of a journal. *journal.SQLite implements it.
type RunStore interface {
	GetRun(ctx context.Context, runID string) (journal.Run, error)
	ListRuns(ctx context.Context, limit int) ([]journal.Run, error)
	ListStates(ctx context.Context, runID string) ([]market.AccountState, error)
	ListTrades(ctx context.Context, runID string) ([]market.TradeRecord, error)
	ListPortfolio(ctx context.Context, runID string) ([]market.PortfolioPoint, error)
}

const defaultLimit = 50

type Handler struct {
	store RunStore
}

func NewHandler(store RunStore) *Handler {
	return &Handler{store: store}
}

type runView struct {
	RunID       string    `json:"run_id"`
	Created     time.Time `json:"created"`
	Policy      string    `json:"policy"`
	Symbols     []string  `json:"symbols"`
	Failed      []string  `json:"failed,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	InitialCash float64   `json:"initial_cash"`
	FinalValue  float64   `json:"final_value"`
	TotalPnL    float64   `json:"total_pnl"`
	ReturnPct   float64   `json:"return_pct"`
	Sharpe      float64   `json:"sharpe"`
	MaxDrawdown float64   `json:"max_drawdown"`
	Trades      int       `json:"trades"`
}

func toRunView(r journal.Run) runView {
	return runView{
		RunID:       r.RunID,
		Created:     r.Created,
		Policy:      r.Policy,
		Symbols:     r.Symbols,
		Failed:      r.Failed,
		Start:       r.Start,
		End:         r.End,
		InitialCash: r.InitialCash,
		FinalValue:  r.FinalValue,
		TotalPnL:    r.TotalPnL,
		ReturnPct:   r.ReturnPct,
		Sharpe:      r.Sharpe,
		MaxDrawdown: r.MaxDrawdown,
		Trades:      r.Trades,
	}
}

type tradeView struct {
	TradeID string    `json:"trade_id"`
	Time    time.Time `json:"timestamp"`
	Symbol  string    `json:"symbol"`
	Side    string    `json:"side"`
	Shares  float64   `json:"shares"`
	Price   float64   `json:"price"`
	Amount  float64   `json:"amount"`
}

type stateView struct {
	Time           time.Time `json:"date"`
	Symbol         string    `json:"symbol"`
	Close          float64   `json:"close"`
	Signal         int       `json:"signal"`
	PositionSize   float64   `json:"position_size"`
	Cash           float64   `json:"cash"`
	PortfolioValue float64   `json:"portfolio_value"`
	PnL            float64   `json:"pnl"`
	ExitReason     string    `json:"exit_reason,omitempty"`
}

type pointView struct {
	Time       time.Time `json:"date"`
	TotalValue float64   `json:"total_portfolio_value"`
}

// ListRuns returns the newest runs. ?limit=N caps the count.
func (h *Handler) ListRuns(c *gin.Context) {
	limit := defaultLimit
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	runs, err := h.store.ListRuns(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	result := make([]runView, 0, len(runs))
	for _, r := range runs {
		result = append(result, toRunView(r))
	}
	c.JSON(http.StatusOK, gin.H{
		"count": len(result),
		"data":  result,
	})
}

func (h *Handler) GetRun(c *gin.Context) {
	run, ok := h.run(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": toRunView(run)})
}

func (h *Handler) GetEquity(c *gin.Context) {
	run, ok := h.run(c)
	if !ok {
		return
	}
	points, err := h.store.ListPortfolio(c.Request.Context(), run.RunID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	result := make([]pointView, 0, len(points))
	for _, p := range points {
		result = append(result, pointView{Time: p.Time, TotalValue: p.TotalValue})
	}
	c.JSON(http.StatusOK, gin.H{"run_id": run.RunID, "count": len(result), "data": result})
}

func (h *Handler) GetTrades(c *gin.Context) {
	run, ok := h.run(c)
	if !ok {
		return
	}
	trades, err := h.store.ListTrades(c.Request.Context(), run.RunID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	result := make([]tradeView, 0, len(trades))
	for _, t := range trades {
		result = append(result, tradeView{
			TradeID: t.TradeID,
			Time:    t.Time,
			Symbol:  t.Symbol,
			Side:    string(t.Side),
			Shares:  t.Shares,
			Price:   t.Price,
			Amount:  t.Amount,
		})
	}
	c.JSON(http.StatusOK, gin.H{"run_id": run.RunID, "count": len(result), "data": result})
}

// GetStates returns the per step account states. ?symbol= filters them.
func (h *Handler) GetStates(c *gin.Context) {
	run, ok := h.run(c)
	if !ok {
		return
	}
	states, err := h.store.ListStates(c.Request.Context(), run.RunID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	symbol := c.Query("symbol")
	result := make([]stateView, 0, len(states))
	for _, s := range states {
		if symbol != "" && s.Symbol != symbol {
			continue
		}
		result = append(result, stateView{
			Time:           s.Time,
			Symbol:         s.Symbol,
			Close:          s.Close,
			Signal:         int(s.Signal),
			PositionSize:   s.PositionSize,
			Cash:           s.Cash,
			PortfolioValue: s.PortfolioValue,
			PnL:            s.PnL,
			ExitReason:     s.ExitReason,
		})
	}
	c.JSON(http.StatusOK, gin.H{"run_id": run.RunID, "count": len(result), "data": result})
}

// run loads the run named by :id and writes the error response itself when
// it cannot.
func (h *Handler) run(c *gin.Context) (journal.Run, bool) {
	id := c.Param("id")
	run, err := h.store.GetRun(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, journal.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found", "run_id": id})
			return journal.Run{}, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return journal.Run{}, false
	}
	return run, true
}
