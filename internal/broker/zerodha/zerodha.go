package zerodha

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"options-trading-bot/internal/interfaces"
	"options-trading-bot/internal/logger"
	"options-trading-bot/internal/market"
	"options-trading-bot/internal/types"
)

// Params carries the Zerodha API credentials.
type Params struct {
	APIKey      string
	AccessToken string
}

// Zerodha places live option orders through Kite Connect. Orders go as
// MIS market orders; the fill price is read back from the LTP quote
// since market fills are not returned synchronously.
type Zerodha struct {
	p  Params
	kc *kiteconnect.Client
}

var _ interfaces.Broker = (*Zerodha)(nil)

func NewZerodha(p Params) *Zerodha {
	return &Zerodha{p: p}
}

func (z *Zerodha) Start(ctx context.Context) error {
	if z.p.APIKey == "" || z.p.AccessToken == "" {
		return errors.New("missing API key/access token")
	}
	z.kc = kiteconnect.New(z.p.APIKey)
	z.kc.SetAccessToken(z.p.AccessToken)
	logger.Info(ctx, "Zerodha broker initialized")
	return nil
}

func (z *Zerodha) Stop(ctx context.Context) {}

func (z *Zerodha) PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	if z.kc == nil {
		return types.OrderResp{}, errors.New("broker not started")
	}
	idx, ok := market.Lookup(req.Index)
	if !ok {
		return types.OrderResp{}, fmt.Errorf("unknown index '%s'", req.Index)
	}
	symbol, err := Tradingsymbol(idx, req.Expiry, req.Strike, req.Leg)
	if err != nil {
		return types.OrderResp{}, err
	}

	resp, err := z.kc.PlaceOrder(kiteconnect.VarietyRegular, kiteconnect.OrderParams{
		Exchange:        idx.Segment,
		Tradingsymbol:   symbol,
		Product:         kiteconnect.ProductMIS,
		OrderType:       kiteconnect.OrderTypeMarket,
		TransactionType: req.Side,
		Quantity:        req.Qty,
		Validity:        kiteconnect.ValidityDay,
		Tag:             req.Tag,
	})
	if err != nil {
		return types.OrderResp{}, fmt.Errorf("place order %s: %w", symbol, err)
	}

	fill := z.lastPrice(ctx, idx.Segment, symbol)
	if fill <= 0 {
		fill = req.Price
	}
	logger.Debug(ctx, "Live order placed",
		"order_id", resp.OrderID,
		"symbol", symbol,
		"side", req.Side,
		"qty", req.Qty,
		"fill", fill,
	)
	return types.OrderResp{OrderID: resp.OrderID, FillPrice: fill, Status: "COMPLETE"}, nil
}

func (z *Zerodha) CloseOrder(ctx context.Context, pos *types.Position, ltp float64) (types.OrderResp, error) {
	if z.kc == nil {
		return types.OrderResp{}, errors.New("broker not started")
	}
	idx, ok := market.Lookup(pos.Index)
	if !ok {
		return types.OrderResp{}, fmt.Errorf("unknown index '%s'", pos.Index)
	}
	symbol, err := Tradingsymbol(idx, pos.Expiry, pos.Strike, pos.Leg)
	if err != nil {
		return types.OrderResp{}, err
	}

	resp, err := z.kc.PlaceOrder(kiteconnect.VarietyRegular, kiteconnect.OrderParams{
		Exchange:        idx.Segment,
		Tradingsymbol:   symbol,
		Product:         kiteconnect.ProductMIS,
		OrderType:       kiteconnect.OrderTypeMarket,
		TransactionType: kiteconnect.TransactionTypeSell,
		Quantity:        pos.Qty,
		Validity:        kiteconnect.ValidityDay,
		Tag:             pos.TradeID,
	})
	if err != nil {
		return types.OrderResp{}, fmt.Errorf("close order %s: %w", symbol, err)
	}

	fill := z.lastPrice(ctx, idx.Segment, symbol)
	if fill <= 0 {
		fill = ltp
	}
	return types.OrderResp{OrderID: resp.OrderID, FillPrice: fill, Status: "COMPLETE"}, nil
}

func (z *Zerodha) lastPrice(ctx context.Context, exchange, symbol string) float64 {
	quotes, err := z.kc.GetLTP(exchange + ":" + symbol)
	if err != nil {
		logger.Warn(ctx, "LTP lookup failed", "symbol", symbol, "error", err.Error())
		return 0
	}
	if q, ok := quotes[exchange+":"+symbol]; ok {
		return q.LastPrice
	}
	return 0
}

// Tradingsymbol builds the NSE/BSE option symbol for an expiry. Monthly
// contracts use YYMMM (NIFTY25AUG24500CE); weekly contracts use the
// compact YYMDD form where October-December become O, N, D
// (NIFTY2582622500CE).
func Tradingsymbol(idx market.Index, expiry string, strike int, leg types.Leg) (string, error) {
	d, err := time.ParseInLocation("2006-01-02", expiry, market.IST)
	if err != nil {
		return "", fmt.Errorf("invalid expiry '%s': %w", expiry, err)
	}

	var code string
	if idx.Rule == market.ExpiryMonthlyLast {
		code = d.Format("06") + strings.ToUpper(d.Format("Jan"))
	} else {
		m := fmt.Sprintf("%d", int(d.Month()))
		switch d.Month() {
		case time.October:
			m = "O"
		case time.November:
			m = "N"
		case time.December:
			m = "D"
		}
		code = fmt.Sprintf("%s%s%02d", d.Format("06"), m, d.Day())
	}
	return fmt.Sprintf("%s%s%d%s", idx.Name, code, strike, leg), nil
}
