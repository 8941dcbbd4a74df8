package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	ierr "github.com/qripge/qrip-backend/internal/errors"
	"github.com/qripge/qrip-backend/internal/integration/bog"
)

// ChargeCall records one recurring charge issued against the fake
// gateway.
type ChargeCall struct {
	ChargeTargetID string
	Amount         decimal.Decimal
}

// FakePaymentGateway implements bog.Client. Charges succeed by
// default; FailCharges flips every subsequent charge to a decline.
type FakePaymentGateway struct {
	mu sync.Mutex

	failCharges bool
	orderSeq    int

	ChargeCalls   []ChargeCall
	CreatedOrders []string
	CardSaves     []string
	ReceiptStatus map[string]string
}

func NewFakePaymentGateway() *FakePaymentGateway {
	return &FakePaymentGateway{
		ReceiptStatus: make(map[string]string),
	}
}

// FailCharges makes every subsequent ChargeRecurring call decline.
func (g *FakePaymentGateway) FailCharges(fail bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failCharges = fail
}

func (g *FakePaymentGateway) CreateOrder(_ context.Context, amount decimal.Decimal, _, _ string) (*bog.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.orderSeq++
	orderID := fmt.Sprintf("order-%d", g.orderSeq)
	g.CreatedOrders = append(g.CreatedOrders, orderID)
	return &bog.Order{
		ID:          orderID,
		RedirectURL: "https://checkout.example/" + orderID,
	}, nil
}

func (g *FakePaymentGateway) RequestCardSave(_ context.Context, orderID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.CardSaves = append(g.CardSaves, orderID)
	return nil
}

func (g *FakePaymentGateway) ChargeRecurring(_ context.Context, chargeTargetID string, amount decimal.Decimal) (*bog.ChargeResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ChargeCalls = append(g.ChargeCalls, ChargeCall{
		ChargeTargetID: chargeTargetID,
		Amount:         amount,
	})
	if g.failCharges {
		return nil, ierr.NewError("card declined").
			WithHint("BOG rejected the request").
			Mark(ierr.ErrHTTPClient)
	}
	return &bog.ChargeResult{
		TransactionID: fmt.Sprintf("txn-%d", len(g.ChargeCalls)),
		ReceiptURL:    "https://receipts.example/" + chargeTargetID,
	}, nil
}

func (g *FakePaymentGateway) GetReceipt(_ context.Context, orderID string) (*bog.Receipt, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	status, ok := g.ReceiptStatus[orderID]
	if !ok {
		return nil, ierr.NewError("BOG resource not found").Mark(ierr.ErrNotFound)
	}
	return &bog.Receipt{OrderStatus: status}, nil
}

// ChargeCount reports how many recurring charges were attempted.
func (g *FakePaymentGateway) ChargeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.ChargeCalls)
}
