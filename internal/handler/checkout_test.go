package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/table-session-billing/internal/model"
	"github.com/iliyamo/table-session-billing/internal/pos"
	"github.com/iliyamo/table-session-billing/internal/queue"
)

type recordingCompleter struct {
	calls   int
	id      uint64
	receipt *string
	err     error
}

func (r *recordingCompleter) MarkCompleted(ctx context.Context, id uint64, receiptID *string) error {
	r.calls++
	r.id = id
	r.receipt = receiptID
	return r.err
}

type recordingArchiver struct {
	history    *model.CheckoutHistory
	items      []model.CheckoutOrderItem
	noms       []model.CheckoutNomination
	historyErr error
}

func (r *recordingArchiver) CreateHistory(ctx context.Context, h *model.CheckoutHistory) error {
	if r.historyErr != nil {
		return r.historyErr
	}
	r.history = h
	return nil
}

func (r *recordingArchiver) AddOrderItems(ctx context.Context, items []model.CheckoutOrderItem) error {
	r.items = items
	return nil
}

func (r *recordingArchiver) AddNominations(ctx context.Context, noms []model.CheckoutNomination) error {
	r.noms = noms
	return nil
}

func newFinisherFixture(posURL string) (*checkoutFinisher, *recordingCompleter, *recordingArchiver, *queue.CheckoutCompletedEvent) {
	completer := &recordingCompleter{}
	archiver := &recordingArchiver{}
	published := &queue.CheckoutCompletedEvent{}
	fin := &checkoutFinisher{
		posStore:  "pos-store-1",
		completer: completer,
		archiver:  archiver,
		publish: func(ctx context.Context, ev queue.CheckoutCompletedEvent) error {
			*published = ev
			return nil
		},
	}
	if posURL != "" {
		fin.pos = pos.New(pos.Config{
			BaseURL:      posURL,
			Mode:         pos.AuthStatic,
			ClientID:     "client",
			ClientSecret: "secret",
			ContractID:   "contract-1",
		}, nil)
	}
	return fin, completer, archiver, published
}

func finisherInput(historyID string) (*pos.Transaction, *model.CheckoutHistory, []model.CheckoutOrderItem, []model.CheckoutNomination, queue.CheckoutCompletedEvent) {
	tran := pos.BuildTransaction(pos.TransactionFacts{
		TableID:      3,
		TableName:    "A-1",
		Subtotal:     1364,
		Total:        1500,
		ChargeAmount: 1000,
		Items:        []pos.ItemFact{{ProductID: "77", ProductName: "Highball", UnitPrice: 500, Quantity: 1}},
	}, time.Now())
	history := &model.CheckoutHistory{HistoryID: historyID, CheckoutID: 12, StoreID: 1, SessionID: 5, TotalAmount: 1500}
	items := []model.CheckoutOrderItem{{HistoryID: historyID, ProductName: "Highball", UnitPrice: 500, Quantity: 1}}
	noms := []model.CheckoutNomination{{HistoryID: historyID, CastName: "Rin", Fee: 200}}
	event := queue.CheckoutCompletedEvent{CheckoutID: 12, HistoryID: historyID, TotalAmount: 1500}
	return tran, history, items, noms, event
}

// A rejected POS transaction must not disturb the rest of the
// post-commit sequence: the checkout still reaches COMPLETED with a
// null receipt, the archival copies are still written and the event is
// still published.
func TestCheckoutFinisherPosFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "provider unavailable", http.StatusInternalServerError)
	}))
	defer srv.Close()

	fin, completer, archiver, published := newFinisherFixture(srv.URL)
	tran, history, items, noms, event := finisherInput("hist-1")

	receipt, warnings := fin.run(context.Background(), 12, tran, history, items, noms, event)

	assert.Nil(t, receipt)
	assert.Equal(t, 1, completer.calls)
	assert.Equal(t, uint64(12), completer.id)
	assert.Nil(t, completer.receipt)

	require.NotNil(t, archiver.history)
	assert.Equal(t, "hist-1", archiver.history.HistoryID)
	require.Len(t, archiver.items, 1)
	require.Len(t, archiver.noms, 1)

	assert.Equal(t, uint64(12), published.CheckoutID)
	assert.Empty(t, published.PosReceiptID)
	assert.Contains(t, warnings, "pos sync failed")
	assert.NotContains(t, warnings, "archival failed")
}

func TestCheckoutFinisherPosSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"transactionHeadId":"777"}`)
	}))
	defer srv.Close()

	fin, completer, archiver, published := newFinisherFixture(srv.URL)
	tran, history, items, noms, event := finisherInput("hist-2")

	receipt, warnings := fin.run(context.Background(), 12, tran, history, items, noms, event)

	require.NotNil(t, receipt)
	assert.Equal(t, "777", *receipt)
	require.NotNil(t, completer.receipt)
	assert.Equal(t, "777", *completer.receipt)
	require.NotNil(t, archiver.history)
	assert.Equal(t, "777", published.PosReceiptID)
	assert.Empty(t, warnings)
}

// A store without POS sync skips the provider entirely but still
// completes, archives and publishes.
func TestCheckoutFinisherPosDisabled(t *testing.T) {
	fin, completer, archiver, published := newFinisherFixture("")
	_, history, items, noms, event := finisherInput("hist-3")

	receipt, warnings := fin.run(context.Background(), 12, nil, history, items, noms, event)

	assert.Nil(t, receipt)
	assert.Equal(t, 1, completer.calls)
	assert.Nil(t, completer.receipt)
	require.NotNil(t, archiver.history)
	assert.Equal(t, uint64(12), published.CheckoutID)
	assert.Empty(t, warnings)
}

// An archival failure is reported as a warning but never blocks the
// status update or the event.
func TestCheckoutFinisherArchivalFailure(t *testing.T) {
	fin, completer, archiver, published := newFinisherFixture("")
	archiver.historyErr = fmt.Errorf("history table unavailable")
	_, history, items, noms, event := finisherInput("hist-4")

	_, warnings := fin.run(context.Background(), 12, nil, history, items, noms, event)

	assert.Equal(t, 1, completer.calls)
	assert.Contains(t, warnings, "archival failed")
	assert.Equal(t, uint64(12), published.CheckoutID)
}
