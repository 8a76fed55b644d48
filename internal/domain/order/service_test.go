package order

import (
	"context"
	"sync"
	"testing"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/pra-pos/internal/domain/item"
)

// --- Mock implementations ---

type mockOrderRepo struct {
	mu     sync.Mutex
	byID   map[uuid.UUID]*Order
	getErr error
	updErr error

	finalized   int
	finalizeErr error
}

func newOrderRepo(orders ...*Order) *mockOrderRepo {
	byID := make(map[uuid.UUID]*Order, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
	}
	return &mockOrderRepo{byID: byID}
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.byID == nil {
		m.byID = make(map[uuid.UUID]*Order)
	}
	m.byID[o.ID] = o
	return m.updErr
}

func (m *mockOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	o, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	// Return a copy so tests can compare against the stored state.
	cp := *o
	cp.Lines = append([]Line(nil), o.Lines...)
	return &cp, nil
}

func (m *mockOrderRepo) List(_ context.Context, _ Status) ([]Order, error) {
	return nil, nil
}

func (m *mockOrderRepo) Update(_ context.Context, o *Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updErr != nil {
		return m.updErr
	}
	m.byID[o.ID] = o
	return nil
}

func (m *mockOrderRepo) SaveLine(_ context.Context, _ uuid.UUID, _ *Line) error {
	return nil
}

func (m *mockOrderRepo) DeleteLine(_ context.Context, _, _ uuid.UUID) error {
	return nil
}

func (m *mockOrderRepo) FinalizeCheckout(_ context.Context, o *Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.finalizeErr != nil {
		return m.finalizeErr
	}
	if m.byID[o.ID].Status != StatusDraft {
		return &InvalidStateError{Reason: "order is no longer DRAFT"}
	}
	m.finalized++
	m.byID[o.ID] = o
	return nil
}

type mockItemRepo struct {
	byID map[uuid.UUID]*item.Item
}

func newItemRepo(items ...item.Item) *mockItemRepo {
	byID := make(map[uuid.UUID]*item.Item, len(items))
	for i := range items {
		byID[items[i].ID] = &items[i]
	}
	return &mockItemRepo{byID: byID}
}

func (m *mockItemRepo) List(_ context.Context, _ bool) ([]item.Item, error) {
	return nil, nil
}

func (m *mockItemRepo) GetByID(_ context.Context, id uuid.UUID) (*item.Item, error) {
	it, ok := m.byID[id]
	if !ok {
		return nil, item.ErrNotFound
	}
	return it, nil
}

func (m *mockItemRepo) Create(_ context.Context, _ *item.Item) error { return nil }
func (m *mockItemRepo) Update(_ context.Context, _ *item.Item) error { return nil }

type mockFiscalizer struct {
	result *FiscalResult
	err    error
	calls  int
}

func (m *mockFiscalizer) Fiscalize(_ context.Context, _ *Order) (*FiscalResult, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// --- Helpers ---

func newTestItem(name, price string) item.Item {
	return item.Item{
		ID:       uuid.New(),
		Name:     name,
		Price:    dec(price),
		ItemCode: "CODE-" + name,
		PCTCode:  "98211000",
		IsActive: true,
	}
}

func okFiscalizer() *mockFiscalizer {
	return &mockFiscalizer{result: &FiscalResult{
		Success:             true,
		FiscalInvoiceNumber: "FISC-1234567890",
		QRText:              "PRA|FISC-1234567890|INV-1",
		VerificationURL:     "https://verify/FISC-1234567890",
	}}
}

func draftOrder(lines ...Line) *Order {
	return &Order{
		ID:            uuid.New(),
		InvoiceNumber: "INV-20260901-ABCD1234",
		Status:        StatusDraft,
		PaymentMode:   PaymentCash,
		Lines:         lines,
	}
}

// --- Tests ---

func TestCreate(t *testing.T) {
	repo := newOrderRepo()
	svc := NewService(repo, newItemRepo(), okFiscalizer(), testRates)

	o, err := svc.Create(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StatusDraft, o.Status)
	assert.Equal(t, PaymentCash, o.PaymentMode)
	assert.Regexp(t, `^INV-\d{8}-[0-9A-F]{8}$`, o.InvoiceNumber)
	assertDecimal(t, "0", o.Total)
}

func TestAddOrUpdateLine(t *testing.T) {
	it := newTestItem("Espresso", "2.50")
	o := draftOrder()
	repo := newOrderRepo(o)
	svc := NewService(repo, newItemRepo(it), okFiscalizer(), testRates)

	got, err := svc.AddOrUpdateLine(context.Background(), o.ID, it.ID, 2)
	require.NoError(t, err)

	require.Len(t, got.Lines, 1)
	assertDecimal(t, "5.00", got.Lines[0].LineTotal)
	assertDecimal(t, "5.00", got.Subtotal)
	assertDecimal(t, "0.80", got.Tax)
	assertDecimal(t, "5.80", got.Total)

	// Same item again replaces the line instead of duplicating it.
	got, err = svc.AddOrUpdateLine(context.Background(), o.ID, it.ID, 3)
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, 3, got.Lines[0].Quantity)
	assertDecimal(t, "7.50", got.Subtotal)
}

func TestAddOrUpdateLine_InvalidQuantity(t *testing.T) {
	it := newTestItem("Espresso", "2.50")
	o := draftOrder()
	svc := NewService(newOrderRepo(o), newItemRepo(it), okFiscalizer(), testRates)

	_, err := svc.AddOrUpdateLine(context.Background(), o.ID, it.ID, 0)

	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)
}

func TestAddOrUpdateLine_ItemNotFound(t *testing.T) {
	o := draftOrder()
	svc := NewService(newOrderRepo(o), newItemRepo(), okFiscalizer(), testRates)

	_, err := svc.AddOrUpdateLine(context.Background(), o.ID, uuid.New(), 1)
	require.ErrorIs(t, err, item.ErrNotFound)
}

func TestAddOrUpdateLine_NotDraft(t *testing.T) {
	it := newTestItem("Espresso", "2.50")
	o := draftOrder()
	o.Status = StatusPaid
	svc := NewService(newOrderRepo(o), newItemRepo(it), okFiscalizer(), testRates)

	_, err := svc.AddOrUpdateLine(context.Background(), o.ID, it.ID, 1)

	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)
}

func TestRemoveLine(t *testing.T) {
	it := newTestItem("Espresso", "2.50")
	o := draftOrder(Line{
		ID:        uuid.New(),
		ItemID:    it.ID,
		Quantity:  2,
		UnitPrice: it.Price,
		LineTotal: dec("5.00"),
	})
	svc := NewService(newOrderRepo(o), newItemRepo(it), okFiscalizer(), testRates)

	got, err := svc.RemoveLine(context.Background(), o.ID, it.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Lines)
	assertDecimal(t, "0", got.Total)
}

func TestRemoveLine_LineNotFound(t *testing.T) {
	o := draftOrder()
	svc := NewService(newOrderRepo(o), newItemRepo(), okFiscalizer(), testRates)

	_, err := svc.RemoveLine(context.Background(), o.ID, uuid.New())
	require.ErrorIs(t, err, ErrLineNotFound)
}

func TestUpdate_NegativeDiscount(t *testing.T) {
	o := draftOrder()
	svc := NewService(newOrderRepo(o), newItemRepo(), okFiscalizer(), testRates)

	neg := dec("-1.00")
	_, err := svc.Update(context.Background(), o.ID, Patch{Discount: &neg})

	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Contains(t, stateErr.Reason, "negative")
}

func TestUpdate_PaymentModeOnlyInDraft(t *testing.T) {
	o := draftOrder()
	o.Status = StatusPaid
	svc := NewService(newOrderRepo(o), newItemRepo(), okFiscalizer(), testRates)

	card := PaymentCard
	_, err := svc.Update(context.Background(), o.ID, Patch{PaymentMode: &card})

	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)
}

func TestUpdate_RecomputesTotals(t *testing.T) {
	o := draftOrder(Line{ID: uuid.New(), ItemID: uuid.New(), Quantity: 1, LineTotal: dec("40.00")})
	svc := NewService(newOrderRepo(o), newItemRepo(), okFiscalizer(), testRates)

	discount := dec("4.00")
	got, err := svc.Update(context.Background(), o.ID, Patch{Discount: &discount})
	require.NoError(t, err)

	assertDecimal(t, "40.00", got.Subtotal)
	assertDecimal(t, "5.76", got.Tax)
	assertDecimal(t, "41.76", got.Total)
}

func TestCancel(t *testing.T) {
	o := draftOrder()
	svc := NewService(newOrderRepo(o), newItemRepo(), okFiscalizer(), testRates)

	got, err := svc.Cancel(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)

	// Terminal: a second cancel is rejected.
	_, err = svc.Cancel(context.Background(), o.ID)
	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)
}

func TestCheckout(t *testing.T) {
	o := draftOrder(Line{ID: uuid.New(), ItemID: uuid.New(), Quantity: 1, LineTotal: dec("10.00")})
	repo := newOrderRepo(o)
	fisc := okFiscalizer()
	svc := NewService(repo, newItemRepo(), fisc, testRates)

	got, err := svc.Checkout(context.Background(), o.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusPaid, got.Status)
	assert.Equal(t, "FISC-1234567890", got.FiscalInvoiceNumber)
	assert.NotEmpty(t, got.FiscalQRText)
	assert.NotEmpty(t, got.FiscalVerificationURL)
	assertDecimal(t, "11.60", got.Total)
	assert.Equal(t, 1, fisc.calls)
	assert.Equal(t, 1, repo.finalized)
}

func TestCheckout_EmptyOrder(t *testing.T) {
	o := draftOrder()
	svc := NewService(newOrderRepo(o), newItemRepo(), okFiscalizer(), testRates)

	_, err := svc.Checkout(context.Background(), o.ID)

	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Contains(t, stateErr.Reason, "empty")
}

func TestCheckout_NotDraft(t *testing.T) {
	o := draftOrder(Line{ID: uuid.New(), ItemID: uuid.New(), Quantity: 1, LineTotal: dec("10.00")})
	o.Status = StatusPaid
	svc := NewService(newOrderRepo(o), newItemRepo(), okFiscalizer(), testRates)

	_, err := svc.Checkout(context.Background(), o.ID)

	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)
}

func TestCheckout_FiscalizationErrorKeepsDraft(t *testing.T) {
	o := draftOrder(Line{ID: uuid.New(), ItemID: uuid.New(), Quantity: 1, LineTotal: dec("10.00")})
	repo := newOrderRepo(o)
	fisc := &mockFiscalizer{err: errors.New("PRA API unavailable")}
	svc := NewService(repo, newItemRepo(), fisc, testRates)

	_, err := svc.Checkout(context.Background(), o.ID)
	require.Error(t, err)

	stored, getErr := repo.GetByID(context.Background(), o.ID)
	require.NoError(t, getErr)
	assert.Equal(t, StatusDraft, stored.Status)
	assert.Empty(t, stored.FiscalInvoiceNumber)
	assert.Equal(t, 0, repo.finalized)
}

func TestCheckout_RetryAfterFailureSucceeds(t *testing.T) {
	o := draftOrder(Line{ID: uuid.New(), ItemID: uuid.New(), Quantity: 1, LineTotal: dec("10.00")})
	repo := newOrderRepo(o)
	fisc := &mockFiscalizer{err: errors.New("PRA API unavailable")}
	svc := NewService(repo, newItemRepo(), fisc, testRates)

	_, err := svc.Checkout(context.Background(), o.ID)
	require.Error(t, err)

	fisc.err = nil
	fisc.result = okFiscalizer().result

	got, err := svc.Checkout(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, got.Status)
}

func TestCheckout_NoFiscalNumberStillPays(t *testing.T) {
	o := draftOrder(Line{ID: uuid.New(), ItemID: uuid.New(), Quantity: 1, LineTotal: dec("10.00")})
	repo := newOrderRepo(o)
	fisc := &mockFiscalizer{result: &FiscalResult{
		Success: false,
		Message: "API token not configured",
	}}
	svc := NewService(repo, newItemRepo(), fisc, testRates)

	got, err := svc.Checkout(context.Background(), o.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusPaid, got.Status)
	assert.Empty(t, got.FiscalInvoiceNumber)
	assert.Empty(t, got.FiscalQRText)
}

func TestCheckout_ConcurrentSingleFinalize(t *testing.T) {
	o := draftOrder(Line{ID: uuid.New(), ItemID: uuid.New(), Quantity: 1, LineTotal: dec("10.00")})
	repo := newOrderRepo(o)
	svc := NewService(repo, newItemRepo(), okFiscalizer(), testRates)

	const n = 8
	var (
		wg        sync.WaitGroup
		successMu sync.Mutex
		successes int
	)
	wg.Add(n)
	for range n {
		go func() {
			defer wg.Done()
			if _, err := svc.Checkout(context.Background(), o.ID); err == nil {
				successMu.Lock()
				successes++
				successMu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, repo.finalized)
}

func TestCheckout_ReleasesOrderLock(t *testing.T) {
	o := draftOrder(Line{ID: uuid.New(), ItemID: uuid.New(), Quantity: 1, LineTotal: dec("10.00")})
	svc := NewService(newOrderRepo(o), newItemRepo(), okFiscalizer(), testRates)

	_, err := svc.Checkout(context.Background(), o.ID)
	require.NoError(t, err)

	_, held := svc.checkoutMu.Load(o.ID)
	assert.False(t, held, "lock entry should be dropped once the order is PAID")
}

func TestCancel_ReleasesOrderLock(t *testing.T) {
	o := draftOrder(Line{ID: uuid.New(), ItemID: uuid.New(), Quantity: 1, LineTotal: dec("10.00")})
	fisc := &mockFiscalizer{err: errors.New("PRA API unavailable")}
	svc := NewService(newOrderRepo(o), newItemRepo(), fisc, testRates)

	// A failed checkout leaves the order DRAFT with a lock entry behind.
	_, err := svc.Checkout(context.Background(), o.ID)
	require.Error(t, err)
	_, held := svc.checkoutMu.Load(o.ID)
	require.True(t, held)

	_, err = svc.Cancel(context.Background(), o.ID)
	require.NoError(t, err)

	_, held = svc.checkoutMu.Load(o.ID)
	assert.False(t, held, "lock entry should be dropped once the order is CANCELLED")
}
