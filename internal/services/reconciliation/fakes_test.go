package reconciliation

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edoburu/docdata-reconciler/internal/domain"
	"github.com/edoburu/docdata-reconciler/internal/domain/ports"
)

// fakeDB runs the transaction callbacks directly; the fake repositories
// ignore the tx handle.
type fakeDB struct{}

func (fakeDB) GetDB() *pgxpool.Pool { return nil }

func (fakeDB) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	return fn(ctx, nil)
}

func (fakeDB) WithReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	return fn(ctx, nil)
}

type fakeOrderRepo struct {
	byKey   map[string]*domain.Order
	nextID  int64
	creates int
	updates int
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{byKey: make(map[string]*domain.Order)}
}

func (f *fakeOrderRepo) add(order *domain.Order) {
	cp := *order
	if cp.ID == 0 {
		f.nextID++
		cp.ID = f.nextID
	}
	f.byKey[cp.OrderKey] = &cp
}

func (f *fakeOrderRepo) Create(ctx context.Context, tx ports.DBTX, order *domain.Order) error {
	f.creates++
	f.nextID++
	order.ID = f.nextID
	f.add(order)
	return nil
}

func (f *fakeOrderRepo) GetByKeyForUpdate(ctx context.Context, tx ports.DBTX, orderKey string) (*domain.Order, error) {
	stored, ok := f.byKey[orderKey]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	cp := *stored
	return &cp, nil
}

func (f *fakeOrderRepo) GetByMerchantOrderID(ctx context.Context, tx ports.DBTX, merchantOrderID string) (*domain.Order, error) {
	for _, stored := range f.byKey {
		if stored.MerchantOrderID == merchantOrderID {
			cp := *stored
			return &cp, nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

func (f *fakeOrderRepo) Update(ctx context.Context, tx ports.DBTX, order *domain.Order) error {
	if _, ok := f.byKey[order.OrderKey]; !ok {
		return domain.ErrOrderNotFound
	}
	f.updates++
	cp := *order
	f.byKey[order.OrderKey] = &cp
	return nil
}

type fakeLineRepo struct {
	byPaymentID map[int64]*domain.PaymentLine
	nextID      int64
	inserts     int
	updates     int

	// raceLine simulates a concurrent pass winning the insert: the next
	// Insert stores this row instead and reports a duplicate.
	raceLine *domain.PaymentLine
}

func newFakeLineRepo() *fakeLineRepo {
	return &fakeLineRepo{byPaymentID: make(map[int64]*domain.PaymentLine)}
}

func (f *fakeLineRepo) GetByPaymentIDForUpdate(ctx context.Context, tx ports.DBTX, paymentID int64) (*domain.PaymentLine, error) {
	stored, ok := f.byPaymentID[paymentID]
	if !ok {
		return nil, domain.ErrPaymentLineNotFound
	}
	cp := *stored
	return &cp, nil
}

func (f *fakeLineRepo) Insert(ctx context.Context, tx ports.DBTX, line *domain.PaymentLine) error {
	if f.raceLine != nil {
		cp := *f.raceLine
		f.nextID++
		cp.ID = f.nextID
		f.byPaymentID[cp.PaymentID] = &cp
		f.raceLine = nil
		return domain.ErrDuplicatePaymentLine
	}
	if _, ok := f.byPaymentID[line.PaymentID]; ok {
		return domain.ErrDuplicatePaymentLine
	}
	f.inserts++
	f.nextID++
	line.ID = f.nextID
	cp := *line
	f.byPaymentID[line.PaymentID] = &cp
	return nil
}

func (f *fakeLineRepo) Update(ctx context.Context, tx ports.DBTX, line *domain.PaymentLine) error {
	stored, ok := f.byPaymentID[line.PaymentID]
	if !ok || stored.ID != line.ID {
		return domain.ErrPaymentLineNotFound
	}
	f.updates++
	cp := *line
	f.byPaymentID[line.PaymentID] = &cp
	return nil
}

type fakeGateway struct {
	merchant string

	createResult *ports.CreateResult
	startResult  *ports.StartResult
	report       *domain.StatusReport

	createErr error
	startErr  error
	cancelErr error
	statusErr error

	cancelled []string
}

func (f *fakeGateway) MerchantName() string { return f.merchant }

func (f *fakeGateway) Create(ctx context.Context, args ports.CreateOrderArgs) (*ports.CreateResult, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createResult, nil
}

func (f *fakeGateway) Start(ctx context.Context, orderKey, paymentMethod string) (*ports.StartResult, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	return f.startResult, nil
}

func (f *fakeGateway) Cancel(ctx context.Context, orderKey string) error {
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.cancelled = append(f.cancelled, orderKey)
	return nil
}

func (f *fakeGateway) Status(ctx context.Context, orderKey string) (*domain.StatusReport, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return f.report, nil
}
