package procurement

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/siteworks/backend/internal/domain/inventory"
	"github.com/siteworks/backend/internal/domain/procurement"
	"github.com/siteworks/backend/internal/domain/shared"
)

// In-memory repositories backing the service tests. Finds hand out deep
// copies and saves store deep copies, so mutations only land through Save,
// the way they would against a real database.

type fakeIndentRepo struct {
	indents map[uuid.UUID]procurement.Indent
}

func newFakeIndentRepo() *fakeIndentRepo {
	return &fakeIndentRepo{indents: make(map[uuid.UUID]procurement.Indent)}
}

func copyIndent(i procurement.Indent) procurement.Indent {
	i.Lines = append([]procurement.IndentLine(nil), i.Lines...)
	return i
}

func (r *fakeIndentRepo) FindByID(_ context.Context, id uuid.UUID) (*procurement.Indent, error) {
	i, ok := r.indents[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	c := copyIndent(i)
	return &c, nil
}

func (r *fakeIndentRepo) FindBySite(_ context.Context, siteID uuid.UUID, _ shared.Filter) (*shared.Paginated[procurement.Indent], error) {
	items := make([]procurement.Indent, 0)
	for _, i := range r.indents {
		if i.SiteID == siteID {
			items = append(items, copyIndent(i))
		}
	}
	page := shared.NewPaginated(items, int64(len(items)), 1, 20)
	return &page, nil
}

func (r *fakeIndentRepo) ListNumbers(_ context.Context) ([]string, error) {
	numbers := make([]string, 0, len(r.indents))
	for _, i := range r.indents {
		numbers = append(numbers, i.IndentNumber)
	}
	return numbers, nil
}

func (r *fakeIndentRepo) ExistsByNumber(_ context.Context, number string) (bool, error) {
	for _, i := range r.indents {
		if i.IndentNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeIndentRepo) Save(_ context.Context, indent *procurement.Indent) error {
	r.indents[indent.ID] = copyIndent(*indent)
	return nil
}

func (r *fakeIndentRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.indents, id)
	return nil
}

type fakeOrderRepo struct {
	orders map[uuid.UUID]procurement.PurchaseOrder
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]procurement.PurchaseOrder)}
}

func copyOrder(o procurement.PurchaseOrder) procurement.PurchaseOrder {
	o.Lines = append([]procurement.PurchaseOrderLine(nil), o.Lines...)
	return o
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*procurement.PurchaseOrder, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	c := copyOrder(o)
	return &c, nil
}

func (r *fakeOrderRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*procurement.PurchaseOrder, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeOrderRepo) FindBySite(_ context.Context, siteID uuid.UUID, _ shared.Filter) (*shared.Paginated[procurement.PurchaseOrder], error) {
	items := make([]procurement.PurchaseOrder, 0)
	for _, o := range r.orders {
		if o.SiteID == siteID {
			items = append(items, copyOrder(o))
		}
	}
	page := shared.NewPaginated(items, int64(len(items)), 1, 20)
	return &page, nil
}

func (r *fakeOrderRepo) ListNumbers(_ context.Context) ([]string, error) {
	numbers := make([]string, 0, len(r.orders))
	for _, o := range r.orders {
		numbers = append(numbers, o.OrderNumber)
	}
	return numbers, nil
}

func (r *fakeOrderRepo) ExistsByNumber(_ context.Context, number string) (bool, error) {
	for _, o := range r.orders {
		if o.OrderNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeOrderRepo) Save(_ context.Context, order *procurement.PurchaseOrder) error {
	r.orders[order.ID] = copyOrder(*order)
	return nil
}

func (r *fakeOrderRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.orders, id)
	return nil
}

type fakeChallanRepo struct {
	challans map[uuid.UUID]procurement.DeliveryChallan
}

func newFakeChallanRepo() *fakeChallanRepo {
	return &fakeChallanRepo{challans: make(map[uuid.UUID]procurement.DeliveryChallan)}
}

func copyChallan(c procurement.DeliveryChallan) procurement.DeliveryChallan {
	lines := make([]procurement.ChallanLine, len(c.Lines))
	for i, l := range c.Lines {
		l.Batches = append([]procurement.ChallanLineBatch(nil), l.Batches...)
		lines[i] = l
	}
	c.Lines = lines
	return c
}

func (r *fakeChallanRepo) FindByID(_ context.Context, id uuid.UUID) (*procurement.DeliveryChallan, error) {
	c, ok := r.challans[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := copyChallan(c)
	return &cp, nil
}

func (r *fakeChallanRepo) FindBySite(_ context.Context, siteID uuid.UUID, _ shared.Filter) (*shared.Paginated[procurement.DeliveryChallan], error) {
	items := make([]procurement.DeliveryChallan, 0)
	for _, c := range r.challans {
		if c.SiteID == siteID {
			items = append(items, copyChallan(c))
		}
	}
	page := shared.NewPaginated(items, int64(len(items)), 1, 20)
	return &page, nil
}

func (r *fakeChallanRepo) FindByOrder(_ context.Context, orderID uuid.UUID) ([]procurement.DeliveryChallan, error) {
	items := make([]procurement.DeliveryChallan, 0)
	for _, c := range r.challans {
		if c.PurchaseOrderID == orderID {
			items = append(items, copyChallan(c))
		}
	}
	return items, nil
}

func (r *fakeChallanRepo) ListNumbersBySite(_ context.Context, siteID uuid.UUID) ([]string, error) {
	numbers := make([]string, 0)
	for _, c := range r.challans {
		if c.SiteID == siteID {
			numbers = append(numbers, c.ChallanNumber)
		}
	}
	return numbers, nil
}

func (r *fakeChallanRepo) ExistsByNumber(_ context.Context, siteID uuid.UUID, number string) (bool, error) {
	for _, c := range r.challans {
		if c.SiteID == siteID && c.ChallanNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeChallanRepo) Save(_ context.Context, challan *procurement.DeliveryChallan) error {
	r.challans[challan.ID] = copyChallan(*challan)
	return nil
}

func (r *fakeChallanRepo) DeleteLines(_ context.Context, challanID uuid.UUID) error {
	c, ok := r.challans[challanID]
	if !ok {
		return nil
	}
	c.Lines = nil
	r.challans[challanID] = c
	return nil
}

func (r *fakeChallanRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.challans, id)
	return nil
}

func (r *fakeChallanRepo) SumLineQuantities(_ context.Context, siteID uuid.UUID, itemIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	wanted := make(map[uuid.UUID]bool, len(itemIDs))
	for _, id := range itemIDs {
		wanted[id] = true
	}
	totals := make(map[uuid.UUID]decimal.Decimal)
	for _, c := range r.challans {
		if c.SiteID != siteID {
			continue
		}
		for _, l := range c.Lines {
			if wanted[l.ItemID] {
				totals[l.ItemID] = totals[l.ItemID].Add(l.ReceivingQty)
			}
		}
	}
	return totals, nil
}

type fakeBalanceRepo struct {
	items   map[string]inventory.SiteItemBalance
	batches map[string]inventory.SiteItemBatchBalance
}

func newFakeBalanceRepo() *fakeBalanceRepo {
	return &fakeBalanceRepo{
		items:   make(map[string]inventory.SiteItemBalance),
		batches: make(map[string]inventory.SiteItemBatchBalance),
	}
}

func itemKey(siteID, itemID uuid.UUID) string {
	return siteID.String() + "|" + itemID.String()
}

func batchKey(siteID, itemID uuid.UUID, batchNumber string) string {
	return itemKey(siteID, itemID) + "|" + batchNumber
}

func (r *fakeBalanceRepo) Find(_ context.Context, siteID, itemID uuid.UUID) (*inventory.SiteItemBalance, error) {
	b, ok := r.items[itemKey(siteID, itemID)]
	if !ok {
		return nil, shared.ErrNotFound
	}
	c := b
	return &c, nil
}

func (r *fakeBalanceRepo) FindForUpdate(ctx context.Context, siteID, itemID uuid.UUID) (*inventory.SiteItemBalance, error) {
	return r.Find(ctx, siteID, itemID)
}

func (r *fakeBalanceRepo) FindByItems(_ context.Context, siteID uuid.UUID, itemIDs []uuid.UUID) ([]inventory.SiteItemBalance, error) {
	out := make([]inventory.SiteItemBalance, 0)
	for _, itemID := range itemIDs {
		if b, ok := r.items[itemKey(siteID, itemID)]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBalanceRepo) Save(_ context.Context, balance *inventory.SiteItemBalance) error {
	r.items[itemKey(balance.SiteID, balance.ItemID)] = *balance
	return nil
}

func (r *fakeBalanceRepo) FindBatch(_ context.Context, siteID, itemID uuid.UUID, batchNumber string) (*inventory.SiteItemBatchBalance, error) {
	b, ok := r.batches[batchKey(siteID, itemID, batchNumber)]
	if !ok {
		return nil, shared.ErrNotFound
	}
	c := b
	return &c, nil
}

func (r *fakeBalanceRepo) FindBatchForUpdate(ctx context.Context, siteID, itemID uuid.UUID, batchNumber string) (*inventory.SiteItemBatchBalance, error) {
	return r.FindBatch(ctx, siteID, itemID, batchNumber)
}

func (r *fakeBalanceRepo) FindBatchesByItem(_ context.Context, siteID, itemID uuid.UUID) ([]inventory.SiteItemBatchBalance, error) {
	out := make([]inventory.SiteItemBatchBalance, 0)
	prefix := itemKey(siteID, itemID)
	for key, b := range r.batches {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBalanceRepo) SaveBatch(_ context.Context, balance *inventory.SiteItemBatchBalance) error {
	r.batches[batchKey(balance.SiteID, balance.ItemID, balance.BatchNumber)] = *balance
	return nil
}

// fakeTxScope snapshots the fake repositories before running the function
// and restores them on error, mimicking a rolled-back transaction
type fakeTxScope struct {
	indents  *fakeIndentRepo
	orders   *fakeOrderRepo
	challans *fakeChallanRepo
	balances *fakeBalanceRepo
}

func newFakeTxScope() *fakeTxScope {
	return &fakeTxScope{
		indents:  newFakeIndentRepo(),
		orders:   newFakeOrderRepo(),
		challans: newFakeChallanRepo(),
		balances: newFakeBalanceRepo(),
	}
}

func (s *fakeTxScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	savedIndents := make(map[uuid.UUID]procurement.Indent, len(s.indents.indents))
	for k, v := range s.indents.indents {
		savedIndents[k] = v
	}
	savedOrders := make(map[uuid.UUID]procurement.PurchaseOrder, len(s.orders.orders))
	for k, v := range s.orders.orders {
		savedOrders[k] = v
	}
	savedChallans := make(map[uuid.UUID]procurement.DeliveryChallan, len(s.challans.challans))
	for k, v := range s.challans.challans {
		savedChallans[k] = v
	}
	savedItems := make(map[string]inventory.SiteItemBalance, len(s.balances.items))
	for k, v := range s.balances.items {
		savedItems[k] = v
	}
	savedBatches := make(map[string]inventory.SiteItemBatchBalance, len(s.balances.batches))
	for k, v := range s.balances.batches {
		savedBatches[k] = v
	}

	if err := fn(s); err != nil {
		s.indents.indents = savedIndents
		s.orders.orders = savedOrders
		s.challans.challans = savedChallans
		s.balances.items = savedItems
		s.balances.batches = savedBatches
		return err
	}
	return nil
}

func (s *fakeTxScope) IndentRepo() procurement.IndentRepository       { return s.indents }
func (s *fakeTxScope) OrderRepo() procurement.PurchaseOrderRepository { return s.orders }
func (s *fakeTxScope) ChallanRepo() procurement.ChallanRepository     { return s.challans }
func (s *fakeTxScope) BalanceRepo() inventory.BalanceRepository       { return s.balances }

var _ TransactionScope = (*fakeTxScope)(nil)
var _ TransactionalRepositories = (*fakeTxScope)(nil)
