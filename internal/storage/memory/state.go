package memory

import (
	"sort"
	"time"

	"github.com/vladislavdragonenkov/crm/internal/domain"
)

type customerRow struct {
	seq      uint64
	customer domain.Customer
}

type productRow struct {
	seq     uint64
	product domain.Product
}

type orderRow struct {
	seq   uint64
	order domain.Order
}

// outboxRecord хранит сообщение и служебные поля для in-memory реализации.
type outboxRecord struct {
	seq        uint64
	msg        domain.OutboxMessage
	status     string
	attemptCnt int
	createdAt  time.Time
	updatedAt  time.Time
}

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"
	outboxStatusFailed  = "failed"
)

// state — данные хранилища и журнал отката активной транзакции.
// Все методы вызываются под блокировкой Store.mu.
type state struct {
	seq       uint64
	customers map[string]customerRow
	emails    map[string]string
	products  map[string]productRow
	orders    map[string]orderRow
	outbox    map[string]*outboxRecord

	journaling bool
	journal    []func()
}

func newState() *state {
	return &state{
		customers: make(map[string]customerRow),
		emails:    make(map[string]string),
		products:  make(map[string]productRow),
		orders:    make(map[string]orderRow),
		outbox:    make(map[string]*outboxRecord),
	}
}

func (st *state) nextSeq() uint64 {
	st.seq++
	return st.seq
}

func (st *state) beginJournal() {
	st.journaling = true
	st.journal = st.journal[:0]
}

func (st *state) endJournal() {
	st.journaling = false
	st.journal = nil
}

func (st *state) journalMark() int {
	return len(st.journal)
}

// record запоминает операцию отката, если идёт транзакция.
func (st *state) record(undo func()) {
	if st.journaling {
		st.journal = append(st.journal, undo)
	}
}

// rollbackTo применяет откаты в обратном порядке до позиции mark.
func (st *state) rollbackTo(mark int) {
	for i := len(st.journal) - 1; i >= mark; i-- {
		st.journal[i]()
	}
	st.journal = st.journal[:mark]
}

func (st *state) putCustomer(row customerRow) {
	st.customers[row.customer.ID] = row
	st.emails[row.customer.Email] = row.customer.ID
}

func (st *state) dropCustomer(id string) {
	row, ok := st.customers[id]
	if !ok {
		return
	}
	delete(st.customers, id)
	if st.emails[row.customer.Email] == id {
		delete(st.emails, row.customer.Email)
	}
}

func (st *state) insertCustomer(customer domain.Customer) error {
	if _, exists := st.customers[customer.ID]; exists {
		return domain.ErrRecordConflict
	}
	if _, taken := st.emails[customer.Email]; taken {
		return domain.ErrEmailAlreadyExists
	}

	st.putCustomer(customerRow{seq: st.nextSeq(), customer: customer})
	st.record(func() { st.dropCustomer(customer.ID) })
	return nil
}

// deleteCustomer удаляет клиента и каскадно все его заказы.
func (st *state) deleteCustomer(id string) error {
	row, ok := st.customers[id]
	if !ok {
		return domain.ErrCustomerNotFound
	}

	for orderID, orow := range st.orders {
		if orow.order.CustomerID == id {
			st.deleteOrderRow(orderID, orow)
		}
	}

	st.dropCustomer(id)
	st.record(func() { st.putCustomer(row) })
	return nil
}

func (st *state) insertProduct(product domain.Product) error {
	if _, exists := st.products[product.ID]; exists {
		return domain.ErrRecordConflict
	}

	st.products[product.ID] = productRow{seq: st.nextSeq(), product: product}
	st.record(func() { delete(st.products, product.ID) })
	return nil
}

func (st *state) updateStock(id string, stock int) error {
	row, ok := st.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}

	prev := row
	row.product.Stock = stock
	st.products[id] = row
	st.record(func() { st.products[id] = prev })
	return nil
}

// deleteProduct удаляет товар и его связи с заказами. TotalAmount заказов не трогаем.
func (st *state) deleteProduct(id string) error {
	row, ok := st.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}

	for orderID, orow := range st.orders {
		if !orow.order.HasProduct(id) {
			continue
		}
		prev := orow
		remaining := make([]string, 0, len(orow.order.ProductIDs)-1)
		for _, pid := range orow.order.ProductIDs {
			if pid != id {
				remaining = append(remaining, pid)
			}
		}
		orow.order.ProductIDs = remaining
		st.orders[orderID] = orow
		st.record(func() { st.orders[orderID] = prev })
	}

	delete(st.products, id)
	st.record(func() { st.products[id] = row })
	return nil
}

func (st *state) insertOrder(order domain.Order) error {
	if _, exists := st.orders[order.ID]; exists {
		return domain.ErrRecordConflict
	}
	if _, ok := st.customers[order.CustomerID]; !ok {
		return domain.ErrCustomerNotFound
	}
	for _, pid := range order.ProductIDs {
		if _, ok := st.products[pid]; !ok {
			return domain.ErrProductNotFound
		}
	}

	order.ProductIDs = append([]string(nil), order.ProductIDs...)
	st.orders[order.ID] = orderRow{seq: st.nextSeq(), order: order}
	st.record(func() { delete(st.orders, order.ID) })
	return nil
}

func (st *state) deleteOrder(id string) error {
	row, ok := st.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	st.deleteOrderRow(id, row)
	return nil
}

func (st *state) deleteOrderRow(id string, row orderRow) {
	delete(st.orders, id)
	st.record(func() { st.orders[id] = row })
}

func (st *state) insertOutbox(rec *outboxRecord) {
	rec.seq = st.nextSeq()
	st.outbox[rec.msg.ID] = rec
	st.record(func() { delete(st.outbox, rec.msg.ID) })
}

func (st *state) setOutboxStatus(id, status string, now time.Time) error {
	rec, ok := st.outbox[id]
	if !ok {
		return domain.ErrOutboxPublish
	}

	prev := *rec
	rec.status = status
	rec.attemptCnt++
	rec.updatedAt = now
	st.record(func() { *rec = prev })
	return nil
}

// sortedCustomers возвращает строки в порядке вставки.
func (st *state) sortedCustomers() []customerRow {
	rows := make([]customerRow, 0, len(st.customers))
	for _, row := range st.customers {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	return rows
}

func (st *state) sortedProducts() []productRow {
	rows := make([]productRow, 0, len(st.products))
	for _, row := range st.products {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	return rows
}

func (st *state) sortedOrders() []orderRow {
	rows := make([]orderRow, 0, len(st.orders))
	for _, row := range st.orders {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	return rows
}
