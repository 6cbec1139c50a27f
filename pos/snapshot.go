package pos

// =============================================================================
// SNAPSHOT - Complete state at a point in time
// =============================================================================

// Snapshot is the whole store: catalog, partners, staff and the ledger.
// Transactions are ordered newest first.
//
// Snapshot values are treated as immutable by the ledger engine: every
// operation returns a new Snapshot and leaves its input untouched. The
// helpers below follow the same rule.
type Snapshot struct {
	Products     []Product     `json:"products"`
	Partners     []Partner     `json:"partners"`
	Employees    []Employee    `json:"employees"`
	Transactions []Transaction `json:"transactions"`
}

// EmptySnapshot is the default state of a brand new store.
func EmptySnapshot() Snapshot {
	return Snapshot{
		Products:     []Product{},
		Partners:     []Partner{},
		Employees:    []Employee{},
		Transactions: []Transaction{},
	}
}

// Clone deep-copies s. Nil slices come back empty so the clone always
// serializes as arrays.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Products:     append(make([]Product, 0, len(s.Products)), s.Products...),
		Partners:     append(make([]Partner, 0, len(s.Partners)), s.Partners...),
		Employees:    append(make([]Employee, 0, len(s.Employees)), s.Employees...),
		Transactions: make([]Transaction, len(s.Transactions)),
	}
	for i, tx := range s.Transactions {
		out.Transactions[i] = tx.Clone()
	}
	return out
}

// ProductIndex maps product id to its position in s.Products.
func (s Snapshot) ProductIndex() map[ProductID]int {
	idx := make(map[ProductID]int, len(s.Products))
	for i, p := range s.Products {
		idx[p.ID] = i
	}
	return idx
}

// PartnerIndex maps partner id to its position in s.Partners.
func (s Snapshot) PartnerIndex() map[PartnerID]int {
	idx := make(map[PartnerID]int, len(s.Partners))
	for i, p := range s.Partners {
		idx[p.ID] = i
	}
	return idx
}

// FindTransaction returns the position of the transaction with the given id.
func (s Snapshot) FindTransaction(id TransactionID) (int, bool) {
	for i, tx := range s.Transactions {
		if tx.ID == id {
			return i, true
		}
	}
	return -1, false
}

func (s Snapshot) Product(id ProductID) (Product, bool) {
	for _, p := range s.Products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

func (s Snapshot) Partner(id PartnerID) (Partner, bool) {
	for _, p := range s.Partners {
		if p.ID == id {
			return p, true
		}
	}
	return Partner{}, false
}

func (s Snapshot) Employee(id EmployeeID) (Employee, bool) {
	for _, e := range s.Employees {
		if e.ID == id {
			return e, true
		}
	}
	return Employee{}, false
}

// LowStock returns products at or below their reorder threshold.
func (s Snapshot) LowStock() []Product {
	out := []Product{}
	for _, p := range s.Products {
		if p.NeedsReorder() {
			out = append(out, p)
		}
	}
	return out
}

// =============================================================================
// CATALOG HELPERS - Direct edits outside the ledger
// =============================================================================
// These back the inventory, partner and staff screens. They never touch the
// ledger: removing a product or partner leaves historical transactions
// pointing at a missing id, which the engine tolerates.

// PutProduct inserts p, or replaces the product with the same id in place.
func (s Snapshot) PutProduct(p Product) Snapshot {
	out := s.Clone()
	for i := range out.Products {
		if out.Products[i].ID == p.ID {
			out.Products[i] = p
			return out
		}
	}
	out.Products = append(out.Products, p)
	return out
}

func (s Snapshot) RemoveProduct(id ProductID) (Snapshot, error) {
	out := s.Clone()
	for i := range out.Products {
		if out.Products[i].ID == id {
			out.Products = append(out.Products[:i], out.Products[i+1:]...)
			return out, nil
		}
	}
	return s, ErrProductNotFound
}

// PutPartner inserts p, or replaces the partner with the same id in place.
// The stored balance is kept on replace: balances only move through the ledger.
func (s Snapshot) PutPartner(p Partner) Snapshot {
	out := s.Clone()
	for i := range out.Partners {
		if out.Partners[i].ID == p.ID {
			p.Balance = out.Partners[i].Balance
			out.Partners[i] = p
			return out
		}
	}
	out.Partners = append(out.Partners, p)
	return out
}

func (s Snapshot) RemovePartner(id PartnerID) (Snapshot, error) {
	out := s.Clone()
	for i := range out.Partners {
		if out.Partners[i].ID == id {
			out.Partners = append(out.Partners[:i], out.Partners[i+1:]...)
			return out, nil
		}
	}
	return s, ErrPartnerNotFound
}

func (s Snapshot) PutEmployee(e Employee) Snapshot {
	out := s.Clone()
	for i := range out.Employees {
		if out.Employees[i].ID == e.ID {
			out.Employees[i] = e
			return out
		}
	}
	out.Employees = append(out.Employees, e)
	return out
}

func (s Snapshot) RemoveEmployee(id EmployeeID) (Snapshot, error) {
	out := s.Clone()
	for i := range out.Employees {
		if out.Employees[i].ID == id {
			out.Employees = append(out.Employees[:i], out.Employees[i+1:]...)
			return out, nil
		}
	}
	return s, ErrEmployeeNotFound
}
