package domain

// StockUnit is the per product x size quantity counter. Mutated only inside
// the settlement transaction, never from request handlers directly.
type StockUnit struct {
	ProductID int64
	Size      string
	Quantity  int
	Active    bool
}
