package domain

import "github.com/shopspring/decimal"

// CartItem хранит снимок полей товара на момент добавления в корзину.
// Последующие изменения товара на уже добавленные позиции не влияют.
type CartItem struct {
	ID       ProductID       `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	Quantity int             `json:"quantity"`
}

func NewCartItem(p Product) CartItem {
	return CartItem{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Image:    p.Image,
		Quantity: 1,
	}
}

// Cart: упорядоченный список позиций, не более одной позиции на товар.
type Cart []CartItem

// Count возвращает сумму количеств.
func (c Cart) Count() int {
	total := 0
	for _, item := range c {
		total += item.Quantity
	}
	return total
}

// Total возвращает сумму позиций по ценам на момент добавления.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// Index возвращает позицию товара в корзине или -1.
func (c Cart) Index(id ProductID) int {
	for i, item := range c {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// Find возвращает позицию товара.
func (c Cart) Find(id ProductID) (*CartItem, bool) {
	if i := c.Index(id); i >= 0 {
		return &c[i], true
	}
	return nil, false
}

// Increment увеличивает количество позиции на 1. false, если позиции нет.
func (c Cart) Increment(id ProductID) bool {
	item, ok := c.Find(id)
	if ok {
		item.Quantity++
	}
	return ok
}

// Add увеличивает количество существующей позиции на 1 или добавляет новую.
func (c Cart) Add(p Product) Cart {
	if c.Increment(p.ID) {
		return c
	}
	return append(c, NewCartItem(p))
}

// Valid сообщает, соблюдены ли инварианты корзины.
func (c Cart) Valid() bool {
	seen := make(map[ProductID]struct{}, len(c))
	for _, item := range c {
		if item.ID == "" || item.Quantity < 1 {
			return false
		}
		if _, dup := seen[item.ID]; dup {
			return false
		}
		seen[item.ID] = struct{}{}
	}
	return true
}
