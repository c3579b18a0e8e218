package lite

import (
	"time"

	"github.com/google/uuid"

	"food-marketplace/internal/models"
	"food-marketplace/internal/pricing"
)

type restaurantRecord struct {
	ID        uuid.UUID  `gorm:"primaryKey;type:text"`
	OwnerID   *uuid.UUID `gorm:"type:text;uniqueIndex"`
	Name      string     `gorm:"not null"`
	CreatedAt time.Time
}

func (restaurantRecord) TableName() string { return "restaurants" }

type dishRecord struct {
	ID           uuid.UUID     `gorm:"primaryKey;type:text"`
	RestaurantID uuid.UUID     `gorm:"type:text;index;not null"`
	Name         string        `gorm:"not null"`
	Price        pricing.Money `gorm:"type:text;not null"`
	IsAvailable  bool          `gorm:"not null"`
	CreatedAt    time.Time

	Restaurant *restaurantRecord `gorm:"foreignKey:RestaurantID;constraint:OnDelete:RESTRICT"`
}

func (dishRecord) TableName() string { return "dishes" }

func (r dishRecord) model() models.Dish {
	return models.Dish{
		ID:           r.ID,
		RestaurantID: r.RestaurantID,
		Name:         r.Name,
		Price:        r.Price,
		IsAvailable:  r.IsAvailable,
		CreatedAt:    r.CreatedAt,
	}
}

type cartRecord struct {
	ID         uuid.UUID `gorm:"primaryKey;type:text"`
	CustomerID uuid.UUID `gorm:"type:text;uniqueIndex;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (cartRecord) TableName() string { return "carts" }

type cartLineRecord struct {
	ID        uuid.UUID     `gorm:"primaryKey;type:text"`
	CartID    uuid.UUID     `gorm:"type:text;not null;uniqueIndex:idx_cart_dish"`
	DishID    uuid.UUID     `gorm:"type:text;not null;uniqueIndex:idx_cart_dish"`
	Quantity  int           `gorm:"not null;check:quantity >= 1 AND quantity <= 999"`
	Price     pricing.Money `gorm:"type:text;not null"`
	CreatedAt time.Time

	Cart *cartRecord `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	Dish *dishRecord `gorm:"foreignKey:DishID;constraint:OnDelete:RESTRICT"`
}

func (cartLineRecord) TableName() string { return "cart_lines" }

func (r cartLineRecord) model() models.CartLine {
	return models.CartLine{
		ID:        r.ID,
		CartID:    r.CartID,
		DishID:    r.DishID,
		Quantity:  r.Quantity,
		Price:     r.Price,
		CreatedAt: r.CreatedAt,
	}
}

type orderRecord struct {
	ID           uuid.UUID     `gorm:"primaryKey;type:text"`
	CustomerID   uuid.UUID     `gorm:"type:text;index;not null"`
	RestaurantID uuid.UUID     `gorm:"type:text;index;not null"`
	Status       string        `gorm:"not null"`
	TotalAmount  pricing.Money `gorm:"type:text;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Restaurant *restaurantRecord `gorm:"foreignKey:RestaurantID;constraint:OnDelete:RESTRICT"`
}

func (orderRecord) TableName() string { return "orders" }

func (r orderRecord) model() models.Order {
	return models.Order{
		ID:           r.ID,
		CustomerID:   r.CustomerID,
		RestaurantID: r.RestaurantID,
		Status:       models.OrderStatus(r.Status),
		TotalAmount:  r.TotalAmount,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type orderItemRecord struct {
	ID       uuid.UUID     `gorm:"primaryKey;type:text"`
	OrderID  uuid.UUID     `gorm:"type:text;index;not null"`
	DishID   uuid.UUID     `gorm:"type:text;not null"`
	Quantity int           `gorm:"not null;check:quantity >= 1 AND quantity <= 999"`
	Price    pricing.Money `gorm:"type:text;not null"`

	Order *orderRecord `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Dish  *dishRecord  `gorm:"foreignKey:DishID;constraint:OnDelete:RESTRICT"`
}

func (orderItemRecord) TableName() string { return "order_items" }

func (r orderItemRecord) model() models.OrderItem {
	return models.OrderItem{
		ID:       r.ID,
		OrderID:  r.OrderID,
		DishID:   r.DishID,
		Quantity: r.Quantity,
		Price:    r.Price,
	}
}

type transactionRecord struct {
	ID         uuid.UUID     `gorm:"primaryKey;type:text"`
	OrderID    uuid.UUID     `gorm:"type:text;uniqueIndex;not null"`
	CustomerID uuid.UUID     `gorm:"type:text;not null"`
	Amount     pricing.Money `gorm:"type:text;not null"`
	Reference  string        `gorm:"uniqueIndex;not null"`
	Status     string        `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (transactionRecord) TableName() string { return "transactions" }

func (r transactionRecord) model() models.Transaction {
	return models.Transaction{
		ID:         r.ID,
		OrderID:    r.OrderID,
		CustomerID: r.CustomerID,
		Amount:     r.Amount,
		Reference:  r.Reference,
		Status:     models.TransactionStatus(r.Status),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

type statusLogRecord struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	OrderID   uuid.UUID `gorm:"type:text;index;not null"`
	Status    string    `gorm:"not null"`
	ChangedBy string    `gorm:"not null"`
	Notes     *string
	ChangedAt time.Time
}

func (statusLogRecord) TableName() string { return "order_status_log" }

type outboxRecord struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	EventID   uuid.UUID `gorm:"type:text;uniqueIndex;not null"`
	Topic     string    `gorm:"not null"`
	Key       string    `gorm:"not null"`
	Payload   []byte    `gorm:"not null"`
	CreatedAt time.Time
	SentAt    *time.Time `gorm:"index"`
}

func (outboxRecord) TableName() string { return "outbox_events" }

func (r outboxRecord) model() models.Event {
	return models.Event{
		ID:        r.ID,
		EventID:   r.EventID,
		Type:      r.Topic,
		Key:       r.Key,
		Payload:   r.Payload,
		CreatedAt: r.CreatedAt,
		SentAt:    r.SentAt,
	}
}

var allRecords = []interface{}{
	&restaurantRecord{}, &dishRecord{},
	&cartRecord{}, &cartLineRecord{},
	&orderRecord{}, &orderItemRecord{},
	&transactionRecord{}, &statusLogRecord{}, &outboxRecord{},
}
