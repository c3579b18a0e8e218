package database

// Catalog queries
const (
	GetDishSQL = `
		SELECT id, restaurant_id, name, price, is_available, created_at
		FROM dishes WHERE id = $1`

	GetDishesByIDSQL = `
		SELECT id, restaurant_id, name, price, is_available, created_at
		FROM dishes WHERE id = ANY($1::uuid[])`

	GetRestaurantForOwnerSQL = `
		SELECT id FROM restaurants WHERE owner_id = $1`
)

// Cart queries
const (
	// The no-op update makes RETURNING yield the existing row on conflict,
	// and the row stays locked for the rest of the transaction.
	EnsureCartSQL = `
		INSERT INTO carts (id, customer_id)
		VALUES ($1, $2)
		ON CONFLICT (customer_id) DO UPDATE SET updated_at = carts.updated_at
		RETURNING id, customer_id, created_at, updated_at`

	GetCartLinesSQL = `
		SELECT id, cart_id, dish_id, quantity, price, created_at
		FROM cart_lines WHERE cart_id = $1
		ORDER BY created_at ASC, id ASC`

	GetCartLineSQL = `
		SELECT id, cart_id, dish_id, quantity, price, created_at
		FROM cart_lines WHERE cart_id = $1 AND dish_id = $2`

	UpsertCartLineSQL = `
		INSERT INTO cart_lines (id, cart_id, dish_id, quantity, price)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (cart_id, dish_id) DO UPDATE
			SET quantity = cart_lines.quantity + EXCLUDED.quantity
		RETURNING id, cart_id, dish_id, quantity, price, created_at`

	UpdateCartLineQuantitySQL = `
		UPDATE cart_lines SET quantity = $1 WHERE id = $2`

	DeleteCartLineSQL = `
		DELETE FROM cart_lines WHERE id = $1`

	ClearCartSQL = `
		DELETE FROM cart_lines WHERE cart_id = $1`

	TouchCartSQL = `
		UPDATE carts SET updated_at = NOW() WHERE id = $1`
)

// Order queries
const (
	InsertOrderSQL = `
		INSERT INTO orders (id, customer_id, restaurant_id, status, total_amount)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	InsertOrderItemSQL = `
		INSERT INTO order_items (id, order_id, dish_id, quantity, price)
		VALUES ($1, $2, $3, $4, $5)`

	GetOrderItemsSQL = `
		SELECT id, order_id, dish_id, quantity, price
		FROM order_items WHERE order_id = $1
		ORDER BY id`

	GetOrderItemsForOrdersSQL = `
		SELECT id, order_id, dish_id, quantity, price
		FROM order_items WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, id`

	UpdateOrderTotalSQL = `
		UPDATE orders SET total_amount = $1, updated_at = NOW()
		WHERE id = $2`

	GetOrderSQL = `
		SELECT id, customer_id, restaurant_id, status, total_amount, created_at, updated_at
		FROM orders WHERE id = $1`

	GetOrderForUpdateSQL = GetOrderSQL + ` FOR UPDATE`

	UpdateOrderStatusSQL = `
		UPDATE orders SET status = $1, updated_at = NOW()
		WHERE id = $2`

	InsertOrderStatusLogSQL = `
		INSERT INTO order_status_log (order_id, status, changed_by, notes)
		VALUES ($1, $2, $3, $4)`

	GetOrderStatusHistorySQL = `
		SELECT order_id, status, changed_by, changed_at, notes
		FROM order_status_log
		WHERE order_id = $1
		ORDER BY changed_at ASC, id ASC`

	// ListOrdersSQL takes optional filters as NULL-able parameters
	ListOrdersSQL = `
		SELECT id, customer_id, restaurant_id, status, total_amount, created_at, updated_at
		FROM orders
		WHERE ($1::uuid IS NULL OR customer_id = $1)
		  AND ($2::uuid IS NULL OR restaurant_id = $2)
		  AND ($3::text IS NULL OR status = $3)
		ORDER BY created_at DESC, id DESC
		LIMIT $4 OFFSET $5`
)

// Transaction queries
const (
	InsertTransactionSQL = `
		INSERT INTO transactions (id, order_id, customer_id, amount, reference, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	selectTransaction = `
		SELECT id, order_id, customer_id, amount, reference, status, created_at, updated_at
		FROM transactions`

	GetTransactionByOrderSQL        = selectTransaction + ` WHERE order_id = $1`
	GetTransactionByIDSQL           = selectTransaction + ` WHERE id = $1`
	GetTransactionByIDForUpdateSQL  = GetTransactionByIDSQL + ` FOR UPDATE`
	GetTransactionByRefSQL          = selectTransaction + ` WHERE reference = $1`
	GetTransactionByRefForUpdateSQL = GetTransactionByRefSQL + ` FOR UPDATE`

	UpdateTransactionStatusSQL = `
		UPDATE transactions SET status = $1, updated_at = NOW()
		WHERE id = $2`
)

// Outbox queries
const (
	InsertOutboxEventSQL = `
		INSERT INTO outbox_events (event_id, topic, key, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	GetPendingOutboxEventsSQL = `
		SELECT id, event_id, topic, key, payload, created_at
		FROM outbox_events
		WHERE sent_at IS NULL
		ORDER BY id
		LIMIT $1
		FOR UPDATE SKIP LOCKED`

	MarkOutboxEventSentSQL = `
		UPDATE outbox_events SET sent_at = NOW() WHERE id = $1`
)
