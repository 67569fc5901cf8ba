package orderRepository

const (
	queryCreateOrder = `
INSERT INTO orders (id, user_id, customer_name, items, total, language, created_at)
VALUES (:id, :user_id, :customer_name, :items, :total, :language, :created_at)`

	queryListOrders = `
SELECT id, user_id, customer_name, items, total, language, created_at
FROM orders
ORDER BY created_at DESC`
)
