package domain

import "time"

// Customer — клиент CRM. После создания запись не изменяется, только удаляется.
type Customer struct {
	ID    string
	Name  string
	Email string
	// Phone пустой, если телефон не указан.
	Phone     string
	CreatedAt time.Time
}
