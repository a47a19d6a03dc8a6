package domain

import "errors"

var (
	// ErrCustomerNotFound возвращается, если клиент не найден в хранилище.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrProductNotFound возвращается, если товар не найден в хранилище.
	ErrProductNotFound = errors.New("product not found")
	// ErrOrderNotFound возвращается, если заказ не найден в хранилище.
	ErrOrderNotFound = errors.New("order not found")
	// ErrEmailAlreadyExists — нарушение уникальности email на уровне хранилища.
	ErrEmailAlreadyExists = errors.New("customer email already exists")
	// ErrRecordConflict — запись с таким идентификатором уже существует.
	ErrRecordConflict = errors.New("record already exists")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
	// ErrStoreClosed — обращение к закрытому хранилищу.
	ErrStoreClosed = errors.New("store is closed")
)

// IsNotFound проверяет, относится ли ошибка к отсутствующей записи любого типа.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrOrderNotFound)
}
