package domain

// Outcome — результат операции изменения: либо успех с записью, либо отказ с отчётом.
// Поля закрыты, поэтому собрать успех с ошибками или отказ с записью нельзя.
type Outcome[T any] struct {
	value   T
	ok      bool
	message string
	errors  ErrorReport
}

// Succeeded строит успешный результат.
func Succeeded[T any](value T, message string) Outcome[T] {
	return Outcome[T]{value: value, ok: true, message: message}
}

// Failed строит отказ с отчётом валидации.
func Failed[T any](message string, report ErrorReport) Outcome[T] {
	return Outcome[T]{message: message, errors: report}
}

// Success сообщает, завершилась ли операция успешно.
func (o Outcome[T]) Success() bool {
	return o.ok
}

// Value возвращает запись; второй результат false для отказа.
func (o Outcome[T]) Value() (T, bool) {
	return o.value, o.ok
}

// Message возвращает человекочитаемое сообщение.
func (o Outcome[T]) Message() string {
	return o.message
}

// Errors возвращает отчёт валидации; для успеха он всегда пуст.
func (o Outcome[T]) Errors() ErrorReport {
	return o.errors
}

// BulkCreateResult — итог пакетного создания клиентов.
// В отличие от Outcome, созданные записи и ошибки могут присутствовать одновременно.
type BulkCreateResult struct {
	Created []Customer
	Errors  ErrorReport
	Message string
}

// RestockResult — итог пополнения заканчивающихся товаров.
type RestockResult struct {
	Updated []Product
	Message string
}
