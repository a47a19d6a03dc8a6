package domain

import "strings"

// FieldError — замечание валидации, привязанное к полю входных данных.
type FieldError struct {
	Field   string
	Message string
}

// ErrorReport — упорядоченный список замечаний одного вызова операции.
type ErrorReport []FieldError

// NewErrorReport собирает отчёт из готовых замечаний.
func NewErrorReport(errs ...FieldError) ErrorReport {
	report := make(ErrorReport, 0, len(errs))
	return append(report, errs...)
}

// Add дописывает замечание в конец отчёта.
func (r *ErrorReport) Add(field, message string) {
	*r = append(*r, FieldError{Field: field, Message: message})
}

// Append дописывает замечание, если оно не nil.
func (r *ErrorReport) Append(fe *FieldError) {
	if fe == nil {
		return
	}
	*r = append(*r, *fe)
}

// Empty возвращает true, если замечаний нет.
func (r ErrorReport) Empty() bool {
	return len(r) == 0
}

// Fields возвращает имена полей в порядке появления.
func (r ErrorReport) Fields() []string {
	fields := make([]string, 0, len(r))
	for _, fe := range r {
		fields = append(fields, fe.Field)
	}
	return fields
}

// String склеивает замечания для логов.
func (r ErrorReport) String() string {
	parts := make([]string, 0, len(r))
	for _, fe := range r {
		if fe.Field == "" {
			parts = append(parts, fe.Message)
			continue
		}
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return strings.Join(parts, "; ")
}
