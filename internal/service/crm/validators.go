package crm

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/crm/internal/domain"
)

// phonePattern допускает `+` и 1–15 цифр либо локальный формат NNN-NNN-NNNN.
var phonePattern = regexp.MustCompile(`^(\+\d{1,15}|\d{3}-\d{3}-\d{4})$`)

func validateRequired(field, value, message string) *domain.FieldError {
	if value != "" {
		return nil
	}
	return &domain.FieldError{Field: field, Message: message}
}

// validPhone сообщает, подходит ли телефон. Пустой телефон допустим.
func validPhone(phone string) bool {
	return phone == "" || phonePattern.MatchString(phone)
}

func validatePhone(phone string) *domain.FieldError {
	if validPhone(phone) {
		return nil
	}
	return &domain.FieldError{Field: fieldPhone, Message: msgInvalidPhone}
}

// validateEmailUnique проверяет email в том же контексте, где потом будет запись.
func validateEmailUnique(ctx context.Context, customers domain.CustomerRepository, email string) (*domain.FieldError, error) {
	exists, err := customers.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email uniqueness: %w", err)
	}
	if exists {
		return &domain.FieldError{Field: fieldEmail, Message: msgEmailExists}, nil
	}
	return nil, nil
}

// parsePrice разбирает цену. Ошибка формата и ошибка диапазона различаются сообщением.
func parsePrice(raw string) (decimal.Decimal, *domain.FieldError) {
	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, &domain.FieldError{Field: fieldPrice, Message: msgInvalidPrice}
	}
	if !price.IsPositive() {
		return decimal.Zero, &domain.FieldError{Field: fieldPrice, Message: msgPriceNotPositive}
	}
	return price, nil
}

func validateStock(stock *int) (int, *domain.FieldError) {
	if stock == nil {
		return 0, nil
	}
	if *stock < 0 {
		return 0, &domain.FieldError{Field: fieldStock, Message: msgNegativeStock}
	}
	return *stock, nil
}

func validateCustomerExists(ctx context.Context, customers domain.CustomerRepository, id string) (*domain.FieldError, error) {
	invalid := &domain.FieldError{Field: fieldCustomerID, Message: msgInvalidCustomerID}
	if id == "" {
		return invalid, nil
	}

	_, err := customers.Get(ctx, id)
	switch {
	case err == nil:
		return nil, nil
	case domain.IsNotFound(err):
		return invalid, nil
	default:
		return nil, fmt.Errorf("load customer: %w", err)
	}
}

// normalizeProductIDs убирает пробелы, пустые значения и повторы,
// сохраняя порядок первого появления.
func normalizeProductIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}

// resolveProducts загружает товары по ids. Отсутствующие идентификаторы перечисляются
// в порядке ввода в одной ошибке поля product_ids.
func resolveProducts(ctx context.Context, products domain.ProductRepository, ids []string) ([]domain.Product, *domain.FieldError, error) {
	found, err := products.GetMany(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("load products: %w", err)
	}

	byID := make(map[string]struct{}, len(found))
	for _, p := range found {
		byID[p.ID] = struct{}{}
	}

	var missing []string
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, &domain.FieldError{
			Field:   fieldProductIDs,
			Message: msgInvalidProductIDs + strings.Join(missing, ", "),
		}, nil
	}
	return found, nil, nil
}
