package crm

// Сообщения результатов операций. Тексты являются частью внешнего контракта API.
const (
	msgValidationFailed = "Validation failed."

	msgCustomerCreated = "Customer created successfully."
	msgProductCreated  = "Product created successfully."
	msgOrderCreated    = "Order created successfully."

	msgNameRequired      = "Name is required."
	msgEmailRequired     = "Email is required."
	msgEmailExists       = "Email already exists."
	msgInvalidPhone      = "Invalid phone format. Use +1234567890 or 123-456-7890."
	msgInvalidPrice      = "Invalid decimal format for price."
	msgPriceNotPositive  = "Price must be a positive number."
	msgNegativeStock     = "Stock cannot be negative."
	msgInvalidCustomerID = "Invalid customer ID."
	msgNoProducts        = "At least one product ID is required."
	msgInvalidProductIDs = "Invalid product IDs: "

	msgEmptyInput      = "Empty input list."
	msgNoInput         = "No input provided."
	msgBulkAllCreated  = "All customers created successfully."
	msgBulkSomeCreated = "Some customers created successfully."

	msgNoRestock = "No products required restocking."
)

// Имена полей в отчёте об ошибках.
const (
	fieldName       = "name"
	fieldEmail      = "email"
	fieldPhone      = "phone"
	fieldPrice      = "price"
	fieldStock      = "stock"
	fieldCustomerID = "customer_id"
	fieldProductIDs = "product_ids"
	fieldID         = "id"
)
