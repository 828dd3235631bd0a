package bc

import "time"

// Standard API endpoints.
const (
	EndpointCustomers     = "customers"
	EndpointVendors       = "vendors"
	EndpointItems         = "items"
	EndpointSalesInvoices = "salesInvoices"
)

// Bound actions on sales invoices.
const (
	ActionPost           = "post"
	ActionSend           = "send"
	ActionCancel         = "cancel"
	ActionCancelAndSend  = "cancelAndSend"
	ActionPostAndSend    = "postAndSend"
	ActionMakeCorrective = "makeCorrectiveCreditMemo"
)

// Customer represents a customer record.
type Customer struct {
	ID                   string    `json:"id"                             validate:"required,uuid"`
	Number               string    `json:"number"                         validate:"required"`
	DisplayName          string    `json:"displayName"                    validate:"required"`
	Type                 string    `json:"type,omitempty"                 validate:"omitempty,oneof=Company Person"`
	AddressLine1         string    `json:"addressLine1,omitempty"`
	AddressLine2         string    `json:"addressLine2,omitempty"`
	City                 string    `json:"city,omitempty"`
	State                string    `json:"state,omitempty"`
	Country              string    `json:"country,omitempty"`
	PostalCode           string    `json:"postalCode,omitempty"`
	PhoneNumber          string    `json:"phoneNumber,omitempty"`
	Email                string    `json:"email,omitempty"                validate:"omitempty,email"`
	Website              string    `json:"website,omitempty"`
	TaxLiable            bool      `json:"taxLiable"`
	CurrencyCode         string    `json:"currencyCode,omitempty"`
	PaymentTermsID       string    `json:"paymentTermsId,omitempty"`
	Blocked              string    `json:"blocked,omitempty"`
	BalanceDue           float64   `json:"balanceDue"`
	CreditLimit          float64   `json:"creditLimit"                    validate:"gte=0"`
	LastModifiedDateTime time.Time `json:"lastModifiedDateTime,omitempty"`
}

// Vendor represents a vendor record.
type Vendor struct {
	ID                   string    `json:"id"                             validate:"required,uuid"`
	Number               string    `json:"number"                         validate:"required"`
	DisplayName          string    `json:"displayName"                    validate:"required"`
	AddressLine1         string    `json:"addressLine1,omitempty"`
	AddressLine2         string    `json:"addressLine2,omitempty"`
	City                 string    `json:"city,omitempty"`
	State                string    `json:"state,omitempty"`
	Country              string    `json:"country,omitempty"`
	PostalCode           string    `json:"postalCode,omitempty"`
	PhoneNumber          string    `json:"phoneNumber,omitempty"`
	Email                string    `json:"email,omitempty"                validate:"omitempty,email"`
	Website              string    `json:"website,omitempty"`
	TaxRegistrationNo    string    `json:"taxRegistrationNumber,omitempty"`
	CurrencyCode         string    `json:"currencyCode,omitempty"`
	PaymentTermsID       string    `json:"paymentTermsId,omitempty"`
	Blocked              string    `json:"blocked,omitempty"`
	Balance              float64   `json:"balance"`
	LastModifiedDateTime time.Time `json:"lastModifiedDateTime,omitempty"`
}

// Item represents an inventory, service or non-inventory item.
type Item struct {
	ID                    string    `json:"id"                             validate:"required,uuid"`
	Number                string    `json:"number"                         validate:"required"`
	DisplayName           string    `json:"displayName"                    validate:"required"`
	Type                  string    `json:"type,omitempty"                 validate:"omitempty,oneof=Inventory Service Non-Inventory"`
	ItemCategoryCode      string    `json:"itemCategoryCode,omitempty"`
	Blocked               bool      `json:"blocked"`
	GTIN                  string    `json:"gtin,omitempty"`
	Inventory             float64   `json:"inventory"`
	UnitPrice             float64   `json:"unitPrice"                      validate:"gte=0"`
	PriceIncludesTax      bool      `json:"priceIncludesTax"`
	UnitCost              float64   `json:"unitCost"                       validate:"gte=0"`
	BaseUnitOfMeasureCode string    `json:"baseUnitOfMeasureCode,omitempty"`
	LastModifiedDateTime  time.Time `json:"lastModifiedDateTime,omitempty"`
}

// SalesInvoice represents a sales invoice header.
type SalesInvoice struct {
	ID                      string    `json:"id"                               validate:"required,uuid"`
	Number                  string    `json:"number"                           validate:"required"`
	ExternalDocumentNumber  string    `json:"externalDocumentNumber,omitempty"`
	InvoiceDate             string    `json:"invoiceDate,omitempty"            validate:"omitempty,datetime=2006-01-02"`
	PostingDate             string    `json:"postingDate,omitempty"            validate:"omitempty,datetime=2006-01-02"`
	DueDate                 string    `json:"dueDate,omitempty"                validate:"omitempty,datetime=2006-01-02"`
	CustomerID              string    `json:"customerId,omitempty"             validate:"omitempty,uuid"`
	CustomerNumber          string    `json:"customerNumber,omitempty"`
	CustomerName            string    `json:"customerName,omitempty"`
	CurrencyCode            string    `json:"currencyCode,omitempty"`
	Status                  string    `json:"status,omitempty"                 validate:"omitempty,oneof=Draft 'In Review' Open Paid Canceled Corrective"`
	TotalAmountExcludingTax float64   `json:"totalAmountExcludingTax"`
	TotalTaxAmount          float64   `json:"totalTaxAmount"`
	TotalAmountIncludingTax float64   `json:"totalAmountIncludingTax"`
	RemainingAmount         float64   `json:"remainingAmount"`
	LastModifiedDateTime    time.Time `json:"lastModifiedDateTime,omitempty"`
}
