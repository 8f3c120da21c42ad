package bridge

import "time"

// AgreementLink is a provider-hosted terms-of-service acceptance link
type AgreementLink struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CustomerAddress is the address block of a customer-creation payload
type CustomerAddress struct {
	StreetLine1 string `json:"street_line_1"`
	StreetLine2 string `json:"street_line_2,omitempty"`
	City        string `json:"city"`
	Subdivision string `json:"subdivision,omitempty"`
	PostalCode  string `json:"postal_code,omitempty"`
	Country     string `json:"country"`
}

// IdentifyingInformation carries the customer's verified identity document
type IdentifyingInformation struct {
	Type           string `json:"type"`
	IssuingCountry string `json:"issuing_country"`
	ImageFront     string `json:"image_front"`
	ImageBack      string `json:"image_back,omitempty"`
}

// CreateCustomerPayload is the body of POST /customers
type CreateCustomerPayload struct {
	Type                    string                   `json:"type"`
	FirstName               string                   `json:"first_name"`
	LastName                string                   `json:"last_name"`
	Email                   string                   `json:"email"`
	BirthDate               string                   `json:"birth_date"`
	TaxIdentificationNumber string                   `json:"tax_identification_number,omitempty"`
	ResidentialAddress      CustomerAddress          `json:"residential_address"`
	SignedAgreementID       string                   `json:"signed_agreement_id"`
	IdentifyingInformation  []IdentifyingInformation `json:"identifying_information"`
}

// Customer is the provider's customer record
type Customer struct {
	ID                 string    `json:"id"`
	FirstName          string    `json:"first_name"`
	LastName           string    `json:"last_name"`
	Email              string    `json:"email"`
	VerificationStatus string    `json:"status"`
	RequirementsDue    []string  `json:"requirements_due"`
	Endorsements       []string  `json:"endorsements"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// WalletBalanceEntry is one balance line of a custodial wallet
type WalletBalanceEntry struct {
	Currency string `json:"currency"`
	Balance  string `json:"balance"`
}

// Wallet is a provider custodial wallet
type Wallet struct {
	ID        string               `json:"id"`
	Chain     string               `json:"chain"`
	Address   string               `json:"address"`
	Enabled   bool                 `json:"enabled"`
	Balances  []WalletBalanceEntry `json:"balances"`
	CreatedAt time.Time            `json:"created_at"`
}

// CreateWalletPayload is the body of POST /customers/{id}/wallets
type CreateWalletPayload struct {
	Chain string `json:"chain"`
}

// CreateLiquidationAddressPayload is the body of
// POST /customers/{id}/liquidation_addresses
type CreateLiquidationAddressPayload struct {
	Chain                  string `json:"chain"`
	Currency               string `json:"currency"`
	DestinationPaymentRail string `json:"destination_payment_rail"`
	DestinationCurrency    string `json:"destination_currency"`
	DestinationAddress     string `json:"destination_address"`
}

// LiquidationAddress is a provider deposit address that routes incoming
// funds to a fixed destination rail and currency
type LiquidationAddress struct {
	ID                     string    `json:"id"`
	CustomerID             string    `json:"customer_id"`
	Chain                  string    `json:"chain"`
	Currency               string    `json:"currency"`
	Address                string    `json:"address"`
	DestinationPaymentRail string    `json:"destination_payment_rail"`
	DestinationCurrency    string    `json:"destination_currency"`
	DestinationAddress     string    `json:"destination_address"`
	State                  string    `json:"state"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

type listEnvelope[T any] struct {
	Count int `json:"count"`
	Data  []T `json:"data"`
}
