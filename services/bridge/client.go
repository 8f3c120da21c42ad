package bridge

import (
	"fmt"
	"net/http"
	"time"

	fastshot "github.com/opus-domini/fast-shot"
	"github.com/opus-domini/fast-shot/constant/header"

	"github.com/boring-ventures/peyo-onramp/config"
	bridgeErrors "github.com/boring-ventures/peyo-onramp/services/bridge/errors"
)

// Client is a typed façade over the Bridge HTTP API. Every mutating call
// carries an Idempotency-Key header supplied by the caller so that
// network-level retries cannot create duplicate remote resources.
type Client struct {
	conf *config.BridgeConfiguration
}

// NewClient creates a Bridge API client
func NewClient() *Client {
	return &Client{conf: config.BridgeConfig()}
}

// NewClientWithConfig creates a Bridge API client with explicit configuration
func NewClientWithConfig(conf *config.BridgeConfiguration) *Client {
	return &Client{conf: conf}
}

func (c *Client) api() fastshot.ClientHttpMethods {
	return fastshot.NewClient(c.conf.BaseURL).
		Config().SetTimeout(30 * time.Second).
		Header().AddAll(map[header.Type]string{
		"Accept":       "application/json",
		"Content-Type": "application/json",
		"Api-Key":      c.conf.APIKey,
	}).Build()
}

// decode maps a fast-shot response pair onto the error taxonomy and
// unmarshals the body into out when the call succeeded.
func decode(res *fastshot.Response, err error, resource string, out interface{}) error {
	if err != nil {
		return bridgeErrors.ErrNetwork{Err: err}
	}
	if res.Status().Code() == http.StatusNotFound {
		return bridgeErrors.ErrNotFound{Resource: resource}
	}
	if res.Status().Code() == http.StatusBadRequest || res.Status().Code() == http.StatusUnprocessableEntity {
		body, _ := res.Body().AsString()
		return bridgeErrors.ErrValidation{Reason: body}
	}
	if res.Status().IsError() {
		body, _ := res.Body().AsString()
		return bridgeErrors.ErrProvider{Status: res.Status().Code(), Body: body}
	}
	if out != nil {
		if err := res.Body().AsJSON(out); err != nil {
			return bridgeErrors.ErrProvider{Status: res.Status().Code(), Body: fmt.Sprintf("malformed response: %v", err)}
		}
	}
	return nil
}

// CreateAgreementLink requests a provider-hosted terms-of-service link.
// redirectURI is where the hosted flow sends the user after acceptance.
func (c *Client) CreateAgreementLink(redirectURI, idempotencyKey string) (*AgreementLink, error) {
	req := c.api().POST("/agreement_links").
		Header().Add("Idempotency-Key", idempotencyKey)
	if redirectURI != "" {
		req = req.Query().AddParam("redirect_uri", redirectURI)
	}
	res, err := req.Send()

	var link AgreementLink
	if err := decode(res, err, "agreement link", &link); err != nil {
		return nil, err
	}
	return &link, nil
}

// CreateCustomer creates a customer record from a verified identity
func (c *Client) CreateCustomer(payload CreateCustomerPayload, idempotencyKey string) (*Customer, error) {
	res, err := c.api().POST("/customers").
		Header().Add("Idempotency-Key", idempotencyKey).
		Body().AsJSON(payload).
		Send()

	var customer Customer
	if err := decode(res, err, "customer", &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// GetCustomer fetches a customer record by provider id
func (c *Client) GetCustomer(customerID string) (*Customer, error) {
	res, err := c.api().GET(fmt.Sprintf("/customers/%s", customerID)).Send()

	var customer Customer
	if err := decode(res, err, "customer", &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// CreateWallet creates a custodial wallet for a customer
func (c *Client) CreateWallet(customerID string, payload CreateWalletPayload, idempotencyKey string) (*Wallet, error) {
	res, err := c.api().POST(fmt.Sprintf("/customers/%s/wallets", customerID)).
		Header().Add("Idempotency-Key", idempotencyKey).
		Body().AsJSON(payload).
		Send()

	var wallet Wallet
	if err := decode(res, err, "wallet", &wallet); err != nil {
		return nil, err
	}
	return &wallet, nil
}

// ListWallets fetches all custodial wallets of a customer
func (c *Client) ListWallets(customerID string) ([]Wallet, error) {
	res, err := c.api().GET(fmt.Sprintf("/customers/%s/wallets", customerID)).Send()

	var list listEnvelope[Wallet]
	if err := decode(res, err, "wallets", &list); err != nil {
		return nil, err
	}
	return list.Data, nil
}

// CreateLiquidationAddress creates a deposit address that routes funds from
// the given source chain/currency to the destination rail
func (c *Client) CreateLiquidationAddress(customerID string, payload CreateLiquidationAddressPayload, idempotencyKey string) (*LiquidationAddress, error) {
	res, err := c.api().POST(fmt.Sprintf("/customers/%s/liquidation_addresses", customerID)).
		Header().Add("Idempotency-Key", idempotencyKey).
		Body().AsJSON(payload).
		Send()

	var addr LiquidationAddress
	if err := decode(res, err, "liquidation address", &addr); err != nil {
		return nil, err
	}
	return &addr, nil
}

// ListLiquidationAddresses fetches all liquidation addresses of a customer
func (c *Client) ListLiquidationAddresses(customerID string) ([]LiquidationAddress, error) {
	res, err := c.api().GET(fmt.Sprintf("/customers/%s/liquidation_addresses", customerID)).Send()

	var list listEnvelope[LiquidationAddress]
	if err := decode(res, err, "liquidation addresses", &list); err != nil {
		return nil, err
	}
	return list.Data, nil
}

// GetLiquidationAddress fetches one liquidation address by provider id
func (c *Client) GetLiquidationAddress(customerID, addressID string) (*LiquidationAddress, error) {
	res, err := c.api().GET(fmt.Sprintf("/customers/%s/liquidation_addresses/%s", customerID, addressID)).Send()

	var addr LiquidationAddress
	if err := decode(res, err, "liquidation address", &addr); err != nil {
		return nil, err
	}
	return &addr, nil
}
