package bog

// Wire types for the Bank of Georgia (BOG) e-commerce payments API.
// Amounts on the wire are plain JSON numbers in GEL.

// DefaultCurrency is the settlement currency for all BOG orders.
const DefaultCurrency = "GEL"

// TestModeAmount is the nominal amount charged when payment test mode
// is enabled.
const TestModeAmount = 0.01

// tokenResponse is the OAuth2 client-credentials token response.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// BasketItem is one line in an order's purchase basket.
type BasketItem struct {
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	ProductID string  `json:"product_id"`
}

// PurchaseUnits describes what an order charges for.
type PurchaseUnits struct {
	Currency    string       `json:"currency,omitempty"`
	TotalAmount float64      `json:"total_amount"`
	Basket      []BasketItem `json:"basket"`
}

// chargeUnits is the purchase_units shape the subscribe endpoint
// expects; it names the currency field differently from order creation.
type chargeUnits struct {
	TotalAmount  float64      `json:"total_amount"`
	CurrencyCode string       `json:"currency_code"`
	Basket       []BasketItem `json:"basket"`
}

// RedirectURLs are where BOG sends the payer after the hosted flow.
type RedirectURLs struct {
	Fail    string `json:"fail"`
	Success string `json:"success"`
}

// CreateOrderRequest creates a hosted-checkout e-commerce order.
type CreateOrderRequest struct {
	CallbackURL   string        `json:"callback_url"`
	PurchaseUnits PurchaseUnits `json:"purchase_units"`
	RedirectURLs  RedirectURLs  `json:"redirect_urls"`
}

type chargeRequest struct {
	CallbackURL   string      `json:"callback_url"`
	PurchaseUnits chargeUnits `json:"purchase_units"`
}

// orderLinks is the HAL-style _links block BOG returns on orders.
type orderLinks struct {
	Redirect struct {
		Href string `json:"href"`
	} `json:"redirect"`
	Details struct {
		Href string `json:"href"`
	} `json:"details"`
}

type orderResponse struct {
	ID    string     `json:"id"`
	Links orderLinks `json:"_links"`
}

// Order is a created gateway order.
type Order struct {
	ID          string
	RedirectURL string
}

// ChargeResult is the outcome of a successful recurring charge.
type ChargeResult struct {
	TransactionID string
	ReceiptURL    string
}

// Receipt reports the settlement status of an order.
type Receipt struct {
	OrderStatus string
}

type receiptResponse struct {
	OrderStatus struct {
		Key string `json:"key"`
	} `json:"order_status"`
}

// errorResponse is BOG's error body shape.
type errorResponse struct {
	Message string `json:"message"`
	Key     string `json:"key"`
}
