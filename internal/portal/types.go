// Package portal talks to the seller portal's internal case-list API
// from inside an authenticated browser tab and flattens its replies.
package portal

// Response mirrors the relevant portion of the portal's case-list reply.
type Response struct {
	Error int          `json:"error"`
	Data  ResponseData `json:"data"`
}

// ResponseData carries the case list on a successful reply.
type ResponseData struct {
	Cases []Case `json:"exceptional_case_list"`
}

// Case is one return/refund/cancellation record as the portal reports it.
type Case struct {
	OrderSN             string        `json:"order_sn"`
	Buyer               Buyer         `json:"buyer"`
	ProductItems        []ProductItem `json:"product_items"`
	RequestSolutionText string        `json:"request_solution_text"`
	RequestReasonText   string        `json:"request_reason_text"`
	Header              CaseHeader    `json:"header"`
	DisplayRefundAmount string        `json:"display_refund_amount"`
	Forward             LogisticsInfo `json:"forward_logistics_info"`
	Reverse             LogisticsInfo `json:"reverse_logistics_info"`
	Region              string        `json:"region"`
	PaymentMethod       string        `json:"payment_method"`
}

// Buyer identifies the requesting buyer.
type Buyer struct {
	Name string `json:"name"`
}

// CaseHeader carries the display status of a case.
type CaseHeader struct {
	StatusText string `json:"status_text"`
}

// ProductItem is one line item of a case. Amount is usually a number but
// the portal occasionally sends null or junk, so it is decoded loosely.
type ProductItem struct {
	Product Product     `json:"product"`
	Model   Model       `json:"model"`
	Amount  interface{} `json:"amount"`
}

// Product identifies the listed product of a line item.
type Product struct {
	Name string `json:"name"`
	SKU  string `json:"sku"`
}

// Model identifies the product variant, when there is one.
type Model struct {
	Name string `json:"name"`
}

// LogisticsInfo covers both the forward and the reverse leg of a case.
type LogisticsInfo struct {
	ShippingCarrier string   `json:"shipping_carrier"`
	TrackingNumbers []string `json:"tracking_numbers"`
	StatusText      string   `json:"aggregated_logistics_status_text"`
	HintText        string   `json:"hint_text"`
}

// OutcomeKind tags the result of one in-page fetch attempt.
type OutcomeKind int

const (
	// OutcomeSuccess carries a structurally valid portal reply in Raw.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeHTTPError means the portal kept answering non-2xx.
	OutcomeHTTPError
	// OutcomeMalformed means the script returned something that is not a
	// case-list reply. Never retried within one call.
	OutcomeMalformed
	// OutcomeExecutionError means the script itself could not be run
	// (page closed, execution context gone) after all retries.
	OutcomeExecutionError
)

// Outcome is the tagged result of one fetch.
type Outcome struct {
	Kind   OutcomeKind
	Status int       // HTTP status, set for OutcomeHTTPError
	Raw    *Response // payload, set for OutcomeSuccess
	Err    error     // underlying error, set for OutcomeExecutionError
}
