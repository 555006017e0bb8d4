package portal

import (
	"fmt"
	"strings"
)

// authParamError is the portal's "invalid params/auth" error code. It
// usually means the store's session has expired and needs a fresh login.
const authParamError = 10002

// Classification tags the business-level result of one store's lookup.
type Classification int

const (
	// ClassNoCase is a valid reply with no matching case at this store.
	ClassNoCase Classification = iota
	// ClassAuthError signals a likely session/auth problem at this store.
	ClassAuthError
	// ClassCase means a case was found and flattened.
	ClassCase
)

// CaseSummary is the flattened record written back to the sheet. It is
// built once per successful resolution and never mutated.
type CaseSummary struct {
	OrderSN             string
	BuyerName           string
	ProductName         string
	ProductSKU          string
	Qty                 int
	RequestSolution     string
	RequestReason       string
	StatusText          string
	RefundAmountDisplay string
	ForwardCarrier      string
	ForwardTracking     string
	ReverseCarrier      string
	ReverseTracking     string
	ReverseStatus       string
	ReverseHint         string
	Region              string
	PaymentMethod       string
	StoreCode           string
	StoreName           string
}

// Classify turns a successful fetch payload into a business result.
// Multiple simultaneous cases per order are not modeled: only the first
// case is flattened. A case the flattener cannot handle is treated as
// "no case" rather than failing the row.
func Classify(resp *Response, storeCode, storeName string) (c Classification, summary *CaseSummary) {
	if resp == nil {
		return ClassNoCase, nil
	}
	switch {
	case resp.Error == authParamError:
		return ClassAuthError, nil
	case resp.Error != 0:
		return ClassNoCase, nil
	}
	cases := resp.Data.Cases
	if len(cases) == 0 {
		return ClassNoCase, nil
	}

	defer func() {
		if r := recover(); r != nil {
			c, summary = ClassNoCase, nil
		}
	}()
	s := flatten(cases[0], storeCode, storeName)
	return ClassCase, &s
}

// flatten joins line items into the single-string columns the sheet
// expects: "name (model) [sku] xN" per item, items joined with " | ".
func flatten(cs Case, storeCode, storeName string) CaseSummary {
	var items, skus []string
	totalQty := 0
	for _, it := range cs.ProductItems {
		qty := itemQty(it.Amount)
		totalQty += qty

		if it.Product.SKU != "" {
			skus = append(skus, it.Product.SKU)
		}

		parts := []string{it.Product.Name}
		if it.Model.Name != "" {
			parts = append(parts, "("+it.Model.Name+")")
		}
		if it.Product.SKU != "" {
			parts = append(parts, "["+it.Product.SKU+"]")
		}
		if qty != 0 {
			parts = append(parts, fmt.Sprintf("x%d", qty))
		}
		items = append(items, strings.Join(parts, " "))
	}

	return CaseSummary{
		OrderSN:             cs.OrderSN,
		BuyerName:           cs.Buyer.Name,
		ProductName:         strings.Join(items, " | "),
		ProductSKU:          strings.Join(skus, " | "),
		Qty:                 totalQty,
		RequestSolution:     cs.RequestSolutionText,
		RequestReason:       cs.RequestReasonText,
		StatusText:          cs.Header.StatusText,
		RefundAmountDisplay: cs.DisplayRefundAmount,
		ForwardCarrier:      cs.Forward.ShippingCarrier,
		ForwardTracking:     firstOf(cs.Forward.TrackingNumbers),
		ReverseCarrier:      cs.Reverse.ShippingCarrier,
		ReverseTracking:     firstOf(cs.Reverse.TrackingNumbers),
		ReverseStatus:       cs.Reverse.StatusText,
		ReverseHint:         cs.Reverse.HintText,
		Region:              cs.Region,
		PaymentMethod:       cs.PaymentMethod,
		StoreCode:           storeCode,
		StoreName:           storeName,
	}
}

// itemQty interprets a loosely typed amount. Anything non-numeric counts
// as zero.
func itemQty(v interface{}) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	}
	return 0
}

// firstOf returns the first tracking number; the portal lists extras the
// sheet has no column for.
func firstOf(list []string) string {
	if len(list) > 0 {
		return list[0]
	}
	return ""
}
