package portal

// PortalURL is the seller-portal surface whose tab carries the
// authenticated session.
const PortalURL = "https://seller.shopee.co.id/portal/sale/returnrefundcancel"

// PortalPathMark identifies an already-open portal tab by URL substring.
const PortalPathMark = "portal/sale/returnrefundcancel"

// fetchScript runs inside the portal tab so the request inherits the
// tab's session cookies. The SPC_CDS query parameters are a portal quirk:
// the endpoint rejects requests that omit them when the cookie is set.
// Non-2xx responses come back as an {_http_error: status} sentinel so the
// evaluation itself never throws on HTTP failures.
const fetchScript = `async (orderSn) => {
  const spcMatch = document.cookie.match(/SPC_CDS=([^;]+)/);
  const spcCds = spcMatch ? spcMatch[1] : "";
  const url = spcCds
    ? "https://seller.shopee.co.id/api/v4/seller_center/return/return_list/get_exceptional_case_list?SPC_CDS=" + spcCds + "&SPC_CDS_VER=2"
    : "https://seller.shopee.co.id/api/v4/seller_center/return/return_list/get_exceptional_case_list";

  const payload = {
    language: "id",
    is_reverse_sorting_order: false,
    page_number: 1,
    page_size: 40,
    keyword: orderSn,
    pending_action: null,
    request_solution: null,
    forward_logistics_statuses: [],
    reverse_logistics_statuses: [],
    return_reasons: [],
    create_time_range: { lower_value: null, upper_value: null },
    compensation_amount_option: null,
    advanced_fulfilment_option: null,
    seller_request_statuses: [],
    validation_type_option: null,
    request_adjusted: null,
    refund_amount_range: { lower_value: null, upper_value: null },
    flow_tab: 1,
    case_tab: 0,
    sorting_field: 1,
    key_action_due_time_range: { lower_value: null, upper_value: null },
    platform_type: "sc",
  };

  const res = await fetch(url, {
    method: "POST",
    headers: { "content-type": "application/json" },
    credentials: "include",
    body: JSON.stringify(payload),
  });

  if (!res.ok) {
    return { _http_error: res.status };
  }
  return await res.json();
}`
