package portal

import "testing"

func TestDecodeOutcome(t *testing.T) {
	tests := []struct {
		name          string
		raw           string
		wantKind      OutcomeKind
		wantStatus    int
		wantRetryable bool
	}{
		{
			name:     "valid reply",
			raw:      `{"error": 0, "data": {"exceptional_case_list": []}}`,
			wantKind: OutcomeSuccess,
		},
		{
			name:          "http error sentinel",
			raw:           `{"_http_error": 503}`,
			wantKind:      OutcomeHTTPError,
			wantStatus:    503,
			wantRetryable: true,
		},
		{
			name:     "not an object",
			raw:      `"just a string"`,
			wantKind: OutcomeMalformed,
		},
		{
			name:     "null",
			raw:      `null`,
			wantKind: OutcomeMalformed,
		},
		{
			name:     "empty",
			raw:      ``,
			wantKind: OutcomeMalformed,
		},
		{
			name:     "broken json",
			raw:      `{"error":`,
			wantKind: OutcomeMalformed,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, retryable := decodeOutcome([]byte(tc.raw))
			if out.Kind != tc.wantKind {
				t.Errorf("kind = %v, want %v", out.Kind, tc.wantKind)
			}
			if out.Status != tc.wantStatus {
				t.Errorf("status = %d, want %d", out.Status, tc.wantStatus)
			}
			if retryable != tc.wantRetryable {
				t.Errorf("retryable = %v, want %v", retryable, tc.wantRetryable)
			}
			if tc.wantKind == OutcomeSuccess && out.Raw == nil {
				t.Error("success outcome is missing its payload")
			}
		})
	}
}
