package domain

import "testing"

func TestAuthPolicy_String(t *testing.T) {
	tests := []struct {
		p    AuthPolicy
		want string
	}{
		{AuthPolicyUnspecified, ""},
		{AuthPolicyNone, "NONE"},
		{AuthPolicyMutualTLS, "MUTUAL_TLS"},
		{AuthPolicy(42), ""},
	}
	for _, tt := range tests {
		if got := tt.p.String(); got != tt.want {
			t.Errorf("AuthPolicy(%d).String() = %q, want %q", int(tt.p), got, tt.want)
		}
		if tt.want != "" && ParseAuthPolicy(tt.want) != tt.p {
			t.Errorf("ParseAuthPolicy(%q) = %v, want %v", tt.want, ParseAuthPolicy(tt.want), tt.p)
		}
	}
	if ParseAuthPolicy("bogus") != AuthPolicyUnspecified {
		t.Error("unknown policy did not map to Unspecified")
	}
}

func TestRequestInfo_URL(t *testing.T) {
	r := RequestInfo{URLScheme: "https", URLHost: "api.example.com:8443", URLPath: "/v1/items?id=3"}
	if got := r.URL(); got != "https://api.example.com:8443/v1/items?id=3" {
		t.Errorf("URL() = %q", got)
	}
}
