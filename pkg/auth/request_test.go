package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/euonia/pkg/auth"
	"github.com/m-mizutani/gt"
)

func TestTokenFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	gt.Equal(t, auth.TokenFromRequest(req, "__session"), "")

	req.Header.Set("Authorization", "Bearer  abc ")
	gt.Equal(t, auth.TokenFromRequest(req, "__session"), "abc")

	req.AddCookie(&http.Cookie{Name: "__session", Value: "from-cookie"})
	gt.Equal(t, auth.TokenFromRequest(req, "__session"), "from-cookie")
	gt.Equal(t, auth.TokenFromRequest(req, ""), "abc")

	req.Header.Set("Authorization", "Basic abc")
	gt.Equal(t, auth.TokenFromRequest(req, ""), "")
}
