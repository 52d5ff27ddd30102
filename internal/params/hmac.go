package params

import (
	"net/http"
	"net/url"

	"github.com/visualright/filterlab/internal/hmac"
)

// HMAC signs a URL path + query params and returns the path with the hmac appended as a query parameter
func HMAC(h *hmac.HMAC, path string, query url.Values) (string, error) {
	mac, err := h.Create(path + BuildQuery(query))
	if err != nil {
		return "", err
	}

	signed := make(url.Values, len(query)+1)
	for k, v := range query {
		signed[k] = v
	}

	signed.Set("hmac", mac)
	return path + BuildQuery(signed), nil
}

// ValidateHMAC validates the URL path/query params, given an hmac in a query parameter named hmac
func ValidateHMAC(h *hmac.HMAC, r *http.Request) (bool, error) {
	query := r.URL.Query()

	mac := query.Get("hmac")
	query.Del("hmac")

	return h.Validate(r.URL.Path+BuildQuery(query), mac)
}
