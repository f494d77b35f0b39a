package common

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"net/url"

	"Archaeopteryx/internal/apperr"
)

// ParseParams flattens a request body into url.Values. Mastodon clients send
// the same parameters as JSON, form-encoded or multipart bodies depending on
// the library, so every write endpoint accepts all three. Array values keep
// their multiplicity ("media_ids" as JSON array or repeated "media_ids[]").
func ParseParams(r *http.Request) (url.Values, error) {
	contentType := r.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)

	switch mediaType {
	case "application/json":
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return nil, apperr.Validation("body", "malformed JSON")
		}
		values := url.Values{}
		for key, raw := range body {
			switch v := raw.(type) {
			case []any:
				for _, item := range v {
					values.Add(key, fmt.Sprint(item))
				}
			case nil:
			case bool:
				values.Set(key, fmt.Sprintf("%t", v))
			case float64:
				values.Set(key, trimFloat(v))
			default:
				values.Set(key, fmt.Sprint(v))
			}
		}
		return values, nil

	case "multipart/form-data":
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return nil, apperr.Validation("body", "malformed multipart body")
		}
		return mergeArrays(r.Form), nil

	default:
		if err := r.ParseForm(); err != nil {
			return nil, apperr.Validation("body", "malformed form body")
		}
		return mergeArrays(r.Form), nil
	}
}

// mergeArrays folds Rails-style "key[]" parameters into "key".
func mergeArrays(in url.Values) url.Values {
	out := url.Values{}
	for key, vals := range in {
		if len(key) > 2 && key[len(key)-2:] == "[]" {
			key = key[:len(key)-2]
		}
		for _, v := range vals {
			out.Add(key, v)
		}
	}
	return out
}

// trimFloat renders JSON numbers without a trailing ".0" for integral values.
func trimFloat(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprint(f)
}
