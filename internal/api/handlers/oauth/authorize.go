// Package oauth implements the browser-facing OAuth endpoints: the authorize
// form, the token grant and revocation.
package oauth

import (
	"html/template"
	"net/http"
	"net/url"

	"Archaeopteryx/internal/api/handlers/common"
	"Archaeopteryx/internal/apperr"
	"Archaeopteryx/internal/oauth"
)

// oobRedirectURI is the out-of-band redirect, where the code is shown to the
// user instead of passed to a callback.
const oobRedirectURI = "urn:ietf:wg:oauth:2.0:oob"

var loginTemplate = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html>
<head><title>Sign in - {{.AppName}}</title></head>
<body>
<h1>Sign in to Bluesky</h1>
<p>{{.AppName}} is requesting access to your account.</p>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
<form method="post" action="/oauth/authorize">
  <input type="hidden" name="client_id" value="{{.ClientID}}">
  <input type="hidden" name="redirect_uri" value="{{.RedirectURI}}">
  <input type="hidden" name="scope" value="{{.Scope}}">
  <input type="hidden" name="state" value="{{.State}}">
  <label>Handle <input type="text" name="username" placeholder="alice.bsky.social"></label>
  <label>App password <input type="password" name="password"></label>
  <button type="submit">Sign in</button>
</form>
</body>
</html>
`))

var codeTemplate = template.Must(template.New("code").Parse(`<!DOCTYPE html>
<html>
<head><title>Authorization code</title></head>
<body>
<h1>Authorization code</h1>
<p>Copy this code into your application:</p>
<code>{{.Code}}</code>
</body>
</html>
`))

type loginPage struct {
	AppName     string
	ClientID    string
	RedirectURI string
	Scope       string
	State       string
	Error       string
}

// AuthorizeHandler serves the authorization form and processes its submission
type AuthorizeHandler struct {
	service *oauth.Service
}

// NewAuthorizeHandler creates a new authorize handler
func NewAuthorizeHandler(service *oauth.Service) *AuthorizeHandler {
	return &AuthorizeHandler{service: service}
}

// HandleShow renders the login form.
// GET /oauth/authorize?client_id=...&redirect_uri=...&response_type=code
func (h *AuthorizeHandler) HandleShow(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	app, err := h.service.GetApp(r.Context(), query.Get("client_id"))
	if err != nil {
		common.Error(w, err)
		return
	}

	h.renderLogin(w, http.StatusOK, loginPage{
		AppName:     app.Name,
		ClientID:    query.Get("client_id"),
		RedirectURI: query.Get("redirect_uri"),
		Scope:       query.Get("scope"),
		State:       query.Get("state"),
	})
}

// HandleSubmit validates the submitted credentials and issues a code.
// POST /oauth/authorize
func (h *AuthorizeHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		common.Error(w, apperr.Validation("body", "malformed form body"))
		return
	}

	clientID := r.PostFormValue("client_id")
	redirectURI := r.PostFormValue("redirect_uri")
	scope := r.PostFormValue("scope")
	state := r.PostFormValue("state")

	code, err := h.service.Authorize(
		r.Context(),
		clientID,
		redirectURI,
		scope,
		r.PostFormValue("username"),
		r.PostFormValue("password"),
	)
	if err != nil {
		// Bad credentials return the form with the error inline; anything
		// else surfaces as the JSON envelope.
		if app, appErr := h.service.GetApp(r.Context(), clientID); appErr == nil && apperr.HTTPStatus(err) == http.StatusUnauthorized {
			h.renderLogin(w, http.StatusUnauthorized, loginPage{
				AppName:     app.Name,
				ClientID:    clientID,
				RedirectURI: redirectURI,
				Scope:       scope,
				State:       state,
				Error:       "Invalid handle or app password.",
			})
			return
		}
		common.Error(w, err)
		return
	}

	if redirectURI == oobRedirectURI {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := codeTemplate.Execute(w, map[string]string{"Code": code}); err != nil {
			common.Error(w, apperr.Internal(err))
		}
		return
	}

	location, err := url.Parse(redirectURI)
	if err != nil {
		common.Error(w, apperr.Validation("redirect_uri", "not a valid URI"))
		return
	}
	params := location.Query()
	params.Set("code", code)
	if state != "" {
		params.Set("state", state)
	}
	location.RawQuery = params.Encode()

	http.Redirect(w, r, location.String(), http.StatusFound)
}

func (h *AuthorizeHandler) renderLogin(w http.ResponseWriter, status int, page loginPage) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := loginTemplate.Execute(w, page); err != nil {
		common.Error(w, apperr.Internal(err))
	}
}
