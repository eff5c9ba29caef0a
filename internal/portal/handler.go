// Package portal serves the student and faculty login pages and the
// dashboards behind them.
package portal

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-campus-portal/internal/credential"
	"github.com/ovaphlow/pitchfork/service-campus-portal/internal/login"
	"github.com/ovaphlow/pitchfork/service-campus-portal/internal/remember"
	"github.com/ovaphlow/pitchfork/service-campus-portal/internal/router"
	"github.com/ovaphlow/pitchfork/service-campus-portal/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const msgBusy = "A login request is already in progress"

// Handler exposes the portal pages.
type Handler struct {
	registry  *Registry
	tokens    *session.Service
	secure    bool
	logger    *zap.SugaredLogger
	templates map[string]*template.Template
}

func NewHandler(registry *Registry, tokens *session.Service, cfg Config, logger *zap.SugaredLogger) *Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Handler{
		registry:  registry,
		tokens:    tokens,
		secure:    cfg.SecureCookies,
		logger:    logger,
		templates: parseTemplates(),
	}
}

func parseTemplates() map[string]*template.Template {
	out := make(map[string]*template.Template)
	for _, page := range []string{"login.html", "dashboard.html"} {
		out[page] = template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/"+page))
	}
	return out
}

// Routes mounts the handler on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login/student", http.StatusFound)
	})
	r.Handle("/static/*", staticHandler())
	r.Get("/login/{form}", h.LoginPage)
	r.Post("/login/{form}", h.Login)
	r.Get("/dashboard/{form}", h.Dashboard)
	r.Post("/logout", h.Logout)
}

func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic("portal: static assets: " + err.Error())
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

type kindOption struct {
	Value    string
	Label    string
	Selected bool
}

type loginPage struct {
	Form        Form
	FormID      string
	CSRF        string
	Kind        credential.IdentifierKind
	KindOptions []kindOption
	Identifier  string
	Password    string
	RememberMe  bool
	Next        string
	FieldErrors credential.FieldErrors
	Notice      *login.Notice
}

func (h *Handler) cookieStore(w http.ResponseWriter, r *http.Request) *remember.CookieStore {
	return remember.NewCookieStore(w, r, remember.CookieConfig{Secure: h.secure})
}

// LoginPage renders a fresh form instance, prefilled from the remember slot.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	form, ok := LookupForm(chi.URLParam(r, "form"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	id, _ := h.registry.Acquire(form.Name, "")
	page := loginPage{Form: form, FormID: id, CSRF: router.CSRFToken(r), Notice: popFlash(w, r, h.secure)}
	page.Kind, _ = form.KindFor(r.URL.Query().Get("kind"))
	if next, ok := safeNext(r.URL.Query().Get("next")); ok {
		page.Next = next
	}

	slot := remember.New(h.cookieStore(w, r), form.Name)
	if saved, ok := slot.Load(); ok {
		page.Identifier = saved.Identifier
		page.Password = saved.Password
		page.RememberMe = true
		if r.URL.Query().Get("kind") == "" {
			page.Kind = form.PrefillKind(saved.Identifier)
		}
	}
	h.render(w, http.StatusOK, "login.html", h.withOptions(page))
}

// Login runs one submission through the form instance's orchestrator.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	form, ok := LookupForm(chi.URLParam(r, "form"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	id, orch := h.registry.Acquire(form.Name, r.PostFormValue("form_id"))
	kind, kindOK := form.KindFor(r.PostFormValue("identifier_kind"))
	page := loginPage{
		Form:       form,
		FormID:     id,
		CSRF:       router.CSRFToken(r),
		Kind:       kind,
		Identifier: r.PostFormValue("identifier"),
		Password:   r.PostFormValue("password"),
		RememberMe: r.PostFormValue("remember_me") != "",
	}
	dest := "/dashboard/" + form.Name
	if next, ok := safeNext(r.PostFormValue("next")); ok {
		dest = next
		page.Next = next
	}
	if !kindOK {
		page.FieldErrors = credential.FieldErrors{credential.FieldIdentifier: credential.ShapeMessage(0)}
		h.render(w, http.StatusUnprocessableEntity, "login.html", h.withOptions(page))
		return
	}

	ui := &httpUI{w: w, secure: h.secure}
	out := orch.Submit(r.Context(), login.Submission{
		Credential: credential.LoginCredential{
			Kind:       kind,
			Identifier: page.Identifier,
			Password:   page.Password,
			RememberMe: page.RememberMe,
		},
		Remember:    remember.New(h.cookieStore(w, r), form.Name),
		Destination: dest,
	}, ui)

	var status int
	switch {
	case out.State == login.Success:
		http.Redirect(w, r, ui.destination, http.StatusSeeOther)
		return
	case errors.Is(out.Err, login.ErrBusy):
		status = http.StatusConflict
		page.Notice = &login.Notice{Kind: login.NoticeError, Message: msgBusy}
	case len(out.FieldErrors) > 0:
		status = http.StatusUnprocessableEntity
		page.FieldErrors = out.FieldErrors
	case errors.Is(out.Err, login.ErrGatewayUnavailable):
		status = http.StatusServiceUnavailable
		page.Notice = ui.notice
	default:
		status = http.StatusUnauthorized
		page.Notice = ui.notice
	}
	h.render(w, status, "login.html", h.withOptions(page))
}

type dashboardPage struct {
	Form       Form
	CSRF       string
	Name       string
	Identifier string
	Role       string
	ExpiresAt  string
	Notice     *login.Notice
}

// Dashboard requires a session issued for the form's role.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	form, ok := LookupForm(chi.URLParam(r, "form"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	loginURL := "/login/" + form.Name + "?next=" + url.QueryEscape(r.URL.Path)

	c, err := r.Cookie(SessionCookieName)
	if err != nil || c.Value == "" {
		http.Redirect(w, r, loginURL, http.StatusFound)
		return
	}
	claims, err := h.tokens.Verify(c.Value)
	if err != nil {
		h.logger.Debugw("session rejected", "err", err, "request_id", router.RequestID(r.Context()))
		clearSession(w, h.secure)
		http.Redirect(w, r, loginURL, http.StatusFound)
		return
	}
	if claims.Role != form.Role {
		http.Redirect(w, r, "/dashboard/"+claims.Role, http.StatusFound)
		return
	}

	page := dashboardPage{
		Form:       form,
		CSRF:       router.CSRFToken(r),
		Name:       claims.Name,
		Identifier: claims.Identifier,
		Role:       claims.Role,
		Notice:     popFlash(w, r, h.secure),
	}
	if claims.ExpiresAt != nil {
		page.ExpiresAt = claims.ExpiresAt.Time.Format("2006-01-02 15:04 MST")
	}
	if page.Name == "" {
		page.Name = claims.Identifier
	}
	h.render(w, http.StatusOK, "dashboard.html", page)
}

// Logout drops the session cookie. The remember slot is left alone.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	clearSession(w, h.secure)
	form, ok := LookupForm(r.PostFormValue("form"))
	if !ok {
		form, _ = LookupForm("student")
	}
	http.Redirect(w, r, "/login/"+form.Name, http.StatusSeeOther)
}

func (h *Handler) withOptions(p loginPage) loginPage {
	if len(p.Form.Kinds) > 1 {
		for _, k := range p.Form.Kinds {
			p.KindOptions = append(p.KindOptions, kindOption{Value: k.String(), Label: k.Label(), Selected: k == p.Kind})
		}
	}
	return p
}

func (h *Handler) render(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := h.templates[name]
	if !ok {
		http.Error(w, "template "+name+" not found", http.StatusInternalServerError)
		return
	}
	buf := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(buf, "layout", data); err != nil {
		h.logger.Errorw("execute template", "template", name, "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
