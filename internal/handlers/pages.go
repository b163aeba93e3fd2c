package handlers

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"sort"

	"github.com/readhabit/readhabit-web/internal/backend"
	"github.com/readhabit/readhabit-web/internal/config"
	"github.com/readhabit/readhabit-web/internal/session"
)

//go:embed templates/*
var templatesFS embed.FS

// PageHandler renders the HTML entry points. Everything behind the login is
// a thin shell; the reading data is fetched by the browser through /api.
type PageHandler struct {
	ui        config.UIConfig
	providers map[string]string
	store     *session.Store
	backend   ReadingAPI
	logger    *slog.Logger
	login     *template.Template
	app       *template.Template
}

func NewPageHandler(ui config.UIConfig, providers map[string]string, store *session.Store, api ReadingAPI, logger *slog.Logger) (*PageHandler, error) {
	login, err := template.ParseFS(templatesFS, "templates/login.html")
	if err != nil {
		return nil, err
	}

	app, err := template.ParseFS(templatesFS, "templates/app.html")
	if err != nil {
		return nil, err
	}

	return &PageHandler{
		ui:        ui,
		providers: providers,
		store:     store,
		backend:   api,
		logger:    logger,
		login:     login,
		app:       app,
	}, nil
}

type LoginPageData struct {
	PageTitle   string
	Providers   []ProviderInfo
	Error       string
	Description string
	ReturnTo    string
}

type ProviderInfo struct {
	Alias string
	Name  string
}

type AppPageData struct {
	PageTitle string
	Page      string
	GroupID   string
	User      *backend.Me
}

func (h *PageHandler) Landing(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	if h.store.AccessToken(r) != "" {
		http.Redirect(w, r, feedPath, http.StatusFound)
		return
	}
	http.Redirect(w, r, loginPath, http.StatusFound)
}

func (h *PageHandler) Login(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	providers := make([]ProviderInfo, 0, len(h.providers))
	for alias, name := range h.providers {
		providers = append(providers, ProviderInfo{Alias: alias, Name: name})
	}
	sort.Slice(providers, func(i, j int) bool { return providers[i].Alias < providers[j].Alias })

	data := LoginPageData{
		PageTitle:   h.ui.Title,
		Providers:   providers,
		Error:       query.Get("error"),
		Description: query.Get("desc"),
		ReturnTo:    localPath(query.Get("returnTo"), feedPath),
	}

	h.render(w, h.login, http.StatusOK, data)
}

func (h *PageHandler) Feed(w http.ResponseWriter, r *http.Request) {
	h.renderApp(w, r, "feed", "")
}

func (h *PageHandler) Group(w http.ResponseWriter, r *http.Request) {
	h.renderApp(w, r, "group", r.PathValue("id"))
}

func (h *PageHandler) renderApp(w http.ResponseWriter, r *http.Request, page, groupID string) {
	data := AppPageData{
		PageTitle: h.ui.Title,
		Page:      page,
		GroupID:   groupID,
	}

	me, err := h.backend.Me(r.Context(), h.store.IDToken(r))
	switch {
	case err == nil:
		data.User = me
	case backend.IsUnauthorized(err):
		// Expired or revoked session: fall back to the anonymous view.
		h.logger.Info("backend rejected session token", "page", page)
		h.store.ClearTokens(w)
	default:
		h.logger.Error("failed to load profile", "page", page, "error", err)
		http.Error(w, "Failed to load profile", http.StatusBadGateway)
		return
	}

	h.render(w, h.app, http.StatusOK, data)
}

func (h *PageHandler) render(w http.ResponseWriter, tmpl *template.Template, status int, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := tmpl.Execute(w, data); err != nil {
		h.logger.Error("failed to render template", "template", tmpl.Name(), "error", err)
	}
}
