package web

import (
	"bytes"
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"cigale/internal/entities"
	apperrors "cigale/internal/errors"
	"cigale/internal/lateness"
	"cigale/internal/logging"
	"cigale/internal/templates"
	"cigale/internal/utils"
	"cigale/internal/validation"
)

const refreshSeconds = 60

// defaultArrivalLead is added to the current time to prefill the create form.
const defaultArrivalLead = 15 * time.Minute

type ReservationLister interface {
	List(ctx context.Context, filter entities.Filter) (entities.ReservationsList, error)
}

type ReservationWriter interface {
	Create(ctx context.Context, obj validation.Object) (entities.Reservation, error)
	Apply(ctx context.Context, id string, change entities.Change) (entities.Reservation, error)
	Delete(ctx context.Context, id string) error
}

type Options struct {
	Lister         ReservationLister
	Service        ReservationWriter
	Hours          validation.OperatingHours
	Location       *time.Location
	Now            func() time.Time
	RestaurantName string
	Logger         *slog.Logger
}

// Handler serves the staff pages and their form actions.
type Handler struct {
	opts  Options
	pages map[string]*template.Template
}

type pageData struct {
	Title          string
	Active         string
	RestaurantName string
	Refresh        int
	Now            time.Time
	Today          string
	DefaultTime    string
	CurrentURL     string
	Notice         string
	Error          string
	Skipped        []entities.SkippedRecord
	Page           any
}

type listePage struct {
	Groups   []entities.DayGroup
	Query    string
	ShowPast bool
	Total    int
}

type kanbanPage struct {
	DayLabel string
	Upcoming []entities.ReservationView
	Arrived  []entities.ReservationView
}

type planningPage struct {
	Week  entities.PlanningWeek
	Label string
	Prev  string
	Next  string
}

func NewHandler(opts Options) (*Handler, error) {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.RestaurantName == "" {
		opts.RestaurantName = "La Cigale"
	}

	funcs := template.FuncMap{
		"formatDelay": lateness.FormatDelay,
		"maskPhone":   MaskPhone,
		"shortDay":    utils.FrenchShortDay,
		"hourLabel":   func(hour int) string { return strconv.Itoa(hour) + "h" },
	}

	pages := make(map[string]*template.Template)
	for _, page := range []string{templates.Liste, templates.Kanban, templates.Planning} {
		tmpl, err := template.New(templates.Layout).Funcs(funcs).ParseFS(templates.FS, templates.Layout, page)
		if err != nil {
			return nil, err
		}
		pages[page] = tmpl
	}
	return &Handler{opts: opts, pages: pages}, nil
}

func (h *Handler) Register(r *mux.Router) {
	r.Handle("/", http.RedirectHandler("/liste", http.StatusFound)).Methods(http.MethodGet)
	r.HandleFunc("/liste", h.Liste).Methods(http.MethodGet)
	r.HandleFunc("/kanban", h.Kanban).Methods(http.MethodGet)
	r.HandleFunc("/planning", h.Planning).Methods(http.MethodGet)
	r.HandleFunc("/reservations", h.CreateReservation).Methods(http.MethodPost)
	r.HandleFunc("/reservations/{id}/edit", h.EditReservation).Methods(http.MethodPost)
	r.HandleFunc("/reservations/{id}/toggle", h.ToggleArrival).Methods(http.MethodPost)
	r.HandleFunc("/reservations/{id}/status", h.MoveReservation).Methods(http.MethodPost)
	r.HandleFunc("/reservations/{id}/delete", h.DeleteReservation).Methods(http.MethodPost)
}

func (h *Handler) now() time.Time {
	return h.opts.Now().In(h.opts.Location)
}

func (h *Handler) Liste(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	list, err := h.opts.Lister.List(r.Context(), entities.Filter{})
	data := h.newPage(r, now, "Liste des réservations", "liste")
	if err != nil {
		h.loadFailed(r, &data, err)
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	showPast := r.URL.Query().Get("past") == "1"
	matches := Search(list.Reservations, query)
	groups := BuildDayGroups(now, matches, showPast)

	total := 0
	for _, g := range groups {
		total += len(g.Reservations)
	}
	data.Skipped = list.Skipped
	data.Page = listePage{Groups: groups, Query: query, ShowPast: showPast, Total: total}
	h.render(w, r, templates.Liste, data)
}

func (h *Handler) Kanban(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	list, err := h.opts.Lister.List(r.Context(), entities.Filter{Date: now.Format(utils.DateLayout)})
	data := h.newPage(r, now, "Kanban du jour", "kanban")
	if err != nil {
		h.loadFailed(r, &data, err)
	}

	upcoming, arrived := SplitKanban(now, list.Reservations)
	data.Skipped = list.Skipped
	data.Page = kanbanPage{DayLabel: utils.FrenchDayLabel(now), Upcoming: upcoming, Arrived: arrived}
	h.render(w, r, templates.Kanban, data)
}

func (h *Handler) Planning(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	anchor := now
	if week := r.URL.Query().Get("week"); week != "" {
		if parsed, err := utils.ParseDate(week, h.opts.Location); err == nil {
			anchor = parsed
		}
	}

	list, err := h.opts.Lister.List(r.Context(), entities.Filter{})
	data := h.newPage(r, now, "Planning de la semaine", "planning")
	if err != nil {
		h.loadFailed(r, &data, err)
	}

	week := BuildPlanningWeek(now, anchor, h.opts.Hours.Hours(), list.Reservations)
	data.Skipped = list.Skipped
	data.Page = planningPage{
		Week:  week,
		Label: utils.FrenchWeekLabel(anchor),
		Prev:  week.Start.AddDate(0, 0, -7).Format(utils.DateLayout),
		Next:  week.Start.AddDate(0, 0, 7).Format(utils.DateLayout),
	}
	h.render(w, r, templates.Planning, data)
}

func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	obj, err := formObject(r, false)
	if err == nil {
		_, err = h.opts.Service.Create(r.Context(), obj)
	}
	h.redirectAfter(w, r, err, "Réservation créée", "Impossible de créer la réservation")
}

func (h *Handler) EditReservation(w http.ResponseWriter, r *http.Request) {
	obj, err := formObject(r, true)
	var patch entities.ReservationPatch
	if err == nil {
		patch, err = validation.ValidateUpdate(obj)
	}
	if err == nil {
		_, err = h.opts.Service.Apply(r.Context(), mux.Vars(r)["id"], entities.FieldsChange(patch))
	}
	h.redirectAfter(w, r, err, "Réservation modifiée", "Impossible de modifier la réservation")
}

// ToggleArrival sets the arrival flag to the submitted "arrived" value.
func (h *Handler) ToggleArrival(w http.ResponseWriter, r *http.Request) {
	arrived, err := strconv.ParseBool(r.FormValue("arrived"))
	if err != nil {
		h.redirectAfter(w, r, validation.Invalid("arrived", "valeur d'arrivée invalide"), "", "")
		return
	}
	_, err = h.opts.Service.Apply(r.Context(), mux.Vars(r)["id"], entities.StatusChange(arrived))
	notice := "Client marqué à venir"
	if arrived {
		notice = "Client marqué arrivé"
	}
	h.redirectAfter(w, r, err, notice, "Impossible de mettre à jour le statut")
}

// MoveReservation moves a kanban card to the column named by "status".
func (h *Handler) MoveReservation(w http.ResponseWriter, r *http.Request) {
	status, ok := entities.ParseStatus(r.FormValue("status"))
	if !ok {
		h.redirectAfter(w, r, validation.Invalid("status", "statut inconnu"), "", "")
		return
	}
	_, err := h.opts.Service.Apply(r.Context(), mux.Vars(r)["id"], entities.StatusChange(status == entities.StatusArrived))
	h.redirectAfter(w, r, err, "Réservation déplacée", "Impossible de déplacer la réservation")
}

func (h *Handler) DeleteReservation(w http.ResponseWriter, r *http.Request) {
	err := h.opts.Service.Delete(r.Context(), mux.Vars(r)["id"])
	h.redirectAfter(w, r, err, "Réservation supprimée", "Impossible de supprimer la réservation")
}

func (h *Handler) newPage(r *http.Request, now time.Time, title, active string) pageData {
	return pageData{
		Title:          title,
		Active:         active,
		RestaurantName: h.opts.RestaurantName,
		Refresh:        refreshSeconds,
		Now:            now,
		Today:          now.Format(utils.DateLayout),
		DefaultTime:    now.Add(defaultArrivalLead).Format("15:04"),
		CurrentURL:     r.URL.RequestURI(),
		Notice:         r.URL.Query().Get("notice"),
		Error:          r.URL.Query().Get("error"),
	}
}

func (h *Handler) loadFailed(r *http.Request, data *pageData, err error) {
	logging.OrDefault(r.Context(), h.opts.Logger).ErrorContext(r.Context(), "page data unavailable", "page", data.Active, "error", err)
	data.Error = "Impossible de charger les réservations. Réessayez dans un instant."
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, page string, data pageData) {
	var buf bytes.Buffer
	if err := h.pages[page].ExecuteTemplate(&buf, templates.Layout, data); err != nil {
		logging.OrDefault(r.Context(), h.opts.Logger).ErrorContext(r.Context(), "render page failed", "page", page, "error", err)
		http.Error(w, "Erreur d'affichage", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// redirectAfter sends the browser back with a flash message.
func (h *Handler) redirectAfter(w http.ResponseWriter, r *http.Request, err error, notice, failure string) {
	target := safeRedirect(r.FormValue("redirect"))
	query := target.Query()
	if err != nil {
		httpErr := apperrors.FromServiceError(err, failure)
		logger := logging.OrDefault(r.Context(), h.opts.Logger)
		if httpErr.Code >= http.StatusInternalServerError {
			logger.ErrorContext(r.Context(), "form action failed", "path", r.URL.Path, "error", err)
		} else {
			logger.InfoContext(r.Context(), "form action rejected", "path", r.URL.Path, "error", err)
		}
		query.Set("error", flashMessage(httpErr))
	} else {
		query.Set("notice", notice)
	}
	target.RawQuery = query.Encode()
	http.Redirect(w, r, target.String(), http.StatusSeeOther)
}

func flashMessage(httpErr *apperrors.HTTPError) string {
	if len(httpErr.Details) == 0 {
		return httpErr.Message
	}
	messages := make([]string, 0, len(httpErr.Details))
	for _, issue := range httpErr.Details {
		messages = append(messages, issue.Message)
	}
	return httpErr.Message + " : " + strings.Join(messages, ", ")
}

// safeRedirect only follows local paths of the staff pages.
func safeRedirect(raw string) *url.URL {
	fallback := &url.URL{Path: "/liste"}
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") {
		return fallback
	}
	target, err := url.Parse(raw)
	if err != nil || target.Host != "" || target.Scheme != "" {
		return fallback
	}
	query := target.Query()
	query.Del("notice")
	query.Del("error")
	target.RawQuery = query.Encode()
	return target
}

// formObject converts the reservation form into a JSON object. Empty optional
// fields are dropped on create and kept on edit, where they clear the column.
func formObject(r *http.Request, edit bool) (validation.Object, error) {
	if err := r.ParseForm(); err != nil {
		return nil, validation.Invalid("", "formulaire illisible")
	}
	values := make(map[string]any)
	for _, key := range []string{"name", "date", "time"} {
		if !edit || r.PostForm.Has(key) {
			values[key] = strings.TrimSpace(r.PostForm.Get(key))
		}
	}
	if raw := strings.TrimSpace(r.PostForm.Get("partySize")); raw != "" {
		if size, err := strconv.Atoi(raw); err == nil {
			values["partySize"] = size
		} else {
			values["partySize"] = raw
		}
	}
	for _, key := range []string{"phone", "notes"} {
		value := strings.TrimSpace(r.PostForm.Get(key))
		if value != "" || (edit && r.PostForm.Has(key)) {
			values[key] = value
		}
	}
	return validation.ObjectFrom(values)
}
