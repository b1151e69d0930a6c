package checkout

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/pos-checkout/internal/catalog"
	"github.com/noah-isme/pos-checkout/internal/common"
	"github.com/noah-isme/pos-checkout/internal/obs"
	"github.com/noah-isme/pos-checkout/internal/pricing"
)

// Handler exposes checkout sessions over HTTP.
type Handler struct {
	Sessions *SessionStore
	Catalog  *catalog.Catalog
	Validate *validator.Validate
	Metrics  *obs.CheckoutMetrics
	Logger   zerolog.Logger
}

type itemRequest struct {
	Item string `json:"item" validate:"required"`
}

type sessionResponse struct {
	ID      string  `json:"id"`
	Summary Summary `json:"summary"`
}

type scanResponse struct {
	ID      string      `json:"id"`
	Line    LineSummary `json:"line"`
	Summary Summary     `json:"summary"`
}

type catalogResponse struct {
	Items []pricing.StoreItem `json:"items"`
	Rules []pricing.Rule      `json:"rules"`
}

// Routes mounts the checkout endpoints. writes wraps the mutating scan routes,
// typically with idempotency middleware.
func (h *Handler) Routes(r chi.Router, writes ...func(http.Handler) http.Handler) {
	r.Get("/catalog", h.ListCatalog)
	r.Post("/checkouts", h.Open)
	r.Route("/checkouts/{id}", func(c chi.Router) {
		c.Get("/", h.Get)
		c.Get("/receipt", h.Receipt)
		c.Delete("/", h.Close)
		c.Group(func(g chi.Router) {
			g.Use(writes...)
			g.Post("/scan", h.Scan)
			g.Post("/unscan", h.Unscan)
		})
	})
}

// ListCatalog lists the store items and pricing rules.
func (h *Handler) ListCatalog(w http.ResponseWriter, _ *http.Request) {
	common.Data(w, http.StatusOK, catalogResponse{Items: h.Catalog.Items(), Rules: h.Catalog.Rules()})
}

// Open starts a new checkout session.
func (h *Handler) Open(w http.ResponseWriter, _ *http.Request) {
	s := h.Sessions.Open()
	var summary Summary
	_ = s.Do(func(co *Checkout) error {
		summary = co.Summary()
		return nil
	})
	h.Logger.Info().Str("session_id", s.ID.String()).Msg("checkout opened")
	common.Data(w, http.StatusCreated, sessionResponse{ID: s.ID.String(), Summary: summary})
}

// Get returns the current lines and total of a session.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	var summary Summary
	_ = s.Do(func(co *Checkout) error {
		summary = co.Summary()
		return nil
	})
	common.Data(w, http.StatusOK, sessionResponse{ID: s.ID.String(), Summary: summary})
}

// Receipt renders the plain-text summary of a session.
func (h *Handler) Receipt(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	var sb strings.Builder
	if err := s.Do(func(co *Checkout) error { return co.WriteSummary(&sb) }); err != nil {
		common.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(sb.String()))
}

// Close discards a session.
func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if err := h.Sessions.Close(id); err != nil {
		common.WriteError(w, sessionError(err))
		return
	}
	h.Logger.Info().Str("session_id", id.String()).Msg("checkout closed")
	w.WriteHeader(http.StatusNoContent)
}

// Scan adds one unit of the requested item to the session.
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("checkout").Start(r.Context(), "checkout.scan")
	defer span.End()

	s, item, err := h.sessionAndItem(r.WithContext(ctx))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		common.WriteError(w, err)
		return
	}
	span.SetAttributes(attribute.String("checkout.session_id", s.ID.String()), attribute.String("checkout.item", item.Name))

	var resp scanResponse
	_ = s.Do(func(co *Checkout) error {
		line := co.Scan(item)
		summary := co.Summary()
		resp = scanResponse{ID: s.ID.String(), Line: summary.Lines[len(summary.Lines)-1], Summary: summary}
		h.Metrics.ObserveScan(item.Name, line.Discounted())
		return nil
	})
	span.SetAttributes(attribute.Bool("checkout.discounted", resp.Line.Discounted))
	common.Data(w, http.StatusOK, resp)
}

// Unscan removes the most recently scanned unit of the requested item.
func (h *Handler) Unscan(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("checkout").Start(r.Context(), "checkout.unscan")
	defer span.End()

	s, item, err := h.sessionAndItem(r.WithContext(ctx))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		common.WriteError(w, err)
		return
	}
	span.SetAttributes(attribute.String("checkout.session_id", s.ID.String()), attribute.String("checkout.item", item.Name))

	var summary Summary
	err = s.Do(func(co *Checkout) error {
		if err := co.Unscan(item); err != nil {
			return err
		}
		summary = co.Summary()
		return nil
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, ErrNotFound) {
			h.Metrics.ObserveUnscan("not_found")
			h.Logger.Warn().Str("session_id", s.ID.String()).Str("item", item.Name).Msg("unscan of item not in checkout")
			common.WriteError(w, common.NotFound("ITEM_NOT_SCANNED", item.Name+" not in checkout list", err))
			return
		}
		common.WriteError(w, err)
		return
	}
	h.Metrics.ObserveUnscan("ok")
	common.Data(w, http.StatusOK, sessionResponse{ID: s.ID.String(), Summary: summary})
}

func (h *Handler) sessionAndItem(r *http.Request) (*Session, pricing.StoreItem, error) {
	s, err := h.session(r)
	if err != nil {
		return nil, pricing.StoreItem{}, err
	}
	var payload itemRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return nil, pricing.StoreItem{}, common.BadRequest("invalid payload", err)
	}
	payload.Item = strings.TrimSpace(payload.Item)
	if err := h.structValidator().Struct(payload); err != nil {
		return nil, pricing.StoreItem{}, common.BadRequest("item is required", err)
	}
	item, err := h.Catalog.Item(payload.Item)
	if err != nil {
		return nil, pricing.StoreItem{}, common.NotFound("UNKNOWN_ITEM", "unknown item "+payload.Item, err)
	}
	return s, item, nil
}

func (h *Handler) session(r *http.Request) (*Session, error) {
	id, err := sessionID(r)
	if err != nil {
		return nil, err
	}
	s, err := h.Sessions.Get(id)
	if err != nil {
		return nil, sessionError(err)
	}
	return s, nil
}

func (h *Handler) structValidator() *validator.Validate {
	if h.Validate != nil {
		return h.Validate
	}
	return pricing.Validator()
}

func sessionID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.UUID{}, common.BadRequest("invalid checkout id", err)
	}
	return id, nil
}

func sessionError(err error) error {
	if errors.Is(err, ErrSessionNotFound) {
		return common.NotFound("SESSION_NOT_FOUND", "checkout session not found", err)
	}
	return err
}
