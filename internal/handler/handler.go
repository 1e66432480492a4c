// Package handler exposes the menu, the session cart and checkout as a JSON
// API for the ordering page.
package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/xenking/bistro-kart/internal/checkout"
	"github.com/xenking/bistro-kart/internal/domain/menu"
	"github.com/xenking/bistro-kart/internal/session"
	"github.com/xenking/bistro-kart/pkg/httpmiddleware"
)

// DefaultCookieName names the session cookie.
const DefaultCookieName = "bistro_session"

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths. Empty leaves them
	// as stored.
	ImageBaseURL string
	// CookieName defaults to DefaultCookieName.
	CookieName string
	// CookieSecure marks the session cookie HTTPS-only.
	CookieSecure bool
	// MaxBodyBytes bounds request bodies; 64KiB when zero.
	MaxBodyBytes int64
}

// Handler serves the ordering API.
type Handler struct {
	catalog  menu.Catalog
	sessions *session.Store
	checkout *checkout.Service

	imageBaseURL string
	cookieName   string
	cookieSecure bool
	maxBody      int64

	itemsAdded metric.Int64Counter
}

// New creates a Handler.
func New(
	cfg Config,
	catalog menu.Catalog,
	sessions *session.Store,
	checkoutSvc *checkout.Service,
	meter metric.Meter,
) (*Handler, error) {
	itemsAdded, err := meter.Int64Counter("bistro.cart.items_added",
		metric.WithDescription("Menu entries added to carts"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create cart counter")
	}

	h := &Handler{
		catalog:      catalog,
		sessions:     sessions,
		checkout:     checkoutSvc,
		imageBaseURL: strings.TrimRight(cfg.ImageBaseURL, "/"),
		cookieName:   cfg.CookieName,
		cookieSecure: cfg.CookieSecure,
		maxBody:      cfg.MaxBodyBytes,
		itemsAdded:   itemsAdded,
	}
	if h.cookieName == "" {
		h.cookieName = DefaultCookieName
	}
	if h.maxBody <= 0 {
		h.maxBody = 64 << 10
	}
	return h, nil
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	routes := []struct {
		pattern string
		fn      http.HandlerFunc
	}{
		{"GET /api/menu", h.ListMenu},
		{"GET /api/menu/{id}", h.GetEntry},
		{"POST /api/menu/{id}/quote", h.QuoteEntry},
		{"GET /api/cart", h.GetCart},
		{"DELETE /api/cart", h.ClearCart},
		{"POST /api/cart/items", h.AddItem},
		{"PUT /api/cart/items/{ref}", h.SetQuantity},
		{"DELETE /api/cart/items/{ref}", h.RemoveItem},
		{"POST /api/checkout", h.Checkout},
	}
	for _, rt := range routes {
		mux.Handle(rt.pattern, httpmiddleware.Route(rt.pattern, rt.fn))
	}
}

func (h *Handler) sessionID(r *http.Request) string {
	if c, err := r.Cookie(h.cookieName); err == nil {
		return c.Value
	}
	return ""
}

// existingSession returns the visitor's live session, if any. Read paths use
// it so that anonymous requests never allocate a session.
func (h *Handler) existingSession(r *http.Request) (*session.Session, bool) {
	return h.sessions.Resume(h.sessionID(r))
}

// session returns the visitor's session, issuing a cookie for new ones.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) *session.Session {
	sess, created := h.sessions.Acquire(h.sessionID(r))
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     h.cookieName,
			Value:    sess.ID(),
			Path:     "/",
			HttpOnly: true,
			Secure:   h.cookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess
}

// readBody reads a bounded request body.
func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	return data, nil
}

func (h *Handler) image(path string) string {
	if h.imageBaseURL == "" || path == "" || strings.Contains(path, "://") {
		return path
	}
	return h.imageBaseURL + "/" + strings.TrimLeft(path, "/")
}

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError writes {"code":...,"message":...} plus the offending field
// keys when given.
func writeError(w http.ResponseWriter, status int, msg string, fields ...string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Int(status)
		e.FieldStart("message")
		e.Str(msg)
		if len(fields) > 0 {
			e.FieldStart("fields")
			e.ArrStart()
			for _, f := range fields {
				e.Str(f)
			}
			e.ArrEnd()
		}
		e.ObjEnd()
	})
}

func writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("Request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeBadBody(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	writeError(w, http.StatusBadRequest, "invalid request body")
}

// decodeString reads a string value, treating null as empty.
func decodeString(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Null {
		return "", d.Null()
	}
	return d.Str()
}

// decodeStrings reads an array of strings, treating null as empty.
func decodeStrings(d *jx.Decoder) ([]string, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	var out []string
	err := d.Arr(func(d *jx.Decoder) error {
		s, err := d.Str()
		out = append(out, s)
		return err
	})
	return out, err
}
