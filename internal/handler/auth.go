package handler

import (
	"net/http"
	"strings"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/knagata/storefront/internal/domain/user"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string   `json:"token"`
	User  userView `json:"user"`
}

type userView struct {
	ID        string       `json:"id"`
	Username  string       `json:"username"`
	Email     string       `json:"email"`
	FirstName string       `json:"firstName"`
	LastName  string       `json:"lastName"`
	Address   *addressView `json:"address,omitempty"`
}

type addressView struct {
	Name       string `json:"name"`
	PostalCode string `json:"postalCode"`
	Prefecture string `json:"prefecture"`
	City       string `json:"city"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

func viewUser(u *user.User) userView {
	v := userView{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
	if u.Address != nil {
		v.Address = &addressView{
			Name:       u.Address.Name,
			PostalCode: u.Address.PostalCode,
			Prefecture: u.Address.Prefecture,
			City:       u.Address.City,
			Line1:      u.Address.Line1,
			Line2:      u.Address.Line2,
			Phone:      u.Address.Phone,
		}
	}
	return v
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	u, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	token, err := h.sessions.Create(r.Context(), u.ID)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	zctx.From(r.Context()).Info("user logged in", zap.String("user_id", u.ID))
	respondData(w, http.StatusOK, loginResponse{
		Token: token,
		User:  viewUser(u),
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	// Logout is best-effort: revoking an unknown or expired token still
	// succeeds so clients can always discard their credentials.
	if token := bearerToken(r); token != "" {
		_ = h.sessions.Revoke(r.Context(), token)
	}
	respondMessage(w, http.StatusOK)
}

func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request, u *user.User) {
	respondData(w, http.StatusOK, viewUser(u))
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return strings.TrimSpace(auth[len(prefix):])
}

// authedFunc is an HTTP handler that additionally receives the
// authenticated user.
type authedFunc func(http.ResponseWriter, *http.Request, *user.User)

// requireAuth resolves the bearer token to a user and passes it to next.
// Missing, unknown and expired tokens all produce 401.
func (h *Handler) requireAuth(next authedFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			respondUnauthorized(w, "authentication required")
			return
		}

		userID, err := h.sessions.Resolve(r.Context(), token)
		if err != nil {
			respondError(r.Context(), w, err)
			return
		}

		u, err := h.users.Get(r.Context(), userID)
		if err != nil {
			// The session outlived the user; treat it as unauthenticated
			// rather than leaking a 404.
			respondUnauthorized(w, "authentication required")
			return
		}

		next(w, r, u)
	})
}
