package http

import (
	"log/slog"
	"net/http"
	"strings"
)

type RouterConfig struct {
	Auth      *AuthHandler
	Favorites *FavoriteHandler
	Bookings  *BookingHandler
	// Guard decides access to routes that need a signed-in user. A nil guard
	// rejects every guarded request.
	Guard      SessionGuard
	Logger     *slog.Logger
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	guarded := RequireSession(cfg.Guard, cfg.Logger)

	if cfg.Auth != nil {
		mux.HandleFunc("/auth/sign-in", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.SignIn(w, r)
		})
		mux.HandleFunc("/auth/sign-up", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.SignUp(w, r)
		})
		mux.HandleFunc("/auth/sign-out", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.SignOut(w, r)
		})
		mux.HandleFunc("/auth/session", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Auth.Current(w, r)
		})
	}

	if cfg.Favorites != nil {
		toggle := func(spaceID string) http.Handler {
			return guarded(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				cfg.Favorites.Toggle(w, r, spaceID)
			}))
		}
		mux.HandleFunc("/favorites/", func(w http.ResponseWriter, r *http.Request) {
			spaceID := strings.TrimPrefix(r.URL.Path, "/favorites/")
			if spaceID == "" || strings.Contains(spaceID, "/") {
				http.NotFound(w, r)
				return
			}
			switch r.Method {
			case http.MethodGet:
				cfg.Favorites.Check(w, r, spaceID)
			case http.MethodPost:
				toggle(spaceID).ServeHTTP(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
	}

	if cfg.Bookings != nil {
		mux.Handle("/bookings", guarded(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Bookings.List(w, r)
			case http.MethodPost:
				cfg.Bookings.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})))
		mux.Handle("/bookings/", guarded(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/bookings/")
			if rest == "stats" {
				if r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				cfg.Bookings.Stats(w, r)
				return
			}

			id, action, _ := strings.Cut(rest, "/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			switch action {
			case "":
				switch r.Method {
				case http.MethodGet:
					cfg.Bookings.Get(w, r, id)
				case http.MethodPatch:
					cfg.Bookings.Update(w, r, id)
				case http.MethodDelete:
					cfg.Bookings.Delete(w, r, id)
				default:
					methodNotAllowed(w, http.MethodGet, http.MethodPatch, http.MethodDelete)
				}
			case "cancel":
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				cfg.Bookings.Cancel(w, r, id)
			case "status":
				if r.Method != http.MethodPut {
					methodNotAllowed(w, http.MethodPut)
					return
				}
				cfg.Bookings.SetStatus(w, r, id)
			default:
				http.NotFound(w, r)
			}
		})))
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
