package http

import (
	"net/http"
	"strings"
)

type RouterConfig struct {
	Auth          *AuthHandler
	Users         *UserHandler
	Agents        *AgentHandler
	Appointments  *AppointmentHandler
	Plans         *PlanHandler
	Notifications *NotificationHandler
	Admin         *AdminHandler
	Middleware    []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Auth != nil {
		mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Login(w, r)
		})
		mux.HandleFunc("/logout", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Logout(w, r)
		})
	}

	if cfg.Users != nil {
		mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost:
				cfg.Users.Register(w, r)
			case http.MethodGet:
				cfg.Users.List(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/users/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/users/")
			if id == "" || strings.Contains(id, "/") {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			r = r.WithContext(ContextWithResourceID(r.Context(), id))
			cfg.Users.Get(w, r)
		})
	}

	if cfg.Agents != nil {
		mux.HandleFunc("/agents", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Agents.List(w, r)
		})
		mux.HandleFunc("/agents/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/agents/")
			id, tail, _ := strings.Cut(rest, "/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithResourceID(r.Context(), id))
			switch tail {
			case "":
				switch r.Method {
				case http.MethodGet:
					cfg.Agents.Get(w, r)
				case http.MethodPut:
					cfg.Agents.Update(w, r)
				default:
					methodNotAllowed(w, http.MethodGet, http.MethodPut)
				}
			case "availability":
				if r.Method != http.MethodPut {
					methodNotAllowed(w, http.MethodPut)
					return
				}
				cfg.Agents.SetAvailability(w, r)
			default:
				http.NotFound(w, r)
			}
		})
	}

	if cfg.Appointments != nil {
		mux.HandleFunc("/appointments", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Appointments.Create(w, r)
		})
		mux.HandleFunc("/appointments/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/appointments/")
			head, tail, _ := strings.Cut(rest, "/")
			if head == "" {
				http.NotFound(w, r)
				return
			}

			switch head {
			case "customer", "agent":
				if tail == "" || strings.Contains(tail, "/") {
					http.NotFound(w, r)
					return
				}
				if r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				r = r.WithContext(ContextWithSubjectID(r.Context(), tail))
				if head == "customer" {
					cfg.Appointments.ListForCustomer(w, r)
				} else {
					cfg.Appointments.ListForAgent(w, r)
				}
			default:
				r = r.WithContext(ContextWithResourceID(r.Context(), head))
				switch tail {
				case "":
					if r.Method != http.MethodGet {
						methodNotAllowed(w, http.MethodGet)
						return
					}
					cfg.Appointments.Get(w, r)
				case "status":
					if r.Method != http.MethodPut {
						methodNotAllowed(w, http.MethodPut)
						return
					}
					cfg.Appointments.UpdateStatus(w, r)
				default:
					http.NotFound(w, r)
				}
			}
		})
	}

	if cfg.Plans != nil {
		mux.HandleFunc("/plans", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Plans.List(w, r)
			case http.MethodPost:
				cfg.Plans.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/plans/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/plans/")
			if id == "" || strings.Contains(id, "/") {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithResourceID(r.Context(), id))
			switch r.Method {
			case http.MethodGet:
				cfg.Plans.Get(w, r)
			case http.MethodPut:
				cfg.Plans.Update(w, r)
			case http.MethodDelete:
				cfg.Plans.Delete(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
			}
		})
	}

	if cfg.Notifications != nil {
		mux.HandleFunc("/notifications", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Notifications.List(w, r)
		})
		mux.HandleFunc("/notifications/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/notifications/")
			id, tail, _ := strings.Cut(rest, "/")
			if id == "" || tail != "read" {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodPut {
				methodNotAllowed(w, http.MethodPut)
				return
			}
			r = r.WithContext(ContextWithResourceID(r.Context(), id))
			cfg.Notifications.MarkRead(w, r)
		})
	}

	if cfg.Admin != nil {
		mux.HandleFunc("/admin/stats", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Admin.Stats(w, r)
		})
		mux.HandleFunc("/admin/users/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/admin/users/")
			id, tail, _ := strings.Cut(rest, "/")
			if id == "" || tail != "status" {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodPut {
				methodNotAllowed(w, http.MethodPut)
				return
			}
			r = r.WithContext(ContextWithResourceID(r.Context(), id))
			cfg.Admin.UpdateUserStatus(w, r)
		})
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
