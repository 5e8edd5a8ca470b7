// Package demosite serves a small storefront rendering the markup the page
// objects drive: product listing and details, login and signup, cart,
// account deletion, the add-to-cart modal and a consent banner.
package demosite

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/themizzi/shopcheck/internal/config"
	"github.com/themizzi/shopcheck/internal/models"
)

// SessionCookie carries the visitor's session id.
const SessionCookie = "sessionid"

// ConsentCookie is set once the consent banner was accepted.
const ConsentCookie = "consent"

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = []string{
	"home.html",
	"products.html",
	"product_details.html",
	"cart.html",
	"login.html",
	"account_deleted.html",
}

// PageData is the data every storefront template renders.
type PageData struct {
	Title       string
	Heading     string
	User        *User
	Consent     bool
	Products    []Product
	Product     Product
	Lines       []models.CartLine
	LoginError  bool
	SignupError bool
}

// Server is the storefront's http.Handler.
type Server struct {
	store     *Store
	config    config.ServerConfig
	templates map[string]*template.Template
	mux       *http.ServeMux
	log       *zap.Logger
}

// NewServer parses the embedded templates and registers the storefront routes.
// The configured demo account is registered in store.
func NewServer(store *Store, cfg config.ServerConfig, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	if cfg.DemoEmail != "" && cfg.DemoPassword != "" {
		demo := User{Name: cfg.DemoName, Email: cfg.DemoEmail, Password: cfg.DemoPassword}
		if err := store.Register(demo); err != nil && !errors.Is(err, ErrEmailTaken) {
			return nil, fmt.Errorf("failed to register demo account: %w", err)
		}
	}

	s := &Server{
		store:     store,
		config:    cfg,
		templates: templates,
		mux:       http.NewServeMux(),
		log:       logger,
	}
	s.routes()
	return s, nil
}

func parseTemplates() (map[string]*template.Template, error) {
	funcs := template.FuncMap{"price": models.FormatPrice}
	templates := make(map[string]*template.Template, len(pageTemplates))
	for _, name := range pageTemplates {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		templates[name] = tmpl
	}
	return templates, nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleHome)
	s.mux.HandleFunc("GET /products", s.handleProducts)
	s.mux.HandleFunc("GET /product_details/{id}", s.handleProductDetails)
	s.mux.HandleFunc("GET /add_to_cart/{id}", s.handleAddToCart)
	s.mux.HandleFunc("GET /delete_cart/{id}", s.handleDeleteCart)
	s.mux.HandleFunc("GET /view_cart", s.handleViewCart)
	s.mux.HandleFunc("GET /login", s.handleLoginPage)
	s.mux.HandleFunc("POST /login", s.handleLogin)
	s.mux.HandleFunc("POST /signup", s.handleSignup)
	s.mux.HandleFunc("GET /logout", s.handleLogout)
	s.mux.HandleFunc("GET /delete_account", s.handleDeleteAccount)
	s.mux.HandleFunc("GET /consent", s.handleConsent)
}

type sessionKey struct{}

// ServeHTTP makes sure every visitor carries a session before routing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var id string
	if c, err := r.Cookie(SessionCookie); err == nil && s.store.HasSession(c.Value) {
		id = c.Value
	} else {
		id = s.store.NewSession()
		http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: id, Path: "/", HttpOnly: true})
	}
	s.mux.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, id)))
}

func sessionID(r *http.Request) string {
	id, _ := r.Context().Value(sessionKey{}).(string)
	return id
}

func (s *Server) pageData(r *http.Request, title string) PageData {
	data := PageData{Title: title}
	if user, ok := s.store.User(sessionID(r)); ok {
		data.User = &user
	}
	if s.config.ConsentPopup {
		_, err := r.Cookie(ConsentCookie)
		data.Consent = err != nil
	}
	return data
}

func (s *Server) render(w http.ResponseWriter, name string, status int, data PageData) {
	tmpl, ok := s.templates[name]
	if !ok {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, name, data); err != nil {
		s.log.Error("failed to render template", zap.String("template", name), zap.Error(err))
	}
}

func productID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownProduct, r.PathValue("id"))
	}
	return id, nil
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	data := s.pageData(r, "shopcheck demo store")
	data.Heading = "Features Items"
	data.Products = s.store.Products()
	s.render(w, "home.html", http.StatusOK, data)
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	data := s.pageData(r, "shopcheck demo store - All Products")
	data.Heading = "All Products"
	data.Products = s.store.Products()
	s.render(w, "products.html", http.StatusOK, data)
}

func (s *Server) handleProductDetails(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err == nil {
		var product Product
		if product, err = s.store.Product(id); err == nil {
			data := s.pageData(r, "shopcheck demo store - Product Details")
			data.Product = product
			s.render(w, "product_details.html", http.StatusOK, data)
			return
		}
	}
	http.Error(w, "Product not found", http.StatusNotFound)
}

func (s *Server) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}

	quantity := 1
	if raw := r.URL.Query().Get("quantity"); raw != "" {
		quantity, err = models.ParseQuantity(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	switch err := s.store.AddToCart(sessionID(r), id, quantity); {
	case errors.Is(err, ErrUnknownProduct):
		http.Error(w, "Product not found", http.StatusNotFound)
	case err != nil:
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		s.log.Debug("added to cart", zap.Int("product", id), zap.Int("quantity", quantity))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, "Added To Cart")
	}
}

func (s *Server) handleDeleteCart(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err == nil {
		err = s.store.RemoveFromCart(sessionID(r), id)
	}
	if err != nil {
		http.Error(w, "Product not in cart", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, "Removed From Cart")
}

func (s *Server) handleViewCart(w http.ResponseWriter, r *http.Request) {
	data := s.pageData(r, "shopcheck demo store - Checkout")
	data.Lines = s.store.Cart(sessionID(r)).Lines
	s.render(w, "cart.html", http.StatusOK, data)
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, "login.html", http.StatusOK, s.pageData(r, "shopcheck demo store - Signup / Login"))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	user, err := s.store.Login(sessionID(r), r.PostForm.Get("email"), r.PostForm.Get("password"))
	if err != nil {
		s.log.Info("login rejected", zap.String("email", r.PostForm.Get("email")))
		data := s.pageData(r, "shopcheck demo store - Signup / Login")
		data.LoginError = true
		s.render(w, "login.html", http.StatusOK, data)
		return
	}
	s.log.Info("logged in", zap.String("email", user.Email))
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	user, err := s.store.Signup(sessionID(r), r.PostForm.Get("name"), r.PostForm.Get("email"))
	if err != nil {
		s.log.Info("signup rejected", zap.String("email", r.PostForm.Get("email")), zap.Error(err))
		data := s.pageData(r, "shopcheck demo store - Signup / Login")
		data.SignupError = true
		s.render(w, "login.html", http.StatusOK, data)
		return
	}
	s.log.Info("signed up", zap.String("email", user.Email))
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.store.Logout(sessionID(r))
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	user, err := s.store.DeleteAccount(sessionID(r))
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	s.log.Info("account deleted", zap.String("email", user.Email))
	s.render(w, "account_deleted.html", http.StatusOK, s.pageData(r, "shopcheck demo store - Account Deleted"))
}

func (s *Server) handleConsent(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: ConsentCookie, Value: "yes", Path: "/", MaxAge: 365 * 24 * 60 * 60})
	w.WriteHeader(http.StatusNoContent)
}
