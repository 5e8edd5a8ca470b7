package demosite

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/themizzi/shopcheck/internal/models"
)

// Store errors
var (
	ErrUnknownProduct     = errors.New("unknown product")
	ErrInvalidQuantity    = errors.New("quantity must be positive")
	ErrInvalidCredentials = errors.New("email or password is incorrect")
	ErrEmailTaken         = errors.New("email address already exists")
	ErrNotLoggedIn        = errors.New("not logged in")
	ErrNotInCart          = errors.New("product not in cart")
)

// Product is a catalog entry of the demo storefront.
type Product struct {
	ID           int
	Name         string
	Category     string
	Price        int
	Availability string
	Condition    string
	Brand        string
}

// Details converts the product into the attributes a details page shows.
func (p Product) Details() models.ProductDetails {
	return models.ProductDetails{
		Name:         p.Name,
		Price:        p.Price,
		Category:     p.Category,
		Availability: p.Availability,
		Condition:    p.Condition,
		Brand:        p.Brand,
	}
}

// DefaultCatalog returns the products the storefront serves out of the box.
func DefaultCatalog() []Product {
	stock := func(id int, name, category string, price int, brand string) Product {
		return Product{
			ID:           id,
			Name:         name,
			Category:     category,
			Price:        price,
			Availability: "In Stock",
			Condition:    "New",
			Brand:        brand,
		}
	}
	return []Product{
		stock(1, "Blue Top", "Women > Tops", 500, "Polo"),
		stock(2, "Men Tshirt", "Men > Tshirts", 400, "H&M"),
		stock(3, "Sleeveless Dress", "Women > Dress", 1000, "Madame"),
		stock(4, "Stylish Dress", "Women > Dress", 1500, "Madame"),
		stock(5, "Winter Top", "Women > Tops", 600, "Mast & Harbour"),
		stock(6, "Summer White Top", "Women > Tops", 400, "H&M"),
		stock(7, "Madame Top For Women", "Women > Tops", 1000, "Madame"),
		stock(8, "Fancy Green Top", "Women > Tops", 700, "Polo"),
		stock(28, "Pure Cotton V-Neck T-Shirt", "Men > Tshirts", 1299, "Allen Solly Junior"),
	}
}

// User is a registered storefront account.
type User struct {
	Name     string
	Email    string
	Password string
}

type cartItem struct {
	productID int
	quantity  int
}

type session struct {
	email string
	cart  []cartItem
}

// Store keeps accounts, sessions and carts in memory.
type Store struct {
	mu       sync.Mutex
	products []Product
	byID     map[int]Product
	users    map[string]User
	sessions map[string]*session
}

// NewStore creates a store serving products. Products are listed in ID order.
func NewStore(products []Product) *Store {
	s := &Store{
		products: append([]Product(nil), products...),
		byID:     make(map[int]Product, len(products)),
		users:    make(map[string]User),
		sessions: make(map[string]*session),
	}
	sort.Slice(s.products, func(i, j int) bool { return s.products[i].ID < s.products[j].ID })
	for _, p := range s.products {
		s.byID[p.ID] = p
	}
	return s
}

// Products lists the catalog.
func (s *Store) Products() []Product {
	return append([]Product(nil), s.products...)
}

// Product looks up a catalog entry.
func (s *Store) Product(id int) (Product, error) {
	p, ok := s.byID[id]
	if !ok {
		return Product{}, fmt.Errorf("%w: %d", ErrUnknownProduct, id)
	}
	return p, nil
}

// Register adds an account. Emails are compared case-insensitively.
func (s *Store) Register(user User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := emailKey(user.Email)
	if _, ok := s.users[key]; ok {
		return fmt.Errorf("%w: %s", ErrEmailTaken, user.Email)
	}
	s.users[key] = user
	return nil
}

// NewSession starts an anonymous session and returns its id.
func (s *Store) NewSession() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	s.sessions[id] = &session{}
	return id
}

// HasSession reports whether id names a live session.
func (s *Store) HasSession(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.sessions[id]
	return ok
}

// User returns the account logged in on the session.
func (s *Store) User(sessionID string) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || sess.email == "" {
		return User{}, false
	}
	user, ok := s.users[sess.email]
	return user, ok
}

// Login attaches the account to the session when the password matches.
func (s *Store) Login(sessionID, email, password string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[emailKey(email)]
	if !ok || user.Password == "" || user.Password != password {
		return User{}, ErrInvalidCredentials
	}
	s.session(sessionID).email = emailKey(email)
	return user, nil
}

// Signup registers a passwordless account and logs it in on the session.
func (s *Store) Signup(sessionID, name, email string) (User, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" || email == "" {
		return User{}, errors.New("name and email are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := emailKey(email)
	if _, ok := s.users[key]; ok {
		return User{}, fmt.Errorf("%w: %s", ErrEmailTaken, email)
	}
	user := User{Name: name, Email: email}
	s.users[key] = user
	s.session(sessionID).email = key
	return user, nil
}

// Logout detaches the account from the session.
func (s *Store) Logout(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[sessionID]; ok {
		sess.email = ""
	}
}

// DeleteAccount removes the session's account and logs out every session using it.
func (s *Store) DeleteAccount(sessionID string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || sess.email == "" {
		return User{}, ErrNotLoggedIn
	}
	key := sess.email
	user := s.users[key]
	delete(s.users, key)
	for _, other := range s.sessions {
		if other.email == key {
			other.email = ""
		}
	}
	return user, nil
}

// AddToCart adds quantity of a product to the session's cart.
func (s *Store) AddToCart(sessionID string, productID, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}
	if _, err := s.Product(productID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session(sessionID)
	for i := range sess.cart {
		if sess.cart[i].productID == productID {
			sess.cart[i].quantity += quantity
			return nil
		}
	}
	sess.cart = append(sess.cart, cartItem{productID: productID, quantity: quantity})
	return nil
}

// RemoveFromCart drops a product line from the session's cart.
func (s *Store) RemoveFromCart(sessionID string, productID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session(sessionID)
	for i, item := range sess.cart {
		if item.productID == productID {
			sess.cart = append(sess.cart[:i], sess.cart[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %d", ErrNotInCart, productID)
}

// Cart returns the session's cart in the order products were first added.
func (s *Store) Cart(sessionID string) models.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cart models.Cart
	sess, ok := s.sessions[sessionID]
	if !ok {
		return cart
	}
	for _, item := range sess.cart {
		p := s.byID[item.productID]
		cart.Lines = append(cart.Lines, models.CartLine{
			ID:       p.ID,
			Name:     p.Name,
			Category: p.Category,
			Price:    p.Price,
			Quantity: item.quantity,
			Total:    p.Price * item.quantity,
		})
	}
	return cart
}

// session returns the session, creating it for ids the store has not seen. Callers hold mu.
func (s *Store) session(id string) *session {
	sess, ok := s.sessions[id]
	if !ok {
		sess = &session{}
		s.sessions[id] = sess
	}
	return sess
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
