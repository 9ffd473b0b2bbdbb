package httppresentation

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	appcatalog "github.com/asif4762/bookbarn-final-server/internal/application/catalog"
	appcheckout "github.com/asif4762/bookbarn-final-server/internal/application/checkout"
	"github.com/asif4762/bookbarn-final-server/internal/domain/billing"
	"github.com/asif4762/bookbarn-final-server/internal/domain/cart"
	"github.com/asif4762/bookbarn-final-server/internal/domain/catalog"
	"github.com/asif4762/bookbarn-final-server/internal/domain/checkout"
	"github.com/asif4762/bookbarn-final-server/internal/domain/contact"
	"github.com/asif4762/bookbarn-final-server/internal/domain/review"
	"github.com/asif4762/bookbarn-final-server/internal/domain/user"
)

// IDGenerator provides ids for resources created directly by the handler.
type IDGenerator interface {
	NewID() string
}

type Handler struct {
	checkout *appcheckout.Service
	catalog  *appcatalog.Service
	carts    cart.Repository
	ledger   billing.Ledger
	users    user.Repository
	reviews  review.Repository
	contacts contact.Repository
	ids      IDGenerator
	metrics  *Metrics
	log      *zap.Logger

	// statusPageURL is where a confirmed buyer lands after the gateway callback.
	statusPageURL string
}

const componentHTTPHandler = "http_server"

func NewHandler(
	checkoutSvc *appcheckout.Service,
	catalogSvc *appcatalog.Service,
	carts cart.Repository,
	ledger billing.Ledger,
	users user.Repository,
	reviews review.Repository,
	contacts contact.Repository,
	ids IDGenerator,
	metrics *Metrics,
	logger *zap.Logger,
	statusPageURL string,
) *Handler {
	if logger == nil {
		logger = zap.L()
	}
	return &Handler{
		checkout:      checkoutSvc,
		catalog:       catalogSvc,
		carts:         carts,
		ledger:        ledger,
		users:         users,
		reviews:       reviews,
		contacts:      contacts,
		ids:           ids,
		metrics:       metrics,
		log:           logger.With(zap.String("component", componentHTTPHandler)),
		statusPageURL: statusPageURL,
	}
}

func (h *Handler) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)

	r.HandleFunc("/books", h.handleListBooks).Methods(http.MethodGet)
	r.HandleFunc("/books", h.handleAddBook).Methods(http.MethodPost)
	r.HandleFunc("/books/category/{category}", h.handleBooksByCategory).Methods(http.MethodGet)
	r.HandleFunc("/books/{id}", h.handleDeleteBook).Methods(http.MethodDelete)

	r.HandleFunc("/reviews", h.handleListReviews).Methods(http.MethodGet)
	r.HandleFunc("/reviews", h.handleAddReview).Methods(http.MethodPost)

	r.HandleFunc("/carts", h.handleListCart).Methods(http.MethodGet)
	r.HandleFunc("/carts", h.handleUpsertCart).Methods(http.MethodPost)
	r.HandleFunc("/carts/{bookId}", h.handleUpdateCartCount).Methods(http.MethodPut)
	r.HandleFunc("/carts/{bookId}", h.handleRemoveCartItem).Methods(http.MethodDelete)

	r.HandleFunc("/users", h.handleCreateUser).Methods(http.MethodPost)
	r.HandleFunc("/users", h.handleListUsers).Methods(http.MethodGet)
	r.HandleFunc("/users/{email}", h.handleGetUser).Methods(http.MethodGet)
	r.HandleFunc("/users/{email}", h.handleUpdateUserRole).Methods(http.MethodPatch)

	r.HandleFunc("/contact", h.handleListContacts).Methods(http.MethodGet)
	r.HandleFunc("/contact", h.handleAddContact).Methods(http.MethodPost)

	r.HandleFunc("/billings", h.handleListBillings).Methods(http.MethodGet)

	r.HandleFunc("/checkout/initiate", h.handleInitiateCheckout).Methods(http.MethodPost)
	// The gateway POSTs the success callback; GET is kept for manual retries.
	r.HandleFunc("/checkout/callback", h.handleCheckoutCallback).Methods(http.MethodPost, http.MethodGet)

	r.Use(h.traceMiddleware, h.metricsMiddleware, h.accessLogMiddleware)
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

type bookPayload struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Course      string `json:"course"`
	Condition   string `json:"condition"`
	Category    string `json:"category"`
	Description string `json:"bookDescription"`
	Location    string `json:"location"`
	Image       string `json:"image"`
	SellerEmail string `json:"sellerEmail"`
	Price       int64  `json:"price"`
	Quantity    int    `json:"quantity"`
	OrderCount  int    `json:"orderCount"`
}

func bookToPayload(l *catalog.Listing) bookPayload {
	return bookPayload{
		ID:          l.ID,
		Title:       l.Title,
		Author:      l.Author,
		Course:      l.Course,
		Condition:   l.Condition,
		Category:    l.Category,
		Description: l.Description,
		Location:    l.Location,
		Image:       l.Image,
		SellerEmail: l.SellerEmail,
		Price:       l.Price,
		Quantity:    l.Quantity,
		OrderCount:  l.OrderCount,
	}
}

func toBookPayloads(listings []*catalog.Listing) []bookPayload {
	out := make([]bookPayload, 0, len(listings))
	for _, l := range listings {
		out = append(out, bookToPayload(l))
	}
	return out
}

func (h *Handler) handleListBooks(w http.ResponseWriter, r *http.Request) {
	filter := catalog.Filter{SellerEmail: r.URL.Query().Get("sellerEmail")}
	listings, err := h.catalog.List(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookPayloads(listings))
}

func (h *Handler) handleBooksByCategory(w http.ResponseWriter, r *http.Request) {
	filter := catalog.Filter{Category: mux.Vars(r)["category"]}
	listings, err := h.catalog.List(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookPayloads(listings))
}

func (h *Handler) handleAddBook(w http.ResponseWriter, r *http.Request) {
	var req bookPayload
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	listing, err := h.catalog.Add(r.Context(), appcatalog.AddInput{
		Title:       req.Title,
		Author:      req.Author,
		Course:      req.Course,
		Condition:   req.Condition,
		Category:    req.Category,
		Description: req.Description,
		Location:    req.Location,
		Image:       req.Image,
		SellerEmail: req.SellerEmail,
		Price:       req.Price,
		Quantity:    req.Quantity,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, bookToPayload(listing))
}

func (h *Handler) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "book deleted"})
}

type reviewPayload struct {
	ID      string `json:"id,omitempty"`
	BookID  string `json:"bookId"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Rating  int    `json:"rating"`
}

func (h *Handler) handleListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviews.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]reviewPayload, 0, len(reviews))
	for _, rv := range reviews {
		out = append(out, reviewPayload{
			ID:      rv.ID,
			BookID:  rv.BookID,
			Email:   rv.BuyerEmail,
			Name:    rv.Name,
			Title:   rv.Title,
			Message: rv.Message,
			Rating:  rv.Rating,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleAddReview(w http.ResponseWriter, r *http.Request) {
	var req reviewPayload
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rv, err := review.New(h.ids.NewID(), req.BookID, req.Email, req.Name, req.Title, req.Message, req.Rating)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.reviews.Insert(r.Context(), rv); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "review added", "id": rv.ID})
}

type cartItemPayload struct {
	Email  string `json:"email"`
	BookID string `json:"bookId"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Image  string `json:"image"`
	Price  int64  `json:"price"`
	Count  int    `json:"count"`
}

func (h *Handler) handleListCart(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, errors.New("email query param is required"))
		return
	}
	items, err := h.carts.ListByBuyer(r.Context(), email)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]cartItemPayload, 0, len(items))
	for _, item := range items {
		out = append(out, cartItemPayload{
			Email:  item.BuyerEmail,
			BookID: item.BookID,
			Title:  item.Title,
			Author: item.Author,
			Image:  item.Image,
			Price:  item.Price,
			Count:  item.Count,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleUpsertCart(w http.ResponseWriter, r *http.Request) {
	var req cartItemPayload
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Count == 0 {
		req.Count = 1
	}
	item, err := cart.NewItem(req.Email, req.BookID, req.Count)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	item.Title = req.Title
	item.Author = req.Author
	item.Image = req.Image
	item.Price = req.Price

	if err := h.carts.Upsert(r.Context(), item); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "cart updated"})
}

func (h *Handler) handleUpdateCartCount(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, errors.New("email query param is required"))
		return
	}
	var req struct {
		Count int `json:"count"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.carts.UpdateCount(r.Context(), email, mux.Vars(r)["bookId"], req.Count); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "updatedCount": req.Count})
}

func (h *Handler) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, errors.New("email query param is required"))
		return
	}
	if err := h.carts.Remove(r.Context(), email, mux.Vars(r)["bookId"]); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

type userPayload struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req userPayload
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	u, err := user.New(req.Email, req.Name, user.Role(req.Role))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.users.Insert(r.Context(), u); err != nil {
		if errors.Is(err, user.ErrAlreadyExists) {
			writeJSON(w, http.StatusOK, map[string]string{"message": "user already exists"})
			return
		}
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "user created"})
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]userPayload, 0, len(users))
	for _, u := range users {
		out = append(out, userPayload{Email: u.Email, Name: u.Name, Role: string(u.Role)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.FindByEmail(r.Context(), mux.Vars(r)["email"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userPayload{Email: u.Email, Name: u.Name, Role: string(u.Role)})
}

func (h *Handler) handleUpdateUserRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role string `json:"role"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	role, err := user.ParseRole(req.Role)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.users.UpdateRole(r.Context(), mux.Vars(r)["email"], role); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "role updated"})
}

type contactPayload struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

func (h *Handler) handleListContacts(w http.ResponseWriter, r *http.Request) {
	messages, err := h.contacts.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]contactPayload, 0, len(messages))
	for _, m := range messages {
		out = append(out, contactPayload{Name: m.Name, Email: m.Email, Message: m.Body})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleAddContact(w http.ResponseWriter, r *http.Request) {
	var req contactPayload
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	m, err := contact.New(h.ids.NewID(), req.Name, req.Email, req.Message)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.contacts.Insert(r.Context(), m); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "id": m.ID})
}

type billingLinePayload struct {
	BookID    string `json:"bookId"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Image     string `json:"image"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	Fulfilled bool   `json:"fulfilled"`
	Reason    string `json:"reason,omitempty"`
}

type billingPayload struct {
	ID            string               `json:"id"`
	Email         string               `json:"email"`
	TransactionID string               `json:"transactionId"`
	Items         []billingLinePayload `json:"items"`
	Total         int64                `json:"total"`
	PurchasedAt   time.Time            `json:"purchasedAt"`
}

func billingToPayload(rec *billing.Record) billingPayload {
	items := make([]billingLinePayload, 0, len(rec.Lines))
	for _, line := range rec.Lines {
		items = append(items, billingLinePayload{
			BookID:    line.BookID,
			Title:     line.Title,
			Author:    line.Author,
			Image:     line.Image,
			Price:     line.Price,
			Quantity:  line.Count,
			Fulfilled: line.Fulfilled,
			Reason:    line.Reason,
		})
	}
	return billingPayload{
		ID:            rec.ID,
		Email:         rec.BuyerEmail,
		TransactionID: rec.TransactionID,
		Items:         items,
		Total:         rec.Total(),
		PurchasedAt:   rec.PurchasedAt,
	}
}

func (h *Handler) handleListBillings(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, errors.New("email query param is required"))
		return
	}
	records, err := h.ledger.ListByBuyer(r.Context(), email)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]billingPayload, 0, len(records))
	for _, rec := range records {
		out = append(out, billingToPayload(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

type initiateRequest struct {
	Email string `json:"email"`
	Items []struct {
		BookID string `json:"bookId"`
		Count  int    `json:"count"`
	} `json:"items"`
}

type initiateResponse struct {
	TransactionID string `json:"transactionId"`
	RedirectURL   string `json:"redirectUrl"`
	TotalAmount   int64  `json:"totalAmount"`
}

func (h *Handler) handleInitiateCheckout(w http.ResponseWriter, r *http.Request) {
	var req initiateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	lines := make([]appcheckout.LineInput, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, appcheckout.LineInput{BookID: item.BookID, Count: item.Count})
	}
	result, err := h.checkout.Initiate(r.Context(), appcheckout.InitiateInput{
		BuyerEmail: req.Email,
		Lines:      lines,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, initiateResponse{
		TransactionID: result.TransactionID,
		RedirectURL:   result.RedirectURL,
		TotalAmount:   result.TotalAmount,
	})
}

// handleCheckoutCallback receives the gateway's at-least-once success
// notification. A replayed transaction id succeeds without side effects, so
// the buyer always lands on the status page; a 5xx tells the gateway to retry.
func (h *Handler) handleCheckoutCallback(w http.ResponseWriter, r *http.Request) {
	transactionID := r.URL.Query().Get("tran_id")
	email := r.URL.Query().Get("email")
	if transactionID == "" || email == "" {
		writeError(w, http.StatusBadRequest, errors.New("tran_id and email are required"))
		return
	}
	if _, err := h.checkout.Confirm(r.Context(), transactionID, email); err != nil {
		writeDomainError(w, err)
		return
	}
	http.Redirect(w, r, h.statusPageURL, http.StatusSeeOther)
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, cart.ErrNotFound),
		errors.Is(err, user.ErrNotFound),
		errors.Is(err, billing.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, catalog.ErrConflict),
		errors.Is(err, review.ErrDuplicate):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, checkout.ErrGateway):
		writeError(w, http.StatusBadGateway, err)
	case errors.Is(err, checkout.ErrValidation),
		errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, cart.ErrInvalidCount),
		errors.Is(err, cart.ErrMissingField),
		errors.Is(err, catalog.ErrInvalidPrice),
		errors.Is(err, catalog.ErrInvalidQuantity),
		errors.Is(err, catalog.ErrMissingField),
		errors.Is(err, review.ErrInvalidRating),
		errors.Is(err, review.ErrMissingField),
		errors.Is(err, user.ErrInvalidRole),
		errors.Is(err, user.ErrMissingField),
		errors.Is(err, contact.ErrMissingField),
		errors.Is(err, billing.ErrMissingField):
		writeError(w, http.StatusBadRequest, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}
