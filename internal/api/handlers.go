package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/cjburns0/crwv-tracker/internal/marketdata"
	"github.com/cjburns0/crwv-tracker/internal/models"
	"github.com/cjburns0/crwv-tracker/internal/stock"
)

const defaultLogsPerPage = 20

// StockService is the price surface the handlers expose.
type StockService interface {
	CurrentPrice(ctx context.Context) (decimal.Decimal, bool)
	History(ctx context.Context, rng string) ([]marketdata.Bar, bool)
	ComputeChanges(ctx context.Context, now time.Time) *stock.Changes
	IsMarketOpen(now time.Time) bool
	RecentData(limit int) ([]*models.StockData, error)
}

// Notifier sends notification batches.
type Notifier interface {
	SendToAll(ctx context.Context, kind string, price decimal.Decimal) (int, int)
}

// Store is the persistence subset the handlers need.
type Store interface {
	GetOrCreateSettings() (*models.Settings, error)
	UpdateSettings(s *models.Settings) error
	CreateUser(u *models.User) error
	GetAllUsers() ([]*models.User, error)
	GetNotificationLogsPage(page, perPage int) ([]*models.NotificationLog, error)
	CountNotificationLogs() (int, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	store    Store
	stocks   StockService
	notifier Notifier
	symbol   string
	logger   *zap.Logger
}

// NewHandler creates a new Handler
func NewHandler(store Store, stocks StockService, notifier Notifier, symbol string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		store:    store,
		stocks:   stocks,
		notifier: notifier,
		symbol:   symbol,
		logger:   logger,
	}
}

// GetStock handles GET /stock. Missing price data renders as nulls, not as
// an error response.
func (h *Handler) GetStock(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	resp := struct {
		Symbol       string              `json:"symbol"`
		MarketOpen   bool                `json:"market_open"`
		CurrentPrice *decimal.Decimal    `json:"current_price"`
		Changes      *stock.Changes      `json:"changes,omitempty"`
		RecentData   []*models.StockData `json:"recent_data"`
	}{
		Symbol:     h.symbol,
		MarketOpen: h.stocks.IsMarketOpen(now),
	}

	if changes := h.stocks.ComputeChanges(r.Context(), now); changes != nil {
		resp.CurrentPrice = &changes.CurrentPrice
		resp.Changes = changes
	}

	recent, err := h.stocks.RecentData(5)
	if err != nil {
		h.logger.Error("failed to load recent stock data", zap.Error(err))
	}
	resp.RecentData = recent

	respondJSON(w, http.StatusOK, resp)
}

// GetHistory handles GET /stock/history
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	rng := r.URL.Query().Get("range")
	if rng == "" {
		rng = "5d"
	}

	bars, ok := h.stocks.History(r.Context(), rng)
	if !ok {
		http.Error(w, "no historical data available", http.StatusServiceUnavailable)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": h.symbol,
		"range":  rng,
		"bars":   bars,
	})
}

// GetNotificationLogs handles GET /notifications
func (h *Handler) GetNotificationLogs(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage < 1 || perPage > 100 {
		perPage = defaultLogsPerPage
	}

	logs, err := h.store.GetNotificationLogsPage(page, perPage)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	total, err := h.store.CountNotificationLogs()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": logs,
		"page":          page,
		"per_page":      perPage,
		"total":         total,
	})
}

// SendTestNotification handles POST /notifications/test
func (h *Handler) SendTestNotification(w http.ResponseWriter, r *http.Request) {
	price, ok := h.stocks.CurrentPrice(r.Context())
	if !ok {
		respondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"success": false,
			"error":   "unable to fetch current stock price for test",
		})
		return
	}

	sent, total := h.notifier.SendToAll(r.Context(), models.KindTest, price)
	if sent == 0 {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"success": false,
			"sent":    0,
			"total":   total,
			"error":   "failed to send test notifications",
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"sent":    sent,
		"total":   total,
	})
}

type settingsResponse struct {
	PhoneNumber1         string `json:"phone_number_1,omitempty"`
	PhoneNumber2         string `json:"phone_number_2,omitempty"`
	PhoneNumber3         string `json:"phone_number_3,omitempty"`
	PhoneNumber4         string `json:"phone_number_4,omitempty"`
	NotificationsEnabled bool   `json:"notifications_enabled"`
	MarketOpenTime       string `json:"market_open_time"`
	MarketCloseTime      string `json:"market_close_time"`
	PasswordProtected    bool   `json:"password_protected"`
}

func maskedSettings(s *models.Settings) settingsResponse {
	resp := settingsResponse{
		NotificationsEnabled: s.NotificationsEnabled,
		MarketOpenTime:       s.MarketOpenTime,
		MarketCloseTime:      s.MarketCloseTime,
		PasswordProtected:    s.HasPasswordProtection(),
	}
	if s.PhoneNumber1 != nil && *s.PhoneNumber1 != "" {
		resp.PhoneNumber1 = models.MaskPhone(*s.PhoneNumber1)
	}
	if s.PhoneNumber2 != nil && *s.PhoneNumber2 != "" {
		resp.PhoneNumber2 = models.MaskPhone(*s.PhoneNumber2)
	}
	if s.PhoneNumber3 != nil && *s.PhoneNumber3 != "" {
		resp.PhoneNumber3 = models.MaskPhone(*s.PhoneNumber3)
	}
	if s.PhoneNumber4 != nil && *s.PhoneNumber4 != "" {
		resp.PhoneNumber4 = models.MaskPhone(*s.PhoneNumber4)
	}
	return resp
}

// GetSettings handles GET /settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.GetOrCreateSettings()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, maskedSettings(settings))
}

// UpdateSettings handles PUT /settings
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PhoneNumber1         *string `json:"phone_number_1"`
		PhoneNumber2         *string `json:"phone_number_2"`
		PhoneNumber3         *string `json:"phone_number_3"`
		PhoneNumber4         *string `json:"phone_number_4"`
		NotificationsEnabled *bool   `json:"notifications_enabled"`
		MarketOpenTime       *string `json:"market_open_time"`
		MarketCloseTime      *string `json:"market_close_time"`
		NewPassword          *string `json:"new_password"`
		ClearPassword        bool    `json:"clear_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	settings, err := h.store.GetOrCreateSettings()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if req.PhoneNumber1 != nil {
		settings.PhoneNumber1 = emptyToNil(req.PhoneNumber1)
	}
	if req.PhoneNumber2 != nil {
		settings.PhoneNumber2 = emptyToNil(req.PhoneNumber2)
	}
	if req.PhoneNumber3 != nil {
		settings.PhoneNumber3 = emptyToNil(req.PhoneNumber3)
	}
	if req.PhoneNumber4 != nil {
		settings.PhoneNumber4 = emptyToNil(req.PhoneNumber4)
	}
	if req.NotificationsEnabled != nil {
		settings.NotificationsEnabled = *req.NotificationsEnabled
	}
	if req.MarketOpenTime != nil {
		if !validTriggerTime(*req.MarketOpenTime) {
			http.Error(w, "market_open_time must be HH:MM", http.StatusBadRequest)
			return
		}
		settings.MarketOpenTime = *req.MarketOpenTime
	}
	if req.MarketCloseTime != nil {
		if !validTriggerTime(*req.MarketCloseTime) {
			http.Error(w, "market_close_time must be HH:MM", http.StatusBadRequest)
			return
		}
		settings.MarketCloseTime = *req.MarketCloseTime
	}
	if req.ClearPassword {
		settings.SettingsPasswordHash = nil
	} else if req.NewPassword != nil && *req.NewPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			http.Error(w, "failed to hash password", http.StatusInternalServerError)
			return
		}
		hashed := string(hash)
		settings.SettingsPasswordHash = &hashed
	}

	if err := h.store.UpdateSettings(settings); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, maskedSettings(settings))
}

// RegisterUser handles POST /users
func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		PhoneNumber string `json:"phone_number"`
		Password    string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.PhoneNumber == "" || req.Password == "" {
		http.Error(w, "name, phone_number and password are required", http.StatusBadRequest)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "failed to hash password", http.StatusInternalServerError)
		return
	}

	user := &models.User{
		Name:         req.Name,
		PhoneNumber:  req.PhoneNumber,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := h.store.CreateUser(user); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"id":           user.ID,
		"name":         user.MaskedName(),
		"phone_number": user.MaskedPhone(),
		"is_active":    user.IsActive,
	})
}

// GetUsers handles GET /users, with name and phone masked
func (h *Handler) GetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.GetAllUsers()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	masked := make([]map[string]interface{}, 0, len(users))
	for _, u := range users {
		masked = append(masked, map[string]interface{}{
			"id":           u.ID,
			"name":         u.MaskedName(),
			"phone_number": u.MaskedPhone(),
			"is_active":    u.IsActive,
		})
	}
	respondJSON(w, http.StatusOK, masked)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

func validTriggerTime(value string) bool {
	_, err := time.Parse("15:04", value)
	return err == nil
}
