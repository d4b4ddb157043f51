package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"pantry/internal/core"
	applog "pantry/internal/log"
	"pantry/internal/stats"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

type recordRequest struct {
	ProductID        string            `json:"productId,omitempty"`
	ProductName      string            `json:"productName"`
	Category         string            `json:"category"`
	Location         string            `json:"location"`
	Type             string            `json:"transactionType"`
	QuantityChange   float64           `json:"quantityChange"`
	PreviousQuantity float64           `json:"previousQuantity"`
	NewQuantity      float64           `json:"newQuantity"`
	Cost             float64           `json:"cost,omitempty"`
	ExpiryDate       *time.Time        `json:"expiryDate,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleRecordTransaction(w, r)
	case http.MethodGet:
		s.handleListTransactions(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleRecordTransaction(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	tx, err := s.ledger.RecordTransaction(ctx, core.TransactionInput{
		ProductID:        req.ProductID,
		ProductName:      req.ProductName,
		Category:         req.Category,
		Location:         req.Location,
		Type:             core.TransactionType(req.Type),
		QuantityChange:   req.QuantityChange,
		PreviousQuantity: req.PreviousQuantity,
		NewQuantity:      req.NewQuantity,
		Cost:             req.Cost,
		ExpiryDate:       req.ExpiryDate,
		Metadata:         req.Metadata,
	})
	if err != nil {
		s.writeError(w, r, "Record transaction failed", err)
		return
	}

	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	q, err := parseQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	txs, err := s.ledger.GetTransactions(ctx, q)
	if err != nil {
		s.writeError(w, r, "List transactions failed", err)
		return
	}

	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	year, month, err := parseYearMonth(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rep, err := s.reports.Monthly(ctx, year, month, r.URL.Query().Get("groupId"))
	if err != nil {
		s.writeError(w, r, "Monthly report failed", err)
		return
	}

	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleYearlyReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	// Twelve month builds fan out behind this call; give it more room.
	ctx, cancel := context.WithTimeout(r.Context(), 3*requestTimeout)
	defer cancel()

	year := time.Now().Year()
	if v := r.URL.Query().Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "invalid year", http.StatusBadRequest)
			return
		}
		year = y
	}

	rep, err := s.reports.Yearly(ctx, year, r.URL.Query().Get("groupId"))
	if err != nil {
		s.writeError(w, r, "Yearly report failed", err)
		return
	}

	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	start, end, err := parseDateRange(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if start == nil || end == nil {
		http.Error(w, "start and end are required", http.StatusBadRequest)
		return
	}

	bucket := stats.BucketDay
	switch r.URL.Query().Get("bucket") {
	case "", string(stats.BucketDay):
	case string(stats.BucketWeek):
		bucket = stats.BucketWeek
	case string(stats.BucketMonth):
		bucket = stats.BucketMonth
	default:
		http.Error(w, "invalid bucket: must be day, week or month", http.StatusBadRequest)
		return
	}

	points, err := s.reports.Trend(ctx, *start, *end, bucket, r.URL.Query().Get("groupId"))
	if err != nil {
		s.writeError(w, r, "Trend data failed", err)
		return
	}

	writeJSON(w, http.StatusOK, points)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	start, end, err := parseDateRange(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	categories, err := s.reports.Categories(ctx, r.URL.Query().Get("groupId"), start, end)
	if err != nil {
		s.writeError(w, r, "Category analysis failed", err)
		return
	}

	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), msg, applog.FieldError, err)
	}
	http.Error(w, err.Error(), status)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNoUserContext):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrUnknownType),
		errors.Is(err, core.ErrQuantityMismatch),
		errors.Is(err, core.ErrQuantitySign),
		errors.Is(err, core.ErrNegativeCost),
		errors.Is(err, core.ErrEmptyProductName),
		errors.Is(err, core.ErrCategoryNotAllowed),
		errors.Is(err, core.ErrLocationNotAllowed):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
