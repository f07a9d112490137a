package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/pesio-ai/be-cr-requests/internal/errors"
	"github.com/pesio-ai/be-cr-requests/internal/logger"
	"github.com/pesio-ai/be-cr-requests/internal/repository"
	"github.com/pesio-ai/be-cr-requests/internal/service"
)

// HTTPHandler exposes the routing core to the gateway. Authentication and
// client-ownership checks happen upstream; this layer only decodes, calls
// the services and encodes.
type HTTPHandler struct {
	requests      *service.RequestService
	routing       *service.RoutingService
	status        *service.StatusService
	notifications *service.NotificationService
	log           *logger.Logger
}

// NewHTTPHandler creates a new HTTP handler.
func NewHTTPHandler(
	requests *service.RequestService,
	routing *service.RoutingService,
	status *service.StatusService,
	notifications *service.NotificationService,
	log *logger.Logger,
) *HTTPHandler {
	return &HTTPHandler{
		requests:      requests,
		routing:       routing,
		status:        status,
		notifications: notifications,
		log:           log,
	}
}

// CreateRequest handles create credit request HTTP requests.
func (h *HTTPHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		ClientID    string    `json:"client_id"`
		Amount      int64     `json:"amount"`
		DeliverDate time.Time `json:"deliver_date"`
		Checklist   []bool    `json:"checklist,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	request, err := h.requests.CreateRequest(r.Context(), req.ClientID, req.Amount, req.DeliverDate, req.Checklist)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(request)
}

// GetRequest handles get credit request HTTP requests.
func (h *HTTPHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	requestID := r.URL.Query().Get("id")
	if requestID == "" {
		http.Error(w, "Request ID is required", http.StatusBadRequest)
		return
	}

	request, err := h.requests.GetRequest(r.Context(), requestID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(request)
}

// RouteRequest handles route-to-next-process HTTP requests.
func (h *HTTPHandler) RouteRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	request, err := h.routing.RouteRequest(r.Context(), req.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(request)
}

// SetStatus handles status update HTTP requests.
func (h *HTTPHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		ID     string  `json:"id"`
		Status string  `json:"status"`
		Reason *string `json:"reason,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Status == "" {
		http.Error(w, "Status is required", http.StatusBadRequest)
		return
	}

	request, err := h.status.SetStatus(r.Context(), req.ID, req.Status, req.Reason)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(request)
}

// GetStatus handles request status HTTP requests.
func (h *HTTPHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	requestID := r.URL.Query().Get("id")
	if requestID == "" {
		http.Error(w, "Request ID is required", http.StatusBadRequest)
		return
	}

	status, err := h.requests.GetStatus(r.Context(), requestID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

// GetHistory handles request history HTTP requests.
func (h *HTTPHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	requestID := r.URL.Query().Get("id")
	if requestID == "" {
		http.Error(w, "Request ID is required", http.StatusBadRequest)
		return
	}

	history, err := h.requests.GetHistory(r.Context(), requestID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(history)
}

// GetEstimatedTime handles completion-estimate HTTP requests.
func (h *HTTPHandler) GetEstimatedTime(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	requestID := r.URL.Query().Get("id")
	if requestID == "" {
		http.Error(w, "Request ID is required", http.StatusBadRequest)
		return
	}

	eta, err := h.requests.EstimatedTimeToCompletion(r.Context(), requestID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if eta == nil {
		http.Error(w, "Estimate unavailable", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"estimated_days": int(eta.Hours() / 24)})
}

// GetProcessGraph handles process graph configuration HTTP requests.
func (h *HTTPHandler) GetProcessGraph(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	graph, err := h.requests.ProcessGraph(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(graph)
}

// GetNotifications handles client notification list HTTP requests. With
// unread=true only unread notifications are returned.
func (h *HTTPHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		http.Error(w, "Client ID is required", http.StatusBadRequest)
		return
	}

	var (
		notifications []*repository.Notification
		err           error
	)
	if r.URL.Query().Get("unread") == "true" {
		notifications, err = h.notifications.ListUnread(r.Context(), clientID)
	} else {
		notifications, err = h.notifications.ListByClient(r.Context(), clientID)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(notifications)
}

// MarkNotificationRead handles mark-as-read HTTP requests.
func (h *HTTPHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.notifications.MarkRead(r.Context(), req.ID); err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "read"})
}

// writeError maps coded errors onto HTTP statuses.
func (h *HTTPHandler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.CodeOf(err) {
	case errors.ErrCodeNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeInvalidInput:
		status = http.StatusBadRequest
	case errors.ErrCodeConflict:
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("Request failed")
	}
	http.Error(w, err.Error(), status)
}
