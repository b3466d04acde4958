// Package http exposes the order fulfillment API over HTTP. It coordinates
// between the echo handlers and the application use cases, mapping domain
// errors to status codes: validation problems become 400, unknown orders
// 404, commands outside their valid window 409, and a full command queue
// 503.
package http

import (
	"errors"
	"net/http"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/process"
	"fulfillment/internal/core/workflow"
	"fulfillment/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// Server wires the HTTP endpoints to the command and query handlers.
type Server struct {
	// Command handlers
	startOrderHandler  commands.StartOrderCommandHandler
	signalOrderHandler commands.SignalOrderCommandHandler

	// Query handlers
	getOrderStatusHandler  queries.GetOrderStatusQueryHandler
	getOrderEventsHandler  queries.GetOrderEventsQueryHandler
	waitOrderResultHandler queries.WaitOrderResultQueryHandler
}

// NewServer creates a new HTTP server with the required command and query
// handlers.
func NewServer(
	startOrderHandler commands.StartOrderCommandHandler,
	signalOrderHandler commands.SignalOrderCommandHandler,
	getOrderStatusHandler queries.GetOrderStatusQueryHandler,
	getOrderEventsHandler queries.GetOrderEventsQueryHandler,
	waitOrderResultHandler queries.WaitOrderResultQueryHandler,
) *Server {
	return &Server{
		startOrderHandler:      startOrderHandler,
		signalOrderHandler:     signalOrderHandler,
		getOrderStatusHandler:  getOrderStatusHandler,
		getOrderEventsHandler:  getOrderEventsHandler,
		waitOrderResultHandler: waitOrderResultHandler,
	}
}

// RegisterRoutes attaches all endpoints to the echo instance.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api/v1")
	api.POST("/orders", s.StartOrder)
	api.POST("/orders/:id/approve", s.ApproveOrder)
	api.POST("/orders/:id/cancel", s.CancelOrder)
	api.PUT("/orders/:id/address", s.UpdateOrderAddress)
	api.GET("/orders/:id/status", s.GetOrderStatus)
	api.GET("/orders/:id/result", s.GetOrderResult)
	api.GET("/orders/:id/events", s.GetOrderEvents)
	e.GET("/health", s.Health)
}

// ErrorResponse is the uniform error body of all endpoints.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// StartOrderRequest is the body of POST /api/v1/orders. PaymentID
// optionally fixes the charge idempotency key.
type StartOrderRequest struct {
	OrderID     string  `json:"order_id"`
	CustomerRef string  `json:"customer_ref"`
	Total       float64 `json:"total"`
	Priority    string  `json:"priority"`
	PaymentID   string  `json:"payment_id"`
}

// AddressRequest is the body of PUT /api/v1/orders/:id/address.
type AddressRequest struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// StartOrder handles POST /api/v1/orders - starts a new order process.
func (s *Server) StartOrder(ctx echo.Context) error {
	var req StartOrderRequest
	if err := ctx.Bind(&req); err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "Invalid request body")
	}

	orderID := kernel.NewUUID()
	if req.OrderID != "" {
		parsed, err := kernel.UUIDFromString(req.OrderID)
		if err != nil {
			return errorJSON(ctx, http.StatusBadRequest, "Invalid order id: "+err.Error())
		}
		orderID = parsed
	}

	cmd, err := commands.NewStartOrderCommand(orderID, req.CustomerRef, req.Total, req.Priority, req.PaymentID)
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "Invalid order data: "+err.Error())
	}

	if err := s.startOrderHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return mapError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, map[string]string{"order_id": orderID.String()})
}

// ApproveOrder handles POST /api/v1/orders/:id/approve.
func (s *Server) ApproveOrder(ctx echo.Context) error {
	return s.signal(ctx, process.SignalApprove, order.Address{})
}

// CancelOrder handles POST /api/v1/orders/:id/cancel.
func (s *Server) CancelOrder(ctx echo.Context) error {
	return s.signal(ctx, process.SignalCancel, order.Address{})
}

// UpdateOrderAddress handles PUT /api/v1/orders/:id/address.
func (s *Server) UpdateOrderAddress(ctx echo.Context) error {
	var req AddressRequest
	if err := ctx.Bind(&req); err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "Invalid request body")
	}

	address, err := order.NewAddress(req.Street, req.City, req.State, req.Zip, req.Country)
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "Invalid address: "+err.Error())
	}

	return s.signal(ctx, process.SignalUpdateAddress, address)
}

func (s *Server) signal(ctx echo.Context, kind process.SignalKind, address order.Address) error {
	orderID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "Invalid order id: "+err.Error())
	}

	cmd, err := commands.NewSignalOrderCommand(orderID, kind, address)
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "Invalid command: "+err.Error())
	}

	if err := s.signalOrderHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return mapError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, map[string]string{"status": "accepted"})
}

// GetOrderStatus handles GET /api/v1/orders/:id/status.
func (s *Server) GetOrderStatus(ctx echo.Context) error {
	orderID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "Invalid order id: "+err.Error())
	}

	query, err := queries.NewGetOrderStatusQuery(orderID)
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, err.Error())
	}

	status, err := s.getOrderStatusHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return mapError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, statusBody(status))
}

// GetOrderResult handles GET /api/v1/orders/:id/result - blocks until the
// order's process reaches a terminal state. The client bounds the wait by
// closing the request.
func (s *Server) GetOrderResult(ctx echo.Context) error {
	orderID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "Invalid order id: "+err.Error())
	}

	query, err := queries.NewWaitOrderResultQuery(orderID)
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, err.Error())
	}

	result, err := s.waitOrderResultHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return mapError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, map[string]string{
		"order_id": result.ID.String(),
		"state":    result.State,
	})
}

// GetOrderEvents handles GET /api/v1/orders/:id/events.
func (s *Server) GetOrderEvents(ctx echo.Context) error {
	orderID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "Invalid order id: "+err.Error())
	}

	query, err := queries.NewGetOrderEventsQuery(orderID)
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, err.Error())
	}

	events, err := s.getOrderEventsHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return mapError(ctx, err)
	}

	body := make([]map[string]any, len(events))
	for i, event := range events {
		body[i] = map[string]any{
			"event_type":  event.EventType,
			"payload":     event.Payload,
			"occurred_at": event.OccurredAt,
		}
	}

	return ctx.JSON(http.StatusOK, body)
}

// Health handles GET /health.
func (s *Server) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func statusBody(status queries.GetOrderStatusQueryResponse) map[string]any {
	body := map[string]any{
		"order_id":     status.ID.String(),
		"state":        status.State,
		"customer_ref": status.CustomerRef,
		"total":        status.Total,
		"priority":     status.Priority,
		"approved":     status.Approved,
		"cancelled":    status.Cancelled,
		"updated_at":   status.UpdatedAt,
	}
	if status.LastError != nil {
		body["last_error"] = *status.LastError
	}
	return body
}

func mapError(ctx echo.Context, err error) error {
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		return errorJSON(ctx, http.StatusNotFound, err.Error())
	case errors.Is(err, errs.ErrObjectAlreadyExists):
		return errorJSON(ctx, http.StatusConflict, err.Error())
	case errors.Is(err, process.ErrInvalidStateTransition):
		return errorJSON(ctx, http.StatusConflict, err.Error())
	case errors.Is(err, workflow.ErrBusy):
		return errorJSON(ctx, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsOutOfRange):
		return errorJSON(ctx, http.StatusBadRequest, err.Error())
	default:
		return errorJSON(ctx, http.StatusInternalServerError, "Internal server error")
	}
}

func errorJSON(ctx echo.Context, code int, message string) error {
	return ctx.JSON(code, ErrorResponse{
		Code:    code,
		Message: message,
	})
}
