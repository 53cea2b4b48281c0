package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Checker-Finance/secrets-manager-sdk/internal/httpclient"
	"github.com/Checker-Finance/secrets-manager-sdk/pkg/operation"
	"github.com/Checker-Finance/secrets-manager-sdk/pkg/secretsmanager"
)

// OperationService is the part of *secretsmanager.Service the gateway uses.
type OperationService interface {
	Generation() secretsmanager.Generation
	Operations() []operation.Spec
	Do(ctx context.Context, id string, bag operation.Bag) (*secretsmanager.Response[json.RawMessage], error)
	Describe(id string, bag operation.Bag) (operation.RequestDescriptor, error)
}

// OperationHandler exposes the operation table over HTTP.
type OperationHandler struct {
	logger  *zap.Logger
	service OperationService
}

func NewOperationHandler(logger *zap.Logger, service OperationService) *OperationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OperationHandler{logger: logger, service: service}
}

// ListOperations handles GET /api/v1/operations.
func (h *OperationHandler) ListOperations(c *fiber.Ctx) error {
	specs := h.service.Operations()
	out := make([]OperationInfo, 0, len(specs))
	for _, s := range specs {
		out = append(out, toOperationInfo(s))
	}
	return c.Status(fiber.StatusOK).JSON(OperationList{
		Generation: string(h.service.Generation()),
		Operations: out,
	})
}

// Invoke handles POST /api/v1/operations/:operationId. The request body is
// the parameter bag.
func (h *OperationHandler) Invoke(c *fiber.Ctx) error {
	id := c.Params("operationId")
	bag, err := parseBag(c.Body())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error(), Operation: id})
	}

	resp, err := h.service.Do(c.UserContext(), id, bag)
	if err != nil {
		return h.writeError(c, id, err)
	}

	h.logger.Info("gateway.invoke",
		zap.String("operation", id),
		zap.Int("status", resp.StatusCode))
	return c.Status(fiber.StatusOK).JSON(resp)
}

// Describe handles POST /api/v1/operations/:operationId/describe and returns
// the request that Invoke would send, without sending it.
func (h *OperationHandler) Describe(c *fiber.Ctx) error {
	id := c.Params("operationId")
	bag, err := parseBag(c.Body())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error(), Operation: id})
	}

	req, err := h.service.Describe(id, bag)
	if err != nil {
		return h.writeError(c, id, err)
	}
	return c.Status(fiber.StatusOK).JSON(DescribeResponse{
		Method:  req.Method,
		URL:     req.URL,
		Query:   req.Query,
		Headers: req.Headers,
		Body:    req.Body,
	})
}

// OpenAPI handles GET /api/v1/openapi.json.
func (h *OperationHandler) OpenAPI(c *fiber.Ctx) error {
	doc, err := secretsmanager.OpenAPIDocument(c.UserContext(), h.service.Generation())
	if err != nil {
		h.logger.Error("gateway.openapi_failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}
	return c.Status(fiber.StatusOK).JSON(doc)
}

func (h *OperationHandler) writeError(c *fiber.Ctx, id string, err error) error {
	status, body := errorResponse(id, err)
	if status >= fiber.StatusInternalServerError {
		h.logger.Error("gateway.invoke_failed", zap.String("operation", id), zap.Int("status", status), zap.Error(err))
	} else {
		h.logger.Warn("gateway.invoke_failed", zap.String("operation", id), zap.Int("status", status), zap.Error(err))
	}
	return c.Status(status).JSON(body)
}

// errorResponse maps an invocation error to a gateway status. Upstream HTTP
// errors keep their status; anything without a response is a bad gateway.
func errorResponse(id string, err error) (int, ErrorResponse) {
	body := ErrorResponse{Error: err.Error(), Operation: id}

	var missing *operation.MissingParametersError
	var httpErr *httpclient.HTTPError
	switch {
	case errors.As(err, &missing):
		body.Missing = missing.Missing
		return fiber.StatusBadRequest, body
	case errors.Is(err, secretsmanager.ErrUnsupportedOperation):
		return fiber.StatusNotFound, body
	case errors.Is(err, secretsmanager.ErrInvalidVariant):
		return fiber.StatusBadRequest, body
	case errors.As(err, &httpErr):
		body.UpstreamStatus = httpErr.StatusCode
		if len(httpErr.Body) > 0 && json.Valid(httpErr.Body) {
			body.Upstream = json.RawMessage(httpErr.Body)
		}
		return httpErr.StatusCode, body
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout, body
	default:
		return fiber.StatusBadGateway, body
	}
}

func parseBag(raw []byte) (operation.Bag, error) {
	bag := operation.Bag{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return bag, nil
	}
	if err := json.Unmarshal(raw, &bag); err != nil {
		return nil, fmt.Errorf("request body must be a JSON object: %w", err)
	}
	return bag, nil
}

func toOperationInfo(s operation.Spec) OperationInfo {
	info := OperationInfo{
		ID:          s.ID,
		Method:      s.Method,
		Path:        s.Path,
		Accept:      s.Accept,
		ContentType: s.ContentType,
		Required:    s.Required(),
	}
	for _, p := range s.Params {
		info.Params = append(info.Params, ParamInfo{
			Name:     p.Name,
			Wire:     p.WireName(),
			In:       p.In.String(),
			Required: p.Required,
		})
	}
	return info
}

