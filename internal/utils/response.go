package utils

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// CorrelationHeader carries the request correlation id on requests and responses.
const CorrelationHeader = "X-Correlation-ID"

// APIResponse is the envelope shared by every JSON endpoint. CorrelationID
// echoes the response header so clients can quote it when reporting a failure.
type APIResponse struct {
	Success       bool        `json:"success"`
	Data          interface{} `json:"data,omitempty"`
	Message       string      `json:"message"`
	Details       interface{} `json:"details,omitempty"`
	CorrelationID string      `json:"correlation_id,omitempty"`
}

// SendSuccess answers 200 with data.
func SendSuccess(c *fiber.Ctx, message string, data interface{}) error {
	return SendSuccessWithStatus(c, fiber.StatusOK, message, data)
}

// SendSuccessWithStatus answers with data and the given status, 200 when zero.
func SendSuccessWithStatus(c *fiber.Ctx, status int, message string, data interface{}) error {
	if status == 0 {
		status = fiber.StatusOK
	}
	return send(c, status, APIResponse{Success: true, Data: data, Message: orDefault(message, "success")})
}

// SendError answers with a bare error message.
func SendError(c *fiber.Ctx, status int, message string) error {
	return Fail(c, status, message, nil)
}

// Fail answers with an error message and optional details such as a hint for the user.
func Fail(c *fiber.Ctx, status int, message string, details interface{}) error {
	return send(c, status, APIResponse{Message: orDefault(message, "error"), Details: details})
}

// SendAttachment streams body as a file download named name.
func SendAttachment(c *fiber.Ctx, name, contentType string, body []byte) error {
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Status(fiber.StatusOK).Send(body)
}

func send(c *fiber.Ctx, status int, payload APIResponse) error {
	payload.CorrelationID = c.GetRespHeader(CorrelationHeader)
	return c.Status(status).JSON(payload)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
