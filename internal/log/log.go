package log

import (
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"marktplatz/internal/domain"
)

type level string

const (
	levelInfo  level = "info"
	levelAudit level = "audit"
	levelWarn  level = "warn"
	levelError level = "error"
)

// Field names whose values never reach the log. Matched case-insensitively
// as substrings, so "vision_api_key" and "backend_session" are caught too.
var secretKeys = []string{"password", "api_key", "apikey", "session", "token", "secret"}

type entry struct {
	TS        string         `json:"ts"`
	Level     level          `json:"level"`
	Action    string         `json:"action,omitempty"`
	ReqID     string         `json:"req_id,omitempty"`
	IP        string         `json:"ip,omitempty"`
	Method    string         `json:"method,omitempty"`
	Path      string         `json:"path,omitempty"`
	Status    int            `json:"status,omitempty"`
	LatencyMs int64          `json:"latency_ms,omitempty"`
	UserID    string         `json:"user_id,omitempty"`
	Err       string         `json:"err,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// emit writes one JSON line through the std logger. c is nil for background
// work such as the dashboard load.
func emit(lv level, c *fiber.Ctx, action string, err error, fields map[string]any) {
	e := entry{
		TS:     time.Now().UTC().Format(time.RFC3339),
		Level:  lv,
		Action: action,
		Fields: redact(fields),
	}
	if c != nil {
		fromRequest(&e, c)
	}
	if err != nil {
		e.Err = err.Error()
	}
	b, _ := json.Marshal(e)
	log.Println(string(b))
}

func fromRequest(e *entry, c *fiber.Ctx) {
	e.IP = c.IP()
	e.Method = c.Method()
	e.Path = c.Path()
	e.Status = c.Response().StatusCode()
	if rid, ok := c.Locals("requestid").(string); ok {
		e.ReqID = rid
	}
	if u, ok := c.Locals("user").(*domain.User); ok && u != nil {
		e.UserID = u.ID
	}
	if start, ok := c.Locals("start").(time.Time); ok {
		e.LatencyMs = time.Since(start).Milliseconds()
	}
}

func redact(fields map[string]any) map[string]any {
	if len(fields) == 0 {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
		lk := strings.ToLower(k)
		for _, s := range secretKeys {
			if strings.Contains(lk, s) {
				out[k] = "[redacted]"
				break
			}
		}
	}
	return out
}

func Info(c *fiber.Ctx, action string, fields map[string]any) {
	emit(levelInfo, c, action, nil, fields)
}

// Audit records a change an admin made to marketplace data.
func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	emit(levelAudit, c, action, nil, fields)
}

// Security records a refused request (csrf, rate limit, missing role).
func Security(c *fiber.Ctx, action string, fields map[string]any) {
	emit(levelWarn, c, action, nil, fields)
}

// Warn records a degraded but working setup, e.g. photo uploads switched off.
func Warn(c *fiber.Ctx, action string, err error, fields map[string]any) {
	emit(levelWarn, c, action, err, fields)
}

func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	emit(levelError, c, action, err, fields)
}
