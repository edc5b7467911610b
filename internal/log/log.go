// Package log writes structured JSON lines through the standard logger so
// that file and stdout sinks configured in main apply to every entry.
package log

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"canteen/internal/domain"
)

// Level is the severity tag of an entry.
type Level string

const (
	LevelInfo  Level = "info"
	LevelAudit Level = "audit"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

const tsLayout = "2006-01-02T15:04:05.000Z07:00"

type entry struct {
	TS        string         `json:"ts"`
	Level     Level          `json:"level"`
	ReqID     string         `json:"req_id,omitempty"`
	IP        string         `json:"ip,omitempty"`
	Method    string         `json:"method,omitempty"`
	Path      string         `json:"path,omitempty"`
	UserID    string         `json:"user_id,omitempty"`
	Action    string         `json:"action,omitempty"`
	Status    int            `json:"status,omitempty"`
	LatencyMs int64          `json:"latency_ms,omitempty"`
	Err       string         `json:"err,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// fromRequest copies request id, caller, route and timing off the fiber
// context as set by the app middleware.
func (e *entry) fromRequest(c *fiber.Ctx) {
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

// emit prints one entry per line. A nil c logs without request context.
func emit(lvl Level, c *fiber.Ctx, action string, err error, fields map[string]any) {
	e := entry{
		TS:     time.Now().UTC().Format(tsLayout),
		Level:  lvl,
		Action: action,
		Fields: fields,
	}
	if c != nil {
		e.fromRequest(c)
	}
	if err != nil {
		e.Err = err.Error()
	}
	b, mErr := json.Marshal(e)
	if mErr != nil {
		// unencodable field values; keep the action visible
		e.Fields = map[string]any{"marshal_error": mErr.Error()}
		b, _ = json.Marshal(e)
	}
	log.Println(string(b))
}

// Info records routine lifecycle events.
func Info(c *fiber.Ctx, action string, fields map[string]any) {
	emit(LevelInfo, c, action, nil, fields)
}

// Audit records state changes made on behalf of a user.
func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	emit(LevelAudit, c, action, nil, fields)
}

// Security records denied access, failed logins and rejected input.
func Security(c *fiber.Ctx, action string, fields map[string]any) {
	emit(LevelWarn, c, action, nil, fields)
}

func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	emit(LevelError, c, action, err, fields)
}
