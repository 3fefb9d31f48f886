package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/glucorisk/backend/internal/features"
)

// AnswersKey is the fiber Locals key holding the decoded features.Answers.
const AnswersKey = "answers"

type Config struct {
	MaxFields       int
	MaxAnswerLength int
	Logger          *zap.Logger
}

var (
	errNotObject = errors.New("request body must be a JSON object")
	errTooLarge  = errors.New("too many answers")
	errTooLong   = errors.New("answer exceeds maximum length")
)

// Answers checks a prediction request and stores the decoded answers in
// c.Locals(AnswersKey). Answer values are not interpreted here.
func Answers(cfg Config) fiber.Handler {
	if cfg.MaxFields == 0 {
		cfg.MaxFields = 64
	}
	if cfg.MaxAnswerLength == 0 {
		cfg.MaxAnswerLength = 256
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		contentType := strings.ToLower(c.Get(fiber.HeaderContentType))
		if !strings.HasPrefix(contentType, fiber.MIMEApplicationJSON) {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
				"success": false,
				"error":   "Content-Type must be application/json",
			})
		}

		answers, err := decode(c.Body(), cfg)
		if err != nil {
			cfg.Logger.Warn("Rejected prediction request",
				zap.String("ip", c.IP()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "Invalid request: " + err.Error(),
			})
		}

		c.Locals(AnswersKey, answers)
		return c.Next()
	}
}

func decode(body []byte, cfg Config) (features.Answers, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errNotObject
		}
		return nil, errors.New("malformed JSON")
	}
	if dec.More() {
		return nil, errors.New("trailing data after JSON object")
	}

	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, errNotObject
	}
	if len(obj) > cfg.MaxFields {
		return nil, errTooLarge
	}
	for _, v := range obj {
		if s, ok := v.(string); ok && len(s) > cfg.MaxAnswerLength {
			return nil, errTooLong
		}
	}

	return features.Answers(obj), nil
}

// FromContext returns the answers stored by Answers, or nil.
func FromContext(c *fiber.Ctx) features.Answers {
	answers, _ := c.Locals(AnswersKey).(features.Answers)
	return answers
}
