package suggestionHandler

import (
	"AIService/internal/api/suggestion"
	contextPkg "AIService/pkg/context"
	"AIService/pkg/handlerUtil"
	"AIService/pkg/log"
	"errors"
	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func (h *SuggestionHandler) Predict(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := contextPkg.WithTimeout(contextPkg.FromFiberCtx(ctx), h.predictTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing predict request")

	text, err := parseText(ctx.Body())
	if errors.Is(err, suggestion.ErrTextNotString) {
		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Intent prediction failed")
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, suggestion.SuggestionResponse{
			ResponseText: suggestion.PredictionErrorText,
		})
	}
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "parse_request_body")
	}

	result := h.suggestionService.Suggest(c, text)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"label":      result.LabelIndex,
		"label_name": result.LabelName,
		"outcome":    result.Outcome,
	}).Info("Suggestion generated")

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, suggestion.SuggestionResponse{
		ResponseText: result.Text,
	})
}

// parseText pulls the text key out of a JSON object. A body that is not an
// object, or has no text key, is ErrNoTextProvided. A text key holding anything
// other than a string is ErrTextNotString.
func parseText(body []byte) (string, error) {
	var payload map[string]jsoniter.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil || payload == nil {
		return "", suggestion.ErrNoTextProvided
	}

	raw, ok := payload["text"]
	if !ok {
		return "", suggestion.ErrNoTextProvided
	}

	var text *string
	if err := json.Unmarshal(raw, &text); err != nil || text == nil {
		return "", suggestion.ErrTextNotString
	}

	return *text, nil
}
