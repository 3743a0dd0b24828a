package suggestionHandler

import (
	"AIService/internal/api/suggestion"
	contextPkg "AIService/pkg/context"
	"AIService/pkg/log"
	"errors"
	"github.com/gofiber/websocket/v2"
	"time"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsWriteTimeout = 10 * time.Second
)

type wsResponse struct {
	ResponseText string `json:"responseText,omitempty"`
	Error        string `json:"error,omitempty"`
}

// handlePredictWebSocket answers every text frame carrying {"text": ...} with
// one JSON frame, following the same rules as POST /predict.
func (h *SuggestionHandler) handlePredictWebSocket(c *websocket.Conn) {
	requestID, _ := c.Locals("X-Request-ID").(string)
	if requestID == "" {
		requestID = "unknown"
	}

	h.log.WithFields(log.Fields{"request_id": requestID}).Info("Predict WebSocket client connected")
	defer h.log.WithFields(log.Fields{"request_id": requestID}).Info("Predict WebSocket client disconnected")

	c.SetPingHandler(func(data string) error {
		if err := c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second)); err != nil {
			h.log.Errorf("Error sending pong: %v", err)
		}
		return nil
	})

	for {
		if err := c.SetReadDeadline(time.Now().Add(wsReadTimeout)); err != nil {
			h.log.Errorf("Error setting read deadline: %v", err)
			return
		}

		messageType, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.WithFields(log.Fields{
					"request_id": requestID,
					"error":      err.Error(),
				}).Warn("Predict WebSocket closed unexpectedly")
			}
			return
		}

		if messageType != websocket.TextMessage {
			continue
		}

		if err := c.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
			h.log.Errorf("Error setting write deadline: %v", err)
			return
		}

		if err := c.WriteJSON(h.predictFrame(requestID, message)); err != nil {
			h.log.Errorf("Error sending prediction: %v", err)
			return
		}
	}
}

func (h *SuggestionHandler) predictFrame(requestID string, message []byte) wsResponse {
	text, err := parseText(message)
	switch {
	case errors.Is(err, suggestion.ErrTextNotString):
		return wsResponse{ResponseText: suggestion.PredictionErrorText}
	case err != nil:
		return wsResponse{Error: err.Error()}
	}

	ctx, cancel := contextPkg.WithTimeout(contextPkg.FromRequestID(requestID), h.predictTimeout)
	defer cancel()

	result := h.suggestionService.Suggest(ctx, text)
	return wsResponse{ResponseText: result.Text}
}
