package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Mufassa12/contrivance/internal/domain/spreadsheet"
	"github.com/Mufassa12/contrivance/internal/metrics"
	"github.com/Mufassa12/contrivance/internal/realtime"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browsers cannot set an Authorization header on a websocket, so
	// the token rides in the query string; origin policy is enforced
	// upstream by the CORS layer.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsToken extracts the access token from the Authorization header or,
// failing that, the token query parameter.
func wsToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if parts := strings.SplitN(authHeader, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return c.Query("token")
}

// HandleWebSocket godoc
//
//	@Summary		Open a live spreadsheet connection
//	@Description	Upgrade to a WebSocket that streams change events for one spreadsheet
//	@Tags			realtime
//	@Param			spreadsheetId	path	string	true	"Spreadsheet ID"
//	@Param			token			query	string	false	"Access token (alternative to Authorization header)"
//	@Success		101
//	@Failure		400	{object}	map[string]string
//	@Failure		401	{object}	map[string]string
//	@Failure		403	{object}	map[string]string
//	@Failure		404	{object}	map[string]string
//	@Router			/ws/spreadsheet/{spreadsheetId} [get]
func (h *Handler) HandleWebSocket(c *gin.Context) {
	spreadsheetID, ok := pathUUID(c, "spreadsheetId")
	if !ok {
		return
	}

	token := wsToken(c)
	if token == "" {
		metrics.AuthFailures.WithLabelValues("websocket").Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing access token"})
		return
	}

	// Authentication happens before the upgrade so a bad token gets a
	// proper HTTP status instead of an aborted socket.
	claims, err := h.authService.Validate(token)
	if err != nil {
		metrics.AuthFailures.WithLabelValues("websocket").Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}
	userID, err := claims.UserID()
	if err != nil {
		metrics.AuthFailures.WithLabelValues("websocket").Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}

	if err := h.sheetService.CanAccess(c.Request.Context(), userID, spreadsheetID); err != nil {
		switch {
		case errors.Is(err, spreadsheet.ErrSpreadsheetNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, spreadsheet.ErrAccessDenied):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade connection")
		return
	}

	conn := realtime.NewConn(userID, spreadsheetID, ws, h.registry)
	conn.Run(c.Request.Context())
}
