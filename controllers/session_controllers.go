package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/qr-table-order/services"
	"github.com/yeremiapane/qr-table-order/utils"
)

type SessionController struct {
	Sessions *services.SessionService
}

func NewSessionController(sessions *services.SessionService) *SessionController {
	return &SessionController{Sessions: sessions}
}

// CreateSession -> device customer scan QR dan minta sesi untuk satu meja.
// Idempotent per meja: kalau sudah ada sesi aktif, token yang sama dikembalikan.
func (sc *SessionController) CreateSession(c *gin.Context) {
	var req struct {
		TableID uint `json:"table_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	session, err := sc.Sessions.CreateSession(req.TableID)
	if err != nil {
		utils.RespondError(c, statusForServiceError(err), err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Session created", gin.H{
		"token":   session.Token,
		"session": session,
	})
}

// ValidateSession -> validasi + renewal token sesi. Selalu 200 dengan
// payload valid:true/false supaya klien bisa menampilkan pesan yang tepat.
func (sc *SessionController) ValidateSession(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	session, err := sc.Sessions.ValidateSession(req.Token)
	switch {
	case err == nil:
		utils.RespondJSON(c, http.StatusOK, "Session valid", gin.H{
			"valid":   true,
			"session": session,
		})
	case errors.Is(err, services.ErrSessionExpired):
		// Token pernah ada tapi sudah habis/diakhiri -> minta scan ulang
		utils.RespondJSON(c, http.StatusOK, "Session invalid", gin.H{
			"valid":   false,
			"expired": true,
			"reason":  "session expired, please re-scan the QR code",
		})
	case errors.Is(err, services.ErrSessionNotFound):
		utils.RespondJSON(c, http.StatusOK, "Session invalid", gin.H{
			"valid":   false,
			"expired": false,
			"reason":  "unknown session token",
		})
	default:
		utils.RespondError(c, http.StatusInternalServerError, err)
	}
}

// EndSession -> staff mengakhiri sesi. Idempotent: sesi yang sudah
// berakhir atau tidak ada tetap 200.
func (sc *SessionController) EndSession(c *gin.Context) {
	sessionID := c.Param("session_id")

	if err := sc.Sessions.EndSession(sessionID); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Session ended", gin.H{
		"session_id": sessionID,
	})
}

// statusForServiceError memetakan taksonomi error services ke kode HTTP
func statusForServiceError(err error) int {
	switch {
	case errors.Is(err, services.ErrTableUnavailable):
		return http.StatusConflict
	case errors.Is(err, services.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrSessionExpired),
		errors.Is(err, services.ErrSessionClosed):
		return http.StatusGone
	case errors.Is(err, services.ErrAlreadySubmitted):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidCart):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUpstreamTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, services.ErrUpstreamFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
