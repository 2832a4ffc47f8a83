package handlers

import (
	"errors"
	"net/http"
	"taskManagement/internal/logger"
	"taskManagement/internal/service"

	"go.uber.org/zap"
)

const codeUnsupportedMedia = "UNSUPPORTED_MEDIA_TYPE"

// handleError отвечает клиенту по коду бизнес-ошибки, остальные ошибки считаются внутренними
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	handleErrorWithStatus(w, r, err, 0)
}

// handleErrorWithStatus позволяет маршруту переопределить статус для ошибок хранилища
func handleErrorWithStatus(w http.ResponseWriter, r *http.Request, err error, storeStatus int) {
	var businessErr *service.BusinessError
	if !errors.As(err, &businessErr) {
		logger.Error("HTTP: Необработанная ошибка", err, zap.String("client_ip", r.RemoteAddr))
		responseWithJSON(w, http.StatusInternalServerError,
			toPayload("error", "INTERNAL_ERROR"),
			toPayload("message", "Internal server error"),
			toPayload("details", map[string]any{"cause": err.Error()}),
		)
		return
	}

	statusCode := mapBusinessErrorToHTTP(businessErr.Code)
	if businessErr.Code == service.CodeStore && storeStatus != 0 {
		statusCode = storeStatus
	}

	logger.Warn("HTTP: Бизнес-ошибка",
		zap.String("error_code", businessErr.Code),
		zap.String("path", r.URL.Path),
		zap.Int("http_status", statusCode))

	details := businessErr.Details
	if details == nil {
		details = map[string]any{}
	}
	responseWithJSON(w, statusCode,
		toPayload("error", businessErr.Code),
		toPayload("message", businessErr.Message),
		toPayload("details", details),
	)
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeValidation:
		return http.StatusBadRequest
	case service.CodeStore:
		return http.StatusInternalServerError
	case codeUnsupportedMedia:
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusBadRequest
	}
}

func invalidRequest(message string, details ...service.Detail) *service.BusinessError {
	return service.NewBusinessError(service.CodeValidation, message, details...)
}
