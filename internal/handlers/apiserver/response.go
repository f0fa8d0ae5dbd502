package apiserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"reunion/internal/apperr"
	"reunion/internal/middleware"
	"reunion/internal/storage"
)

// ErrorResponse 是 API 错误响应的通用结构体。
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse 是只携带提示信息的成功响应。
type MessageResponse struct {
	Message string `json:"message"`
}

// writeJSONResponse 是一个辅助函数，用于发送 JSON 响应。
func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// 头部已发送，只能记录
			logrus.WithError(err).Error("failed to encode JSON response")
		}
	}
}

// writeJSONError 是一个辅助函数，用于发送 JSON 格式的错误响应。
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSONResponse(w, statusCode, ErrorResponse{Error: message})
}

// writeServiceError maps a service error onto its status. Unclassified
// errors are logged and answered with the generic fallback message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		logrus.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).WithError(err).Error(fallback)
		writeJSONError(w, fallback, status)
		return
	}
	writeJSONError(w, apperr.Message(err), status)
}

// currentUserID 读取认证中间件写入的用户ID，失败时已写出 401。
func currentUserID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "unable to identify the current user", http.StatusUnauthorized)
	}
	return userID, ok
}

// pathID parses the numeric {id} route variable.
func pathID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := storage.StrToUint(mux.Vars(r)["id"])
	if err != nil || id == 0 {
		writeJSONError(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, key string) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	return v, err == nil
}
