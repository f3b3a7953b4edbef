package httpresponse

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Response — единый конверт всех HTTP-ответов сервера.
type Response struct {
	Status int `json:"status"`
	Body   any `json:"body,omitempty"`
}

const internalErrorJSON = `{"status":500,"body":{"error":"internal server error"}}`

// WriteResponseWithStatus кладёт body в конверт и дублирует статус в
// HTTP-заголовке.
func WriteResponseWithStatus(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(Response{Status: status, Body: body})
	if err != nil {
		WriteInternalErrorResponse(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func WriteInternalErrorResponse(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = fmt.Fprintln(w, internalErrorJSON)
}
