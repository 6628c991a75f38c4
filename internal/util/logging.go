package util

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
)

func LogError(message string, err error) error {
	log.Printf("%s: %v", message, err)
	return fmt.Errorf("%s: %w", message, err)
}

func HandleError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResponse := struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Code    int    `json:"code"`
	}{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	json.NewEncoder(w).Encode(errorResponse)
}

// HandlePasswordRequired : как HandleError, но с машиночитаемым флагом,
// чтобы клиент показал форму ввода пароля папки
func HandlePasswordRequired(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)

	errorResponse := struct {
		Error            string `json:"error"`
		Message          string `json:"message"`
		Code             int    `json:"code"`
		RequiresPassword bool   `json:"requires_password"`
	}{
		Error:            http.StatusText(http.StatusForbidden),
		Message:          message,
		Code:             http.StatusForbidden,
		RequiresPassword: true,
	}

	json.NewEncoder(w).Encode(errorResponse)
}
