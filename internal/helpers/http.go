package helpers

import (
	"encoding/json"
	"net/http"
)

// Message is the body returned by operations that only report an outcome or an error.
type Message struct {
	Message string `json:"message"`
}

// RespondJSON writes body as a JSON document with the given status code.
func RespondJSON(rw http.ResponseWriter, statusCode int, body any) {
	respBody, err := json.Marshal(body)
	if err != nil {
		statusCode = http.StatusInternalServerError
		respBody, _ = json.Marshal(Message{Message: err.Error()})
	}
	if statusCode == 0 {
		statusCode = http.StatusOK
	}
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(statusCode)
	_, _ = rw.Write(respBody)
}

// RespondError writes the error as a message body. A nil error writes an empty message.
func RespondError(rw http.ResponseWriter, statusCode int, err error) {
	m := Message{}
	if err != nil {
		m.Message = err.Error()
	}
	RespondJSON(rw, statusCode, m)
}
