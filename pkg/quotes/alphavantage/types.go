package alphavantage

import "encoding/json"

// errorEnvelope captures the soft-error shapes Alpha Vantage returns with
// HTTP 200: "Error Message" for rejected requests, "Note" and "Information"
// for rate-limit notices.
type errorEnvelope struct {
	ErrorMessage string `json:"Error Message"`
	Note         string `json:"Note"`
	Information  string `json:"Information"`
}

// softErrorMessage inspects a 200 response body for provider-level error
// markers and returns a description, or "" when the payload looks healthy.
func softErrorMessage(body []byte) string {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		// Non-JSON bodies are surfaced downstream by shape validation.
		return ""
	}
	switch {
	case env.ErrorMessage != "":
		return "request rejected: " + env.ErrorMessage
	case env.Note != "":
		return "request throttled: " + env.Note
	case env.Information != "":
		return "request refused: " + env.Information
	}
	return ""
}
