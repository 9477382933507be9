// Package api holds the wire types shared by every module's controllers.
package api

// APIError is the JSON error envelope. The message rides under the legacy
// "error" key the frontend already understands.
type APIError struct {
	Message string            `json:"error"`
	Code    string            `json:"code"`
	Meta    map[string]string `json:"meta,omitempty"`
}
