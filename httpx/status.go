package httpx

import "net/http"

const (
	StatusOK                 = http.StatusOK                  // Successful request
	StatusCreated            = http.StatusCreated             // Resource created
	StatusNoContent          = http.StatusNoContent           // Successful with no body
	StatusFound              = http.StatusFound               // Redirect after login or logout
	StatusSeeOther           = http.StatusSeeOther            // Redirect after a form post
	StatusBadRequest         = http.StatusBadRequest          // Validation or malformed input
	StatusUnauthorized       = http.StatusUnauthorized        // Missing or invalid session
	StatusForbidden          = http.StatusForbidden           // Signed in but not an admin
	StatusNotFound           = http.StatusNotFound            // Post or comment not found
	StatusConflict           = http.StatusConflict            // Slug already taken
	StatusInternalError      = http.StatusInternalServerError // Unexpected server error
	StatusBadGateway         = http.StatusBadGateway          // Upstream API failure
	StatusServiceUnavailable = http.StatusServiceUnavailable  // Dependency failure or maintenance
)
