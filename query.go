package belgiantrain

import (
	"net/http"
	"strings"
)

// QueryError reports an invalid request parameter.
type QueryError struct{ Msg string }

func (e *QueryError) Error() string { return e.Msg }

// requireParam fetches a mandatory query parameter, trimmed.
func requireParam(r *http.Request, name string) (string, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return "", &QueryError{Msg: "You must provide a " + name + " parameter."}
	}
	return v, nil
}

// optionalParam fetches a query parameter, trimmed; empty when absent.
func optionalParam(r *http.Request, name string) string {
	return strings.TrimSpace(r.URL.Query().Get(name))
}

// exportFormat validates the ?format= parameter of the export route.
// Protobuf is the wire default.
func exportFormat(r *http.Request) (string, error) {
	f := strings.ToLower(optionalParam(r, "format"))
	switch f {
	case "", "proto", "protobuf":
		return "protobuf", nil
	case "json":
		return "json", nil
	}
	return "", &QueryError{Msg: "Unsupported format: " + f}
}
