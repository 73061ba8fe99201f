package api

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

// PrintRoutes walks through all routes registered in the router and writes them to w
func PrintRoutes(w io.Writer, r *mux.Router) {
	fmt.Fprintln(w, "=== Registered Routes ===")
	fmt.Fprintln(w, "METHOD\tPATH\tHANDLER")
	fmt.Fprintln(w, "-------------------------------")

	_ = r.Walk(func(route *mux.Route, router *mux.Router, ancestors []*mux.Route) error {
		pathTemplate, _ := route.GetPathTemplate()
		methods, _ := route.GetMethods()

		// If no methods are specified, assume all methods
		methodStr := "ANY"
		if len(methods) > 0 {
			methodStr = strings.Join(methods, ",")
		}

		// Handler type only; mux does not expose function names
		handlerName := "-"
		if route.GetHandler() != nil {
			handlerName = fmt.Sprintf("%T", route.GetHandler())
		}

		fmt.Fprintf(w, "%s\t%s\t%s\n", methodStr, pathTemplate, handlerName)
		return nil
	})
	fmt.Fprintln(w, "==============================")
}

// PrintRoutesHandler returns a handler function to print all routes
func PrintRoutesHandler(router *mux.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		PrintRoutes(w, router)
	}
}
