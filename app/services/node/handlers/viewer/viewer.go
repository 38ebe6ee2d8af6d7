// Package viewer serves the page that renders the ledger as blocks are mined.
package viewer

import (
	"context"
	_ "embed"
	"net/http"
)

//go:embed index.html
var index []byte

// Index writes the viewer page. The page loads the chain from the v1 api and
// then follows the event stream for newly mined blocks.
func Index(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	_, err := w.Write(index)
	return err
}
