package api

import (
	"net/http"

	"github.com/JaimeStill/assay/pkg/handlers"
	"github.com/JaimeStill/assay/pkg/routes"
	"github.com/JaimeStill/assay/pkg/taxonomy"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	runtime *Runtime,
) {
	routes.Register(
		mux,
		domain.Classifications.Handler().Routes(),
		taxonomyHandler{tx: runtime.Taxonomy}.routes(),
	)
}

// taxonomyHandler serves the loaded taxonomy read-only.
type taxonomyHandler struct {
	tx *taxonomy.Taxonomy
}

func (h taxonomyHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/taxonomy",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.tree},
		},
	}
}

func (h taxonomyHandler) tree(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, h.tx.Tree())
}
