package debug

import (
	"net/http"
	"reflect"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/centraunit/grapht/resolver"
	"github.com/centraunit/grapht/spi"
)

// Inspector is the part of a container the handler reads from.
type Inspector interface {
	Graph(t reflect.Type, role *spi.Role) (*resolver.Node, error)
	Configuration() spi.InjectorConfiguration
	Gatherer() prometheus.Gatherer
}

// Root names a type whose graph the handler serves.
type Root struct {
	Name string
	Type reflect.Type
	Role *spi.Role
}

// Handler serves:
//
//	GET /rules               configured bind rules
//	GET /graphs              names of the registered roots
//	GET /graphs/{name}       resolved graph as JSON, or as text with ?format=text
//	GET /metrics             Prometheus metrics of the container
func Handler(in Inspector, roots ...Root) http.Handler {
	byName := make(map[string]Root, len(roots))
	for _, r := range roots {
		byName[r.Name] = r
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/rules", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, DescribeRules(in.Configuration()))
	})

	r.Get("/graphs", func(w http.ResponseWriter, req *http.Request) {
		names := make([]string, 0, len(byName))
		for name := range byName {
			names = append(names, name)
		}
		sort.Strings(names)
		writeJSON(w, http.StatusOK, names)
	})

	r.Get("/graphs/{name}", func(w http.ResponseWriter, req *http.Request) {
		root, ok := byName[chi.URLParam(req, "name")]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown graph"})
			return
		}
		n, err := in.Graph(root.Type, root.Role)
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
			return
		}
		if req.URL.Query().Get("format") == "text" {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_ = Renderer{NoColor: true}.Render(w, n)
			return
		}
		writeJSON(w, http.StatusOK, Describe(n))
	})

	r.Handle("/metrics", promhttp.HandlerFor(in.Gatherer(), promhttp.HandlerOpts{}))

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
