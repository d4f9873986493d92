package router

import (
	"database/sql"
	"net/http"

	"catatbuku/config"
	"catatbuku/internal/analysis"
	annotationHandler "catatbuku/internal/annotation"
	annotationRepository "catatbuku/internal/annotation/repository"
	annotationService "catatbuku/internal/annotation/service"
	docHandler "catatbuku/internal/document"
	"catatbuku/internal/document/repository"
	"catatbuku/internal/document/service"
	"catatbuku/middleware"
	"catatbuku/pkg/apiclient"
	"catatbuku/pkg/logger"
	"catatbuku/socket"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Setup wires the REST API and the WebSocket endpoint. It also picks the
// annotation backend for reading sessions, so it must run before hub.Run.
func Setup(cfg *config.Config, db *sql.DB, hub *socket.Hub, analyzer analysis.Analyzer) http.Handler {
	annRepo := annotationRepository.NewAnnotationRepository(db)
	annService := annotationService.NewAnnotationService(annRepo, hub)
	annHandler := annotationHandler.NewAnnotationHandler(annService)

	if cfg.Backend.URL != "" {
		logger.Sugar.Infof("Reading sessions store annotations at %s", cfg.Backend.URL)
		hub.Persistence = apiclient.New(cfg.Backend.URL, cfg.Backend.Token, cfg.Backend.Timeout)
	} else {
		hub.Persistence = annService
	}
	hub.DismissDelay = cfg.Annotation.DismissDelay

	docRepo := repository.NewDocumentRepository(db)
	docService := service.NewDocumentService(docRepo, hub, analyzer)
	docHandler := docHandler.NewDocumentHandler(docService)

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORSMiddleware)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.Auth.JWTSecret))

		r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
			socket.ServeWs(hub, w, r, middleware.UserID(r.Context()))
		})

		r.Route("/api/documents", func(r chi.Router) {
			r.Get("/", docHandler.GetDocuments)
			r.Post("/create", docHandler.CreateDocument)
			r.Post("/import", docHandler.ImportDocument)
			r.Get("/{id}", docHandler.GetDocument)
			r.Delete("/{id}", docHandler.DeleteDocument)
		})

		r.Post("/api/analysis/page", docHandler.AnalyzePage)
		r.Post("/api/analysis/extract", docHandler.ExtractText)

		r.Get("/api/ideas/", annHandler.GetIdeas)
		r.Post("/api/ideas/", annHandler.CreateIdea)
		r.Put("/api/ideas/{id}/", annHandler.UpdateIdea)
		r.Delete("/api/ideas/{id}/", annHandler.DeleteIdea)

		r.Get("/api/underlines/", annHandler.GetUnderlines)
		r.Post("/api/underlines/", annHandler.CreateUnderline)
		r.Delete("/api/underlines/{id}/", annHandler.DeleteUnderline)
	})

	return r
}
