package handler

import "net/http"

// NewRouter registers every API route (Go 1.22+ enhanced patterns)
func NewRouter(translations *TranslationHandler, exports *ExportHandler) *http.ServeMux {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", translations.HealthCheck)

	// Editing
	mux.HandleFunc("GET /api/tasks/{taskID}/translation", translations.GetTranslation)
	mux.HandleFunc("POST /api/tasks/{taskID}/translation/versions", translations.SaveVersion)
	mux.HandleFunc("PUT /api/tasks/{taskID}/translation/particle", translations.SaveParticle)
	mux.HandleFunc("GET /api/tasks/{taskID}/translation/versions", translations.ListVersions)
	mux.HandleFunc("GET /api/versions/{id}", translations.GetVersion)
	mux.HandleFunc("GET /api/particles/{id}", translations.GetParticle)

	// Export and print
	mux.HandleFunc("GET /api/tasks/{taskID}/translation/preview", exports.Preview)
	mux.HandleFunc("GET /api/tasks/{taskID}/translation/pdf", exports.GetPDF)
	mux.HandleFunc("POST /api/tasks/{taskID}/translation/print", exports.Print)
	mux.HandleFunc("POST /api/tasks/{taskID}/translation/finalize", exports.Finalize)

	return mux
}
