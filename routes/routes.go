package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/openpair/chess-tournaments/handlers"
)

func SetupRoutes(
	router *chi.Mux,
	tournamentHandler *handlers.TournamentHandler,
	rosterHandler *handlers.RosterHandler,
	pairingHandler *handlers.PairingHandler,
	roundHandler *handlers.RoundHandler,
	standingsHandler *handlers.StandingsHandler,
	sectionHandler *handlers.SectionHandler,
	teamHandler *handlers.TeamHandler,
	prizeHandler *handlers.PrizeHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/swagger/*", httpSwagger.Handler())

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", tournamentHandler.ListHandler)
		r.Post("/", tournamentHandler.CreateHandler)

		r.Route("/{tournamentID}", func(r chi.Router) {
			r.Get("/", tournamentHandler.GetByIDHandler)
			r.Patch("/status", tournamentHandler.UpdateStatusHandler)
			r.Put("/pairing-config", tournamentHandler.UpdatePairingConfigHandler)
			r.Post("/logo", tournamentHandler.UploadLogoHandler)
			r.Get("/standings", standingsHandler.TournamentHandler)

			r.Route("/players", func(r chi.Router) {
				r.Get("/", rosterHandler.ListHandler)
				r.Post("/", rosterHandler.RegisterHandler)
				r.Post("/refresh-ratings", rosterHandler.RefreshRatingsHandler)
			})

			r.Route("/teams", func(r chi.Router) {
				r.Get("/", teamHandler.ListHandler)
				r.Post("/", teamHandler.CreateHandler)
			})

			r.Route("/sections", func(r chi.Router) {
				r.Post("/", tournamentHandler.CreateSectionHandler)
				r.Post("/merge", sectionHandler.MergeHandler)

				r.Route("/{section}", func(r chi.Router) {
					r.Get("/standings", standingsHandler.SectionHandler)
					r.Post("/reset", roundHandler.ResetHandler)
					r.Get("/prizes", prizeHandler.ListHandler)
					r.Post("/prizes", prizeHandler.CreateHandler)

					r.Route("/rounds", func(r chi.Router) {
						r.Get("/", roundHandler.ListHandler)

						r.Route("/{round}", func(r chi.Router) {
							r.Get("/", roundHandler.StatusHandler)
							r.Post("/complete", roundHandler.CompleteHandler)
							r.Get("/pairings", pairingHandler.ListHandler)
							r.Post("/pairings", pairingHandler.GenerateHandler)
						})
					})
				})
			})
		})
	})

	router.Route("/players/{playerID}", func(r chi.Router) {
		r.Get("/", rosterHandler.GetHandler)
		r.Post("/withdraw", rosterHandler.WithdrawHandler)
		r.Post("/reinstate", rosterHandler.ReinstateHandler)
		r.Put("/section", rosterHandler.AssignSectionHandler)
		r.Post("/byes", rosterHandler.DeclareByeHandler)
		r.Delete("/byes", rosterHandler.ClearAllByesHandler)
		r.Delete("/byes/{round}", rosterHandler.ClearByeHandler)
	})

	router.Route("/pairings/{pairingID}", func(r chi.Router) {
		r.Put("/players", pairingHandler.ManualPairingHandler)
		r.Put("/result", pairingHandler.SubmitResultHandler)
	})

	router.Post("/prizes/{prizeID}/award", prizeHandler.AwardHandler)

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)
}
