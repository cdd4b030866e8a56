package main

import (
	"github.com/gofiber/fiber/v3"
	"github.com/hidenkeys/studios/booking"
	"github.com/hidenkeys/studios/studio"
	"github.com/hidenkeys/studios/user"
)

func publicRoutes(r fiber.Router, studios *studio.Handler, bookings *booking.Handler) {
	r.Get("/studios", studios.List)
	r.Get("/studios/search", bookings.Search)
	r.Get("/studios/:id", studios.GetById)
	r.Get("/studios/:id/rates", studios.Rates)
	r.Get("/studios/:id/booked-dates", bookings.BookedDates)

	r.Post("/quotes", bookings.Quote)
	r.Post("/bookings", bookings.Book)
}

func authRoutes(r fiber.Router, users *user.Handler) {
	r.Post("/login", users.Login)
	r.Post("/logout", users.Logout)
}

// adminRoutes hang off the admin guard.
func adminRoutes(r fiber.Router, studios *studio.Handler, bookings *booking.Handler, users *user.Handler) {
	r.Get("/me", users.Me)
	r.Patch("/me/password", users.ChangePassword)

	r.Post("/studios", studios.Create)
	r.Patch("/studios/:id", studios.Update)
	r.Get("/studios/:id/calendar", bookings.Calendar)
	r.Get("/studios/:id/availability", bookings.Availability)

	r.Get("/reservations", bookings.List)
	r.Get("/reservations/export", bookings.Export)
	r.Post("/reservations", bookings.Create)
	r.Get("/reservations/:id", bookings.GetById)
	r.Patch("/reservations/:id", bookings.Update)
	r.Patch("/reservations/:id/status", bookings.SetStatus)
	r.Post("/reservations/:id/proposal", bookings.Propose)
	r.Delete("/reservations/:id", bookings.Delete)

	r.Get("/guests", bookings.Guests)
}
