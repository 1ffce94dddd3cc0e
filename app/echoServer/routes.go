package echoServer

import (
	"vehiclerental/app/echoServer/controller/booking"
	"vehiclerental/app/echoServer/controller/payment"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

type C struct {
	Booking   *booking.Controller
	Payment   *payment.Controller
	JWTSecret string
}

func Register(e *echo.Echo, c C) {
	// Public
	pub := e.Group("/v1")

	// async gateway result, authenticated by its signature, not by JWT
	pub.POST("/payment/midtrans", c.Payment.HandleMidtrans)

	// Renter
	auth := e.Group("/v1")
	auth.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(c.JWTSecret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims { return jwt.MapClaims{} },
		TokenLookup:   "header:Authorization:Bearer ",
	}))

	auth.POST("/bookings", c.Booking.Create)
	auth.GET("/bookings/my", c.Booking.MyBookings)
	auth.GET("/bookings/:code", c.Booking.Get)
	auth.POST("/bookings/:code/edit", c.Booking.Edit)
	auth.POST("/bookings/:code/cancel", c.Booking.Cancel)
	auth.POST("/bookings/:code/checkin", c.Booking.CheckIn)
	auth.POST("/bookings/:code/return", c.Booking.Return)
}
