package handler

import (
	"context"
	"net/http"

	"github.com/wadjakorntonsri/go-qr-platform/pkg/app"
	"github.com/wadjakorntonsri/go-qr-platform/pkg/config"
)

var mux http.Handler

func init() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	cfg = app.ForServerless(cfg)
	logger := config.SetupLogger(cfg)

	// Note: On Vercel, db.sqlite is ephemeral unless using a remote SQL/Turso URL in DATABASE_URL
	a, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		panic(err)
	}
	mux = a.Handler
}

// Handler is the entrypoint for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	mux.ServeHTTP(w, r)
}
