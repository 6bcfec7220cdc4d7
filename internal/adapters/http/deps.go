package http

import (
	natsadapter "github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/adapters/nats"
	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/adapters/postgres"
	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/adapters/valkey"
	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Routes   *usecases.RoutesService
	Builder  *usecases.PathService
	Geocoder *usecases.GeocodeService
	Capture  *usecases.CaptureService
	Notifier *natsadapter.Notifier
	DB       *postgres.DB
	Cache    *valkey.Cache
}
