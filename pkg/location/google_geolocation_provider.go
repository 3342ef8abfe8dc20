package location

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"googlemaps.github.io/maps"
)

// GoogleGeolocationProvider uses the Google Maps Geolocation API to get location data.
type GoogleGeolocationProvider struct {
	client     *maps.Client // Maps API client for making geolocation requests
	modemIndex int          // ModemManager index used for cell tower lookup
	logger     zerolog.Logger
	cache      fixCache
	now        func() time.Time

	scanWiFi  func(ctx context.Context) ([]maps.WiFiAccessPoint, error)
	scanCells func(ctx context.Context, modemIndex int) ([]maps.CellTower, error)
}

// NewGoogleGeolocationProvider creates a new GoogleGeolocationProvider instance.
// Extra client options are passed to the Maps client, e.g. maps.WithBaseURL.
func NewGoogleGeolocationProvider(apiKey string, modemIndex int, logger zerolog.Logger, opts ...maps.ClientOption) (*GoogleGeolocationProvider, error) {
	c, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, err
	}

	return &GoogleGeolocationProvider{
		client:     c,
		modemIndex: modemIndex,
		logger:     logger,
		now:        time.Now,
		scanWiFi:   getWiFiAccessPoints,
		scanCells:  getCellTowers,
	}, nil
}

// GetPosition retrieves the device's location from nearby WiFi access points and cell towers,
// falling back to the public IP address when neither can be scanned.
func (g *GoogleGeolocationProvider) GetPosition(ctx context.Context, opts PositionOptions) (Location, error) {
	if loc, ok := g.cache.get(opts.MaximumAge, g.now()); ok {
		return loc, nil
	}

	req := &maps.GeolocationRequest{ConsiderIP: true}

	// Radio scans only sharpen the estimate; the IP still gives a coarse fix without them
	if opts.EnableHighAccuracy {
		var scans errgroup.Group
		scans.Go(func() error {
			wifiAPs, err := g.scanWiFi(ctx)
			if err != nil {
				g.logger.Debug().Err(err).Msg("WiFi scan unavailable")
			}
			req.WiFiAccessPoints = wifiAPs
			return nil
		})
		scans.Go(func() error {
			cellTowers, err := g.scanCells(ctx, g.modemIndex)
			if err != nil {
				g.logger.Debug().Err(err).Int("modem", g.modemIndex).Msg("Cell tower scan unavailable")
			}
			req.CellTowers = cellTowers
			return nil
		})
		_ = scans.Wait()
	}

	resp, err := g.client.Geolocate(ctx, req)
	if err != nil {
		return Location{}, geolocateError(ctx, err)
	}

	now := g.now()
	loc := Location{
		Latitude:  resp.Location.Lat,
		Longitude: resp.Location.Lng,
		Accuracy:  resp.Accuracy,
		Timestamp: millis(now),
	}
	g.cache.put(loc, now)

	return loc, nil
}

// geolocateError classifies a Geolocation API failure. The API only surfaces its message text.
func geolocateError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil || errors.Is(err, context.DeadlineExceeded) {
		if ctxErr == nil {
			ctxErr = context.DeadlineExceeded
		}
		return contextError(ctxErr)
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"api key", "denied", "forbidden", "not authorized"} {
		if strings.Contains(msg, marker) {
			return &PositionError{Code: CodePermissionDenied, Message: "geolocation API refused the request", Err: err}
		}
	}
	return &PositionError{Code: CodePositionUnavailable, Message: "geolocation API returned no position", Err: err}
}

// GoogleNetworkLocator resolves a coarse, IP based location and names its city.
type GoogleNetworkLocator struct {
	client *maps.Client
}

// NewGoogleNetworkLocator creates a NetworkLocator backed by the Geolocation and Geocoding APIs.
func NewGoogleNetworkLocator(apiKey string, opts ...maps.ClientOption) (*GoogleNetworkLocator, error) {
	c, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, err
	}
	return &GoogleNetworkLocator{client: c}, nil
}

// Locate geolocates the caller's IP address and reverse geocodes the result to a locality.
func (g *GoogleNetworkLocator) Locate(ctx context.Context) (NetworkLocation, error) {
	resp, err := g.client.Geolocate(ctx, &maps.GeolocationRequest{ConsiderIP: true})
	if err != nil {
		return NetworkLocation{}, err
	}

	loc := NetworkLocation{Latitude: resp.Location.Lat, Longitude: resp.Location.Lng}

	results, err := g.client.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng:     &resp.Location,
		ResultType: []string{"locality"},
	})
	if err != nil {
		return NetworkLocation{}, err
	}

	loc.City = localityName(results)
	return loc, nil
}

func localityName(results []maps.GeocodingResult) string {
	for _, r := range results {
		for _, c := range r.AddressComponents {
			for _, t := range c.Types {
				if t == "locality" {
					return c.LongName
				}
			}
		}
	}
	return ""
}
