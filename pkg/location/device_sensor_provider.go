package location

import (
	"bufio"
	"context"
	"errors"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/adrianmo/go-nmea"
	"github.com/tarm/serial"
)

// Approximate user equivalent range error in meters, multiplied by HDOP to estimate accuracy.
const uereMeters = 5.0

// DeviceSensorProvider is responsible for retrieving location data from a GPS device connected via serial port.
type DeviceSensorProvider struct {
	port     string // Serial port to which the GPS device is connected
	baudRate int    // Baud rate for the serial communication
	cache    fixCache
	now      func() time.Time

	open func(port string, baudRate int) (io.ReadCloser, error)
}

// NewDeviceSensorProvider creates a new instance of DeviceSensorProvider with the specified port and baud rate.
func NewDeviceSensorProvider(port string, baudRate int) *DeviceSensorProvider {
	return &DeviceSensorProvider{
		port:     port,
		baudRate: baudRate,
		now:      time.Now,
		open:     openSerialPort,
	}
}

func openSerialPort(port string, baudRate int) (io.ReadCloser, error) {
	return serial.OpenPort(&serial.Config{Name: port, Baud: baudRate})
}

type sensorResult struct {
	loc Location
	err error
}

// GetPosition reads NMEA sentences from the device until a valid GGA fix arrives or ctx expires.
func (d *DeviceSensorProvider) GetPosition(ctx context.Context, opts PositionOptions) (Location, error) {
	if loc, ok := d.cache.get(opts.MaximumAge, d.now()); ok {
		return loc, nil
	}

	s, err := d.open(d.port, d.baudRate)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return Location{}, &PositionError{Code: CodePermissionDenied, Message: "no access to GPS device " + d.port, Err: err}
		}
		return Location{}, &PositionError{Code: CodePositionUnavailable, Message: "failed to open GPS device " + d.port, Err: err}
	}
	defer s.Close() // Ensure the port is closed when done

	results := make(chan sensorResult, 1)
	go func() {
		loc, err := readFix(s)
		results <- sensorResult{loc: loc, err: err}
	}()

	select {
	case <-ctx.Done():
		// Closing the port unblocks the reader goroutine
		s.Close()
		return Location{}, contextError(ctx.Err())
	case res := <-results:
		if res.err != nil {
			return Location{}, res.err
		}
		now := d.now()
		res.loc.Timestamp = millis(now)
		d.cache.put(res.loc, now)
		return res.loc, nil
	}
}

// readFix scans r for the first GGA sentence carrying a valid fix.
func readFix(r io.Reader) (Location, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text()) // Read a line from the GPS output
		if !strings.HasPrefix(line, "$") {
			continue
		}

		sentence, err := nmea.Parse(line)
		if err != nil {
			// Partial sentences are common right after the port opens
			continue
		}
		if sentence.DataType() != nmea.TypeGGA {
			continue
		}

		gga, ok := sentence.(nmea.GGA)
		if !ok || gga.FixQuality == nmea.Invalid {
			continue
		}

		return Location{
			Latitude:  gga.Latitude,
			Longitude: gga.Longitude,
			Accuracy:  gga.HDOP * uereMeters,
		}, nil
	}

	// Check for any scanner errors
	if err := scanner.Err(); err != nil {
		return Location{}, &PositionError{Code: CodePositionUnavailable, Message: "failed to read GPS device", Err: err}
	}

	return Location{}, &PositionError{Code: CodePositionUnavailable, Message: "no valid GPS data found"}
}
