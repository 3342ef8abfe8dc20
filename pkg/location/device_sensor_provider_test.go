package location

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	ggaFix     = "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47"
	ggaNoFix   = "$GPGGA,123520,,,,,0,00,,,M,,M,,*61"
	gnggaFix   = "$GNGGA,092750.000,5321.6802,N,00630.3372,W,1,8,1.03,61.7,M,55.2,M,,*68"
	rmcFix     = "$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A"
	garbledGGA = "$GPGGA,1235"
)

func sensorWithOutput(output string) *DeviceSensorProvider {
	d := NewDeviceSensorProvider("/dev/ttyTEST", 9600)
	d.now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }
	d.open = func(string, int) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(output)), nil
	}
	return d
}

func TestDeviceSensorProvider_GetPosition_Success(t *testing.T) {
	d := sensorWithOutput(strings.Join([]string{garbledGGA, rmcFix, ggaNoFix, ggaFix}, "\r\n"))

	loc, err := d.GetPosition(context.Background(), PositionOptions{})

	require.NoError(t, err)
	assert.InDelta(t, 48.1173, loc.Latitude, 1e-4)
	assert.InDelta(t, 11.5167, loc.Longitude, 1e-4)
	assert.InDelta(t, 4.5, loc.Accuracy, 1e-9)
	assert.Equal(t, int64(1_700_000_000_000), loc.Timestamp)
}

func TestDeviceSensorProvider_GetPosition_MultiConstellation(t *testing.T) {
	d := sensorWithOutput(gnggaFix + "\r\n")

	loc, err := d.GetPosition(context.Background(), PositionOptions{})

	require.NoError(t, err)
	assert.InDelta(t, 53.3613, loc.Latitude, 1e-4)
	assert.InDelta(t, -6.5056, loc.Longitude, 1e-4)
}

func TestDeviceSensorProvider_GetPosition_NoFix(t *testing.T) {
	d := sensorWithOutput(ggaNoFix + "\r\n" + rmcFix + "\r\n")

	_, err := d.GetPosition(context.Background(), PositionOptions{})

	var posErr *PositionError
	require.ErrorAs(t, err, &posErr)
	assert.Equal(t, CodePositionUnavailable, posErr.Code)
}

func TestDeviceSensorProvider_GetPosition_OpenErrors(t *testing.T) {
	tests := []struct {
		name    string
		openErr error
		want    PositionErrorCode
	}{
		{"permission", &fs.PathError{Op: "open", Path: "/dev/ttyTEST", Err: fs.ErrPermission}, CodePermissionDenied},
		{"missing device", &fs.PathError{Op: "open", Path: "/dev/ttyTEST", Err: fs.ErrNotExist}, CodePositionUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDeviceSensorProvider("/dev/ttyTEST", 9600)
			d.open = func(string, int) (io.ReadCloser, error) { return nil, tt.openErr }

			_, err := d.GetPosition(context.Background(), PositionOptions{})

			var posErr *PositionError
			require.ErrorAs(t, err, &posErr)
			assert.Equal(t, tt.want, posErr.Code)
			assert.True(t, errors.Is(err, tt.openErr))
		})
	}
}

func TestDeviceSensorProvider_GetPosition_Timeout(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	d := NewDeviceSensorProvider("/dev/ttyTEST", 9600)
	d.open = func(string, int) (io.ReadCloser, error) { return pr, nil }

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := d.GetPosition(ctx, PositionOptions{})

	var posErr *PositionError
	require.ErrorAs(t, err, &posErr)
	assert.Equal(t, CodeTimeout, posErr.Code)
}

func TestDeviceSensorProvider_GetPosition_ReusesRecentFix(t *testing.T) {
	d := sensorWithOutput(ggaFix + "\r\n")
	first, err := d.GetPosition(context.Background(), PositionOptions{MaximumAge: time.Minute})
	require.NoError(t, err)

	d.open = func(string, int) (io.ReadCloser, error) { return nil, errors.New("should not reopen") }
	second, err := d.GetPosition(context.Background(), PositionOptions{MaximumAge: time.Minute})

	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, err = d.GetPosition(context.Background(), PositionOptions{})
	assert.Error(t, err)
}
