package location

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"googlemaps.github.io/maps"
)

func TestParseWiFiAccessPoints(t *testing.T) {
	output := `AA\:BB\:CC\:DD\:EE\:FF:82
00\:14\:22\:01\:23\:45:47
not-a-mac:50
11\:22\:33\:44\:55\:66:weak
`

	aps, err := parseWiFiAccessPoints(output)

	require.NoError(t, err)
	assert.Equal(t, []maps.WiFiAccessPoint{
		{MACAddress: "AA:BB:CC:DD:EE:FF", SignalStrength: 82},
		{MACAddress: "00:14:22:01:23:45", SignalStrength: 47},
	}, aps)
}

func TestParseCellTowers(t *testing.T) {
	output := `modem.3gpp.imei                 : 356938035643809
modem.3gpp.operator-code        : 21407
modem.3gpp.lac                  : 1A2B
modem.3gpp.cid                  : 00C0FFEE
`

	towers, err := parseCellTowers(output)

	require.NoError(t, err)
	require.Len(t, towers, 1)
	assert.Equal(t, 214, towers[0].MobileCountryCode)
	assert.Equal(t, 7, towers[0].MobileNetworkCode)
	assert.Equal(t, 0x1A2B, towers[0].LocationAreaCode)
	assert.Equal(t, 0xC0FFEE, towers[0].CellID)
}

func TestParseCellTowers_Incomplete(t *testing.T) {
	_, err := parseCellTowers("modem.3gpp.lac : 1A2B\n")
	assert.Error(t, err)
}

func TestIsValidMAC(t *testing.T) {
	assert.True(t, isValidMAC("ff:ee:dd:cc:bb:aa"))
	assert.False(t, isValidMAC("ff:ee:dd:cc:bb"))
	assert.False(t, isValidMAC("zz:ee:dd:cc:bb:aa"))
}
