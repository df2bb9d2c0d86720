package compare_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentstation/parkmerge/pkg/compare"
	"github.com/agentstation/parkmerge/pkg/normalize"
)

func TestCoordinates(t *testing.T) {
	const tol = 0.001
	tests := []struct {
		name      string
		a, b      string
		wantScore float64
		wantOK    bool
	}{
		{"identical", "59.93,30.31", "59.93,30.31", 1, true},
		{"within tolerance", "59.93,30.31", "59.9301,30.3101", 1, true},
		{"lat beyond tolerance", "59.93,30.31", "59.9312,30.31", 0, true},
		{"lon beyond tolerance", "59.93,30.31", "59.93,30.3112", 0, true},
		{"different formats", "(59.93; 30.31)", "59.93 30.31", 1, true},
		{"unparsable side not comparable", "59.93,30.31", "somewhere", 0, false},
		{"single number not comparable", "59.93", "59.93,30.31", 0, false},
		{"missing side not comparable", "59.93,30.31", "", 0, false},
		{"both missing", "", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, ok := compare.Coordinates(tt.a, tt.b, tol)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantScore, score)
		})
	}
}

func TestCoordinatesToleranceProperty(t *testing.T) {
	const tol = 0.001
	base := normalize.Point{Lat: 55.75, Lon: 37.61}
	offsets := []float64{0, 0.0001, 0.0005, 0.0009}
	for _, d := range offsets {
		for _, sign := range []float64{1, -1} {
			a := "55.75,37.61"
			b := pointString(base.Lat+sign*d, base.Lon-sign*d)
			score, ok := compare.Coordinates(a, b, tol)
			assert.True(t, ok)
			assert.Equal(t, 1.0, score, "offset %v", d)
		}
	}
	for _, d := range []float64{0.0011, 0.01, 1} {
		score, _ := compare.Coordinates("55.75,37.61", pointString(base.Lat+d, base.Lon), tol)
		assert.Equal(t, 0.0, score, "lat offset %v", d)
		score, _ = compare.Coordinates("55.75,37.61", pointString(base.Lat, base.Lon+d), tol)
		assert.Equal(t, 0.0, score, "lon offset %v", d)
	}
}

func TestText(t *testing.T) {
	tests := []struct {
		name      string
		a, b      string
		wantScore float64
		wantOK    bool
	}{
		{"identical after normalization", "ТЦ «Галерея»", "галерея", 1, true},
		{"partial", "Галерея", "Галерея СПб", 14.0 / 18.0, true},
		{"address digits", "Невский 1", "Невский 10", 18.0 / 19.0, true},
		{"nothing in common", "abc", "xyz", 0, true},
		{"stop words only", "Парковка", "Parking X", 0, true},
		{"missing side", "Галерея", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, ok := compare.Text(tt.a, tt.b)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.wantScore, score, 1e-9)
		})
	}
}

func TestPhone(t *testing.T) {
	tests := []struct {
		name      string
		a, b      string
		wantScore float64
		wantOK    bool
	}{
		{"same digits", "+7 911 1234567", "79111234567", 1, true},
		{"country prefix differs", "+7 911 1234567", "8(911)123-45-67", 1, true},
		{"short local number", "123-45-67", "+7 812 1234567", 1, true},
		{"different", "+7 911 1234567", "+7 911 7654321", 0, true},
		{"no digits", "нет", "+7 911 1234567", 0, false},
		{"missing", "", "+7 911 1234567", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, ok := compare.Phone(tt.a, tt.b)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantScore, score)
		})
	}
}

func TestDistance(t *testing.T) {
	d, ok := compare.Distance("59.93,30.31", "59.93,30.31")
	assert.True(t, ok)
	assert.InDelta(t, 0, d, 1e-6)

	// One thousandth of a degree of latitude is about 111 m.
	d, ok = compare.Distance("59.930,30.31", "59.931,30.31")
	assert.True(t, ok)
	assert.InDelta(t, 111.2, d, 0.5)

	_, ok = compare.Distance("59.93,30.31", "")
	assert.False(t, ok)
}

func pointString(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lon, 'f', -1, 64)
}
