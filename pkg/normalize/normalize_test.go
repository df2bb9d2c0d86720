package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentstation/parkmerge/pkg/normalize"
)

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"lower and punctuation", "Parking-X, Inc.", "x inc"},
		{"russian stop words", "ТЦ «Галерея» парковка", "галерея"},
		{"legal entity", "ООО \"Стоянка Плюс\"", "плюс"},
		{"collapse whitespace", "  Лиговский   пр.\t30  ", "лиговский пр 30"},
		{"only stop words", "Торговый центр", ""},
		{"underscore kept", "gate_2", "gate_2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalize.Text(tt.in))
		})
	}
}

func TestTextIsIdempotent(t *testing.T) {
	inputs := []string{
		"ТЦ «Галерея», парковка №3",
		"Parking X (north gate)",
		"Невский пр., д. 28 — вход со двора",
		"İstanbul Otopark",
		"   ",
		"ёлка ЁЛКА",
	}
	for _, in := range inputs {
		once := normalize.Text(in)
		assert.Equal(t, once, normalize.Text(once), "input %q", in)
	}
}

func TestCoordinates(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   normalize.Point
		wantOK bool
	}{
		{"comma", "59.93,30.31", normalize.Point{Lat: 59.93, Lon: 30.31}, true},
		{"comma space", "59.9301, 30.3101", normalize.Point{Lat: 59.9301, Lon: 30.3101}, true},
		{"semicolon", "59.93;30.31", normalize.Point{Lat: 59.93, Lon: 30.31}, true},
		{"whitespace", "59.93 30.31", normalize.Point{Lat: 59.93, Lon: 30.31}, true},
		{"brackets and units", "(59.93°, 30.31°)", normalize.Point{Lat: 59.93, Lon: 30.31}, true},
		{"labels", "lat: 59.93, lon: 30.31", normalize.Point{Lat: 59.93, Lon: 30.31}, true},
		{"negative", "-33.86,151.2", normalize.Point{Lat: -33.86, Lon: 151.2}, true},
		{"extra tokens ignored", "59.93,30.31,12", normalize.Point{Lat: 59.93, Lon: 30.31}, true},
		{"one number", "59.93", normalize.Point{}, false},
		{"empty", "", normalize.Point{}, false},
		{"nan", "NaN", normalize.Point{}, false},
		{"none", "None", normalize.Point{}, false},
		{"garbage", "abc,def", normalize.Point{}, false},
		{"bare sign", "-,30.31", normalize.Point{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := normalize.Coordinates(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsNullSentinelAndClean(t *testing.T) {
	for _, s := range []string{"", "  ", "nan", "NaN", "None", "NULL"} {
		assert.True(t, normalize.IsNullSentinel(s), s)
		assert.Empty(t, normalize.Clean(s), s)
	}
	assert.False(t, normalize.IsNullSentinel("nano"))
	assert.Equal(t, "ул. Ленина, 5", normalize.Clean("  ул.  Ленина,\n5 "))
}

func TestDigits(t *testing.T) {
	assert.Equal(t, "79111234567", normalize.Digits("+7 911 1234567"))
	assert.Equal(t, "89111234567", normalize.Digits("8(911)123-45-67"))
	assert.Empty(t, normalize.Digits("нет телефона"))
}

func TestFirstInt(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"50 мест", 50, true},
		{"около 120-150", 120, true},
		{"80", 80, true},
		{"мест нет", 0, false},
		{"nan", 0, false},
		{"", 0, false},
		{"99999999999999999999999", 0, false},
	}
	for _, tt := range tests {
		got, ok := normalize.FirstInt(tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestFirstFloat(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"4.5", 4.5, true},
		{"Рейтинг 4.0 из 5", 4.0, true},
		{"5", 5, true},
		{"4.", 4, true},
		{"4,7", 4, true},
		{"нет оценок", 0, false},
		{"null", 0, false},
	}
	for _, tt := range tests {
		got, ok := normalize.FirstFloat(tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
		assert.InDelta(t, tt.want, got, 1e-9, tt.in)
	}
}
