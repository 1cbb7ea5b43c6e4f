package record

import "strings"

// DefaultColor цвет акцента для нераспознанных жанров
const DefaultColor = 0x5865F2

var genreColors = map[string]int{
	"hip-hop":    0xF1C40F,
	"hip hop":    0xF1C40F,
	"rap":        0xF1C40F,
	"trap":       0xE67E22,
	"drill":      0x992D22,
	"r&b":        0x9B59B6,
	"rnb":        0x9B59B6,
	"pop":        0xE91E63,
	"rock":       0xE74C3C,
	"electronic": 0x1ABC9C,
	"edm":        0x1ABC9C,
	"house":      0x1ABC9C,
	"lo-fi":      0x95A5A6,
	"lofi":       0x95A5A6,
	"jazz":       0x3498DB,
	"afrobeats":  0x2ECC71,
}

// GenreColor возвращает цвет акцента для жанра
func GenreColor(genre string) int {
	if c, ok := genreColors[strings.ToLower(strings.TrimSpace(genre))]; ok {
		return c
	}
	return DefaultColor
}
