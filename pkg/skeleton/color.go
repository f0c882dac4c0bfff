package skeleton

import (
	"math"
	"math/rand/v2"

	"github.com/scalableminds/wknml/pkg/nml"
)

// RandomColor returns a saturated, medium-light opaque color. Hue is
// uniform, saturation lies in [0.5, 1) and lightness in [0.4, 0.6).
// A nil r uses the global random source.
func RandomColor(r *rand.Rand) nml.Color {
	f := rand.Float64
	if r != nil {
		f = r.Float64
	}
	h, s, l := f(), 0.5+f()/2, 0.4+f()/5
	red, green, blue := hlsToRGB(h, l, s)
	return nml.Color{red, green, blue, 1}
}

func hlsToRGB(h, l, s float64) (float64, float64, float64) {
	if s == 0 {
		return l, l, l
	}
	var m2 float64
	if l <= 0.5 {
		m2 = l * (1 + s)
	} else {
		m2 = l + s - l*s
	}
	m1 := 2*l - m2
	return hueChannel(m1, m2, h+1.0/3), hueChannel(m1, m2, h), hueChannel(m1, m2, h-1.0/3)
}

func hueChannel(m1, m2, hue float64) float64 {
	hue = math.Mod(hue, 1)
	if hue < 0 {
		hue++
	}
	switch {
	case hue < 1.0/6:
		return m1 + (m2-m1)*hue*6
	case hue < 0.5:
		return m2
	case hue < 2.0/3:
		return m1 + (m2-m1)*(2.0/3-hue)*6
	}
	return m1
}
