package display

import "time"

// tween is a linear alpha ramp over FadeDuration
type tween struct {
	from, to float64
	start    time.Time
}

func steady(alpha float64) tween {
	return tween{from: alpha, to: alpha}
}

func fadeTo(from, to float64, start time.Time) tween {
	return tween{from: from, to: to, start: start}
}

func (tw tween) at(now time.Time) float64 {
	if !now.After(tw.start) {
		return tw.from
	}
	p := float64(now.Sub(tw.start)) / float64(FadeDuration)
	if p >= 1 {
		return tw.to
	}
	return tw.from + (tw.to-tw.from)*p
}
