package service

import "tradego/internal/models"

// lowestLow — минимум low по последним n барам.
func lowestLow(bars []models.Bar, n int) float64 {
	if len(bars) == 0 {
		return 0
	}
	if n > len(bars) {
		n = len(bars)
	}
	low := bars[len(bars)-n].Low
	for _, b := range bars[len(bars)-n:] {
		if b.Low < low {
			low = b.Low
		}
	}
	return low
}

// highestHighPrior — максимум high по n барам, не считая последний.
// Нужен брейкауту: пробой меряем против вчерашнего максимума.
func highestHighPrior(bars []models.Bar, n int) float64 {
	if len(bars) < 2 {
		return 0
	}
	prior := bars[:len(bars)-1]
	if n > len(prior) {
		n = len(prior)
	}
	high := prior[len(prior)-n].High
	for _, b := range prior[len(prior)-n:] {
		if b.High > high {
			high = b.High
		}
	}
	return high
}

func lastVolume(bars []models.Bar) float64 {
	if len(bars) == 0 {
		return 0
	}
	return bars[len(bars)-1].Volume
}
