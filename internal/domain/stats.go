package domain

import (
	"fmt"
	"math/big"
)

// FormatCounts is the number of books per format.
type FormatCounts struct {
	Physical  int `json:"physical"`
	Ebook     int `json:"ebook"`
	Audiobook int `json:"audiobook"`
}

// Stats summarizes a library.
type Stats struct {
	Total        int          `json:"total"`
	Read         int          `json:"read"`
	Reading      int          `json:"reading"`
	WantToRead   int          `json:"wantToRead"`
	AvgRating    string       `json:"avgRating"`
	FormatCounts FormatCounts `json:"formatCounts"`
}

// ComputeStats derives shelf statistics. The average covers rated books only
// and is rendered with one decimal place, "0.0" when nothing is rated.
func ComputeStats(books []Book) Stats {
	var (
		stats      Stats
		ratingSum  int
		ratedCount int
	)
	stats.Total = len(books)

	for i := range books {
		switch books[i].Status {
		case StatusRead:
			stats.Read++
		case StatusReading:
			stats.Reading++
		case StatusWantToRead:
			stats.WantToRead++
		}

		switch books[i].Format {
		case FormatPhysical:
			stats.FormatCounts.Physical++
		case FormatEbook:
			stats.FormatCounts.Ebook++
		case FormatAudiobook:
			stats.FormatCounts.Audiobook++
		}

		if books[i].Rating > 0 {
			ratingSum += books[i].Rating
			ratedCount++
		}
	}

	avg := 0.0
	if ratedCount > 0 {
		avg = float64(ratingSum) / float64(ratedCount)
	}
	stats.AvgRating = oneDecimal(avg)

	return stats
}

// oneDecimal renders a non-negative x with one decimal. It rounds the exact
// binary value of x, taking the larger neighbour on a tie: 4.25 is "4.3" but
// 87/20, stored just under 4.35, is "4.3".
func oneDecimal(x float64) string {
	r := new(big.Rat).SetFloat64(x)
	if r == nil {
		return "0.0"
	}
	r.Mul(r, big.NewRat(10, 1))
	r.Add(r, big.NewRat(1, 2))
	tenths := new(big.Int).Quo(r.Num(), r.Denom()).Int64()
	return fmt.Sprintf("%d.%d", tenths/10, tenths%10)
}
