package progress

import (
	"regexp"
	"strconv"
)

var rePercent = regexp.MustCompile(`(\d{1,3}\.\d)%`)

// Percent returns the first "<d{1,3}>.<d>%" value in chunk.
//
// This is best effort scraping of yt-dlp's human readable output: a value
// split across two chunks is missed, and a chunk holding several progress
// lines reports only the first one.
func Percent(chunk string) (float64, bool) {
	m := rePercent.FindStringSubmatch(chunk)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
