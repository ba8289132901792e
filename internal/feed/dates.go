package feed

import (
	"time"

	"github.com/araddon/dateparse"
	log "github.com/sirupsen/logrus"
)

// RSSDateLayout is the RFC 822 date format used by RSS pubDate elements.
const RSSDateLayout = "Mon, 02 Jan 2006 15:04:05 -0700"

// XMLDateToDate parses an RSS pubDate. A missing or unparseable date yields
// the current time.
func XMLDateToDate(date *string) time.Time {
	if date == nil {
		return time.Now()
	}
	if t, err := time.Parse(RSSDateLayout, *date); err == nil {
		return t
	}
	t, err := dateparse.ParseAny(*date)
	if err != nil {
		log.WithFields(log.Fields{"date": *date, "error": err}).Warn("unparseable pubDate")
		return time.Now()
	}
	return t
}
