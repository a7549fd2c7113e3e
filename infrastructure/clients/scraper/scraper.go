// Package scraper reads public channel pages as a zero-quota fallback
// when the upstream API budget is exhausted.
package scraper

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gocolly/colly"
	"github.com/gocolly/colly/extensions"

	"tubepulse/domain/model"
	"tubepulse/infrastructure/logger"
)

const baseURL = "https://www.youtube.com"

var channelIDRe = regexp.MustCompile(`"channelId":"(UC[0-9A-Za-z_-]{22})"`)

// Scraper extracts channel metadata from public pages. Everything it
// returns is best effort; callers treat failures as "fallback unavailable".
type Scraper struct {
	timeout time.Duration
}

func NewScraper() *Scraper {
	return &Scraper{timeout: 15 * time.Second}
}

func (s *Scraper) collector() *colly.Collector {
	c := colly.NewCollector(
		colly.AllowedDomains("www.youtube.com", "youtube.com"),
	)
	extensions.RandomUserAgent(c)
	c.SetRequestTimeout(s.timeout)
	return c
}

// ResolveHandle extracts the stable channel ID from a handle page.
func (s *Scraper) ResolveHandle(ctx context.Context, handle string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	handle = strings.TrimPrefix(handle, "@")

	var channelID string
	c := s.collector()
	c.OnHTML(`meta[itemprop="identifier"]`, func(e *colly.HTMLElement) {
		if channelID == "" {
			channelID = e.Attr("content")
		}
	})
	c.OnResponse(func(r *colly.Response) {
		if channelID == "" {
			if m := channelIDRe.FindSubmatch(r.Body); m != nil {
				channelID = string(m[1])
			}
		}
	})

	url := fmt.Sprintf("%s/@%s", baseURL, handle)
	if err := c.Visit(url); err != nil {
		return "", fmt.Errorf("scrape handle page: %w", err)
	}
	if channelID == "" {
		return "", fmt.Errorf("no channel id found on %s", url)
	}
	logger.GetLogger().WithFields(map[string]interface{}{
		"handle":    handle,
		"channelId": channelID,
	}).Debug("Handle resolved by page scrape")
	return channelID, nil
}

// FetchChannel assembles a minimal channel record from page metadata.
// Subscriber and view counts are not available without the API.
func (s *Scraper) FetchChannel(ctx context.Context, ref string) (*model.ChannelRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	url := channelPageURL(ref)
	record := &model.ChannelRecord{}
	c := s.collector()
	c.OnHTML(`meta[property="og:title"]`, func(e *colly.HTMLElement) {
		record.DisplayName = e.Attr("content")
	})
	c.OnHTML(`meta[property="og:image"]`, func(e *colly.HTMLElement) {
		record.ThumbnailURL = e.Attr("content")
	})
	c.OnHTML(`meta[itemprop="identifier"]`, func(e *colly.HTMLElement) {
		if record.ChannelID == "" {
			record.ChannelID = e.Attr("content")
		}
	})
	c.OnResponse(func(r *colly.Response) {
		if record.ChannelID == "" {
			if m := channelIDRe.FindSubmatch(r.Body); m != nil {
				record.ChannelID = string(m[1])
			}
		}
	})

	if err := c.Visit(url); err != nil {
		return nil, fmt.Errorf("scrape channel page: %w", err)
	}
	if record.ChannelID == "" {
		return nil, fmt.Errorf("no channel id found on %s", url)
	}
	// The uploads playlist ref is derivable: UC prefix swaps to UU.
	if strings.HasPrefix(record.ChannelID, "UC") {
		record.UploadsListRef = "UU" + record.ChannelID[2:]
	}
	return record, nil
}

func channelPageURL(ref string) string {
	switch {
	case strings.HasPrefix(ref, "UC"):
		return fmt.Sprintf("%s/channel/%s", baseURL, ref)
	case strings.HasPrefix(ref, "@"):
		return fmt.Sprintf("%s/%s", baseURL, ref)
	default:
		return fmt.Sprintf("%s/@%s", baseURL, ref)
	}
}
