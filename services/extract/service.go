package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mailboost/mailboost/interfaces"
	er "github.com/mailboost/mailboost/internal/errors"
)

// extractorService normalizes the post link buried inside a feed
// notification. The forwarder rewrites links through a mirror front-end, so
// the same post shows up in three shapes depending on the feed template:
//
//	https://rss.<mirror>/{username}/status/{id}#m
//	https://<mirror>/{username}/status/{id}
//	https://twitter.com|x.com/{username}/status/{id}
//
// All three collapse to https://x.com/{username}/status/{id}. Anchors are
// checked in document order and the first rule that matches wins, which
// keeps the result deterministic when an email carries several links.
type extractorService struct {
	rules []*regexp.Regexp
}

func NewExtractorService(mirrorDomain string) interfaces.LinkExtractor {
	mirror := regexp.QuoteMeta(mirrorDomain)
	return &extractorService{
		rules: []*regexp.Regexp{
			regexp.MustCompile(`https?://rss\.` + mirror + `/([A-Za-z0-9_]+)/status/(\d+)#m`),
			regexp.MustCompile(`https?://` + mirror + `/([A-Za-z0-9_]+)/status/(\d+)`),
			regexp.MustCompile(`(?:twitter\.com|x\.com)/([A-Za-z0-9_]+)/status/(\d+)`),
		},
	}
}

func (s *extractorService) ExtractPostLink(htmlContent string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", er.ErrNoFeedLink
	}

	var link string
	doc.Find("a[href]").EachWithBreak(func(i int, anchor *goquery.Selection) bool {
		href, exists := anchor.Attr("href")
		if !exists || !strings.Contains(href, "status") {
			return true
		}
		for _, rule := range s.rules {
			if m := rule.FindStringSubmatch(href); m != nil {
				link = fmt.Sprintf("https://x.com/%s/status/%s", m[1], m[2])
				return false
			}
		}
		return true
	})

	if link == "" {
		return "", er.ErrNoFeedLink
	}
	return link, nil
}

// UsernameFromLink re-derives the account name from a canonical post link
// by path position. The follower dedup keys on this value, so a malformed
// link is reported rather than yielding an empty username.
func UsernameFromLink(link string) (string, error) {
	segments := strings.Split(link, "/")
	if len(segments) < 4 {
		return "", er.ErrMalformedLink
	}
	username := segments[3]
	if username == "" {
		return "", er.ErrUsernameNotFound
	}
	return username, nil
}

// WrapPlainText packages a text-only email body as minimal HTML so the
// extraction path is identical for every message. The text is wrapped as-is:
// some forwarders put anchor markup inside text parts and escaping it would
// hide those links from the anchor scan.
func WrapPlainText(text string) string {
	return "<pre>" + text + "</pre>"
}
