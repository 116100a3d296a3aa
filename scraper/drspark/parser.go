package drspark

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"drspark-watcher/models"
	"drspark-watcher/utils"
)

// Site vocabulary. These are the literal strings the board renders, so they
// stay in Korean regardless of the process locale.
const (
	// StatusInProgress marks a sale that already has a committed buyer.
	StatusInProgress = "구매중"

	viewsPrefix    = "조회:"
	commentsPrefix = "댓글:"
)

// postIDRe requires a trailing run of five or more digits at the end of the
// link path. Cards whose href doesn't match are not listings and are skipped.
var postIDRe = regexp.MustCompile(`/(\d{5,})$`)

// Parser turns a raw list-page body into Item records in document order.
type Parser struct {
	base   *url.URL
	logger *utils.Logger
}

// NewParser creates a Parser resolving relative URLs against baseURL.
func NewParser(baseURL string, logger *utils.Logger) (*Parser, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parser: base url %q: %w", baseURL, err)
	}
	return &Parser{base: base, logger: logger}, nil
}

// Parse extracts all listing cards from the page body. Every field degrades
// independently: a missing element yields an empty/absent value, never an
// error. Only a card without a parseable post id is dropped.
func (p *Parser) Parse(html string) ([]*models.Item, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parser: read document: %w", err)
	}

	var items []*models.Item
	doc.Find(".simple-board__webzine .item a.item__container").Each(func(_ int, card *goquery.Selection) {
		href := strings.TrimSpace(card.AttrOr("href", ""))
		m := postIDRe.FindStringSubmatch(href)
		if m == nil {
			return
		}

		item := &models.Item{
			ID:     m[1],
			URL:    p.resolve(href),
			Title:  strings.TrimSpace(card.Find(".item__inner.item__subject .subject").First().Text()),
			Author: strings.TrimSpace(card.Find(".item__author span").First().Text()),
			Age:    strings.TrimSpace(card.Find(".item__date span").First().Text()),
		}

		if src, ok := card.Find(".item__thumbnail img").First().Attr("src"); ok {
			item.Thumb = p.normalizeImageURL(src)
		}

		priceEl := card.Find(".item__inner.item__etc-wrp span[style*='font-size']").First()
		if priceEl.Length() > 0 {
			item.Price = strings.TrimSpace(priceEl.Text()) // e.g. "11,000원"
			if digits := digitsOnly(item.Price); digits != "" {
				if n, err := strconv.Atoi(digits); err == nil {
					item.RawPrice = &n
				}
			}
		}

		card.Find(".status_icon").Each(func(_ int, s *goquery.Selection) {
			item.Status = append(item.Status, strings.TrimSpace(s.Text()))
		})

		// The selector engine has no text-content predicate, so the metadata
		// row is matched by prefix on each direct child instead.
		card.Find(".item__inner.item__etc-wrp > div").Each(func(_ int, dv *goquery.Selection) {
			txt := strings.TrimSpace(dv.Text())
			switch {
			case strings.HasPrefix(txt, viewsPrefix):
				item.Views = strings.TrimSpace(dv.Find("span").First().Text())
			case strings.HasPrefix(txt, commentsPrefix):
				item.Comments = strings.TrimSpace(dv.Find("span").First().Text())
			}
		})

		items = append(items, item)
	})

	p.logger.Info("Parsed %d items", len(items))
	return items, nil
}

func (p *Parser) resolve(href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return p.base.ResolveReference(ref).String()
}

// normalizeImageURL turns a possibly protocol-relative or relative image
// source into an absolute URL against the site's base origin.
func (p *Parser) normalizeImageURL(src string) string {
	s := strings.TrimSpace(src)
	if s == "" {
		return ""
	}
	if strings.HasPrefix(s, "//") {
		return "https:" + s
	}
	return p.resolve(s)
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
