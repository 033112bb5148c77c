package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/javari-ai/brain/internal/queue"
	"github.com/javari-ai/brain/internal/storage/models"
)

const mdnBase = "https://developer.mozilla.org"

var mdnSections = []string{
	"/en-US/docs/Web/JavaScript/Reference",
	"/en-US/docs/Web/CSS/Reference",
	"/en-US/docs/Web/HTML/Reference",
	"/en-US/docs/Web/API",
	"/en-US/docs/Web/HTTP",
	"/en-US/docs/Web/Security",
	"/en-US/docs/Web/Accessibility",
}

type MDNConnector struct {
	queue      *queue.Service
	client     *Client
	perSection int
}

func NewMDNConnector(q *queue.Service, client *Client, perSection int) *MDNConnector {
	if perSection <= 0 {
		perSection = 50
	}
	return &MDNConnector{queue: q, client: client, perSection: perSection}
}

func (m *MDNConnector) Source() models.DataSource {
	return models.DataSource{
		Name:           "mdn",
		SourceType:     "scrape",
		URL:            mdnBase,
		FetchFrequency: "06:00:00",
		IsActive:       true,
		Config:         map[string]interface{}{"sections": mdnSections},
	}
}

func (m *MDNConnector) Fetch(ctx context.Context) (int, []string, error) {
	scraped := 0
	var errs []string

	for _, section := range mdnSections {
		if ctx.Err() != nil {
			return scraped, errs, ctx.Err()
		}

		n, err := m.fetchSection(ctx, section)
		scraped += n
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", section, err))
		}

		m.client.Pause(ctx)
	}

	return scraped, errs, nil
}

func (m *MDNConnector) fetchSection(ctx context.Context, section string) (int, error) {
	var index struct {
		Doc struct {
			Children []struct {
				Title   string `json:"title"`
				Slug    string `json:"slug"`
				Summary string `json:"summary"`
			} `json:"children"`
		} `json:"doc"`
	}

	if err := m.client.GetJSON(ctx, mdnBase+section+"/index.json", &index); err != nil {
		return m.fetchSectionFallback(ctx, section)
	}

	scraped := 0
	children := index.Doc.Children
	if len(children) > m.perSection {
		children = children[:m.perSection]
	}
	for _, child := range children {
		title := child.Title
		if title == "" {
			title = child.Slug
		}
		err := m.queue.EnqueueFromConnector("mdn", "documentation", map[string]interface{}{
			"section": section,
			"title":   title,
			"slug":    child.Slug,
			"url":     mdnBase + section + "/" + child.Slug,
			"summary": child.Summary,
		}, 8)
		if err != nil {
			return scraped, err
		}
		scraped++
	}
	return scraped, nil
}

// fetchSectionFallback parses the section's HTML index when the JSON index
// is unavailable. If the page cannot be parsed either, a section stub is
// queued so the pipeline can schedule a deep scrape later.
func (m *MDNConnector) fetchSectionFallback(ctx context.Context, section string) (int, error) {
	doc, err := m.client.GetDocument(ctx, mdnBase+section)
	if err != nil {
		qerr := m.queue.EnqueueFromConnector("mdn", "documentation_section", map[string]interface{}{
			"section":           section,
			"url":               mdnBase + section,
			"needs_deep_scrape": true,
		}, 7)
		if qerr != nil {
			return 0, qerr
		}
		return 1, nil
	}

	scraped := 0
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		title := strings.TrimSpace(s.Text())
		if title == "" || !strings.HasPrefix(href, section+"/") {
			return true
		}

		qerr := m.queue.EnqueueFromConnector("mdn", "documentation", map[string]interface{}{
			"section": section,
			"title":   title,
			"slug":    strings.TrimPrefix(href, section+"/"),
			"url":     mdnBase + href,
		}, 8)
		if qerr != nil {
			err = qerr
			return false
		}
		scraped++
		return scraped < m.perSection
	})

	return scraped, err
}
