package scraper

import (
	"context"
	"fmt"

	"github.com/javari-ai/brain/internal/queue"
	"github.com/javari-ai/brain/internal/storage/models"
)

const devdocsBase = "https://devdocs.io"

var devdocsSlugs = []string{
	"react",
	"typescript",
	"javascript",
	"node",
	"nextjs~14",
	"tailwindcss",
	"postgresql",
	"git",
	"html",
	"css",
	"dom",
	"http",
	"python~3.12",
	"bash",
}

type DevDocsConnector struct {
	queue  *queue.Service
	client *Client
	perDoc int
}

func NewDevDocsConnector(q *queue.Service, client *Client, perDoc int) *DevDocsConnector {
	if perDoc <= 0 {
		perDoc = 100
	}
	return &DevDocsConnector{queue: q, client: client, perDoc: perDoc}
}

func (d *DevDocsConnector) Source() models.DataSource {
	return models.DataSource{
		Name:           "devdocs",
		SourceType:     "scrape",
		URL:            devdocsBase,
		FetchFrequency: "06:00:00",
		IsActive:       true,
		Config:         map[string]interface{}{"docs": devdocsSlugs},
	}
}

func (d *DevDocsConnector) Fetch(ctx context.Context) (int, []string, error) {
	scraped := 0
	var errs []string

	for _, slug := range devdocsSlugs {
		if ctx.Err() != nil {
			return scraped, errs, ctx.Err()
		}

		var index struct {
			Entries []struct {
				Name string `json:"name"`
				Type string `json:"type"`
				Path string `json:"path"`
			} `json:"entries"`
		}

		url := fmt.Sprintf("%s/docs/%s/index.json", devdocsBase, slug)
		if err := d.client.GetJSON(ctx, url, &index); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", slug, err))
			continue
		}

		entries := index.Entries
		if len(entries) > d.perDoc {
			entries = entries[:d.perDoc]
		}
		for _, entry := range entries {
			err := d.queue.EnqueueFromConnector("devdocs", "documentation", map[string]interface{}{
				"doc":   slug,
				"title": entry.Name,
				"type":  entry.Type,
				"path":  entry.Path,
				"url":   fmt.Sprintf("%s/%s/%s", devdocsBase, slug, entry.Path),
			}, 8)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", slug, err))
				break
			}
			scraped++
		}

		d.client.Pause(ctx)
	}

	return scraped, errs, nil
}
