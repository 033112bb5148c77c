package scraper

import (
	"context"
	"fmt"

	"github.com/javari-ai/brain/internal/queue"
	"github.com/javari-ai/brain/internal/storage/models"
)

const (
	hackerNewsTopStories = "https://hacker-news.firebaseio.com/v0/topstories.json"
	hackerNewsItem       = "https://hacker-news.firebaseio.com/v0/item/%d.json"
	redditHot            = "https://www.reddit.com/r/%s/hot.json?limit=25"
	redditSelfTextLimit  = 500
)

var redditSubreddits = []string{"technology", "programming", "webdev"}

type NewsConnector struct {
	queue    *queue.Service
	client   *Client
	topLimit int
}

func NewNewsConnector(q *queue.Service, client *Client, topLimit int) *NewsConnector {
	if topLimit <= 0 {
		topLimit = 30
	}
	return &NewsConnector{queue: q, client: client, topLimit: topLimit}
}

func (n *NewsConnector) Source() models.DataSource {
	sources := make([]string, 0, len(redditSubreddits)+1)
	sources = append(sources, "hackernews")
	for _, sub := range redditSubreddits {
		sources = append(sources, "reddit_"+sub)
	}
	return models.DataSource{
		Name:           "news",
		SourceType:     "api",
		URL:            "multiple",
		FetchFrequency: "01:00:00",
		IsActive:       true,
		Config:         map[string]interface{}{"sources": sources},
	}
}

func (n *NewsConnector) Fetch(ctx context.Context) (int, []string, error) {
	scraped := 0
	var errs []string

	count, err := n.fetchHackerNews(ctx)
	scraped += count
	if err != nil {
		errs = append(errs, fmt.Sprintf("hackernews: %v", err))
	}

	for _, sub := range redditSubreddits {
		if ctx.Err() != nil {
			return scraped, errs, ctx.Err()
		}

		count, err := n.fetchSubreddit(ctx, sub)
		scraped += count
		if err != nil {
			errs = append(errs, fmt.Sprintf("reddit_%s: %v", sub, err))
		}

		n.client.Pause(ctx)
	}

	return scraped, errs, nil
}

func (n *NewsConnector) fetchHackerNews(ctx context.Context) (int, error) {
	var storyIDs []int64
	if err := n.client.GetJSON(ctx, hackerNewsTopStories, &storyIDs); err != nil {
		return 0, err
	}

	if len(storyIDs) > n.topLimit {
		storyIDs = storyIDs[:n.topLimit]
	}

	scraped := 0
	for _, id := range storyIDs {
		if ctx.Err() != nil {
			return scraped, ctx.Err()
		}

		var story struct {
			ID          int64  `json:"id"`
			Title       string `json:"title"`
			URL         string `json:"url"`
			Score       int    `json:"score"`
			By          string `json:"by"`
			Time        int64  `json:"time"`
			Type        string `json:"type"`
			Descendants int    `json:"descendants"`
		}
		if err := n.client.GetJSON(ctx, fmt.Sprintf(hackerNewsItem, id), &story); err != nil {
			// Skip individual story errors
			continue
		}
		if story.Title == "" {
			continue
		}

		err := n.queue.EnqueueFromConnector("hackernews", "news", map[string]interface{}{
			"id":          story.ID,
			"title":       story.Title,
			"url":         story.URL,
			"score":       story.Score,
			"by":          story.By,
			"time":        story.Time,
			"type":        story.Type,
			"descendants": story.Descendants,
		}, 5)
		if err != nil {
			return scraped, err
		}
		scraped++
	}

	return scraped, nil
}

func (n *NewsConnector) fetchSubreddit(ctx context.Context, sub string) (int, error) {
	var listing struct {
		Data struct {
			Children []struct {
				Data struct {
					ID          string  `json:"id"`
					Title       string  `json:"title"`
					URL         string  `json:"url"`
					SelfText    string  `json:"selftext"`
					Score       int     `json:"score"`
					Author      string  `json:"author"`
					CreatedUTC  float64 `json:"created_utc"`
					NumComments int     `json:"num_comments"`
					Subreddit   string  `json:"subreddit"`
				} `json:"data"`
			} `json:"children"`
		} `json:"data"`
	}

	if err := n.client.GetJSON(ctx, fmt.Sprintf(redditHot, sub), &listing); err != nil {
		return 0, err
	}

	scraped := 0
	for _, child := range listing.Data.Children {
		post := child.Data
		if post.Title == "" {
			continue
		}

		selfText := post.SelfText
		if len(selfText) > redditSelfTextLimit {
			selfText = selfText[:redditSelfTextLimit]
		}

		err := n.queue.EnqueueFromConnector("reddit_"+sub, "news", map[string]interface{}{
			"id":           post.ID,
			"title":        post.Title,
			"url":          post.URL,
			"selftext":     selfText,
			"score":        post.Score,
			"author":       post.Author,
			"created_utc":  post.CreatedUTC,
			"num_comments": post.NumComments,
			"subreddit":    post.Subreddit,
		}, 4)
		if err != nil {
			return scraped, err
		}
		scraped++
	}

	return scraped, nil
}
