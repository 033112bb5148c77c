package classifier

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/javari-ai/brain/internal/storage/models"
	"github.com/javari-ai/brain/internal/storage/sqlite"
)

type Classifier struct {
	db *sqlite.Client
}

func NewClassifier(db *sqlite.Client) *Classifier {
	return &Classifier{db: db}
}

// Classify dispatches a raw item by content type, derives a knowledge entry
// and upserts it. News goes to the external-data side cache instead, and
// unknown types are acknowledged without materializing anything.
func (c *Classifier) Classify(item *models.RawItem) (map[string]interface{}, error) {
	var content map[string]interface{}
	if err := json.Unmarshal([]byte(item.RawContent), &content); err != nil {
		return nil, fmt.Errorf("failed to parse raw content: %w", err)
	}

	switch ParseContentType(item.ContentType) {
	case ContentTypeDocumentation:
		return c.classifyDocumentation(item.Source, content)
	case ContentTypeTutorial, ContentTypeCurriculum:
		return c.classifyTutorial(item.Source, content)
	case ContentTypeNews:
		return c.classifyNews(item.Source, content)
	case ContentTypeDocSection:
		return map[string]interface{}{
			"action":  "section_logged",
			"section": stringField(content, "section"),
		}, nil
	default:
		return map[string]interface{}{
			"action": "stored",
			"type":   item.ContentType,
		}, nil
	}
}

func (c *Classifier) classifyDocumentation(source string, content map[string]interface{}) (map[string]interface{}, error) {
	doc := stringField(content, "doc")
	title := stringField(content, "title")
	docType := stringField(content, "type")
	url := stringField(content, "url")

	category := MapDocCategory(doc)

	entry := &models.KnowledgeEntry{
		ID:              uuid.New().String(),
		Category:        category,
		Topic:           fmt.Sprintf("%s:%s:%s", source, doc, title),
		Question:        fmt.Sprintf("How to use %s in %s?", title, doc),
		Answer:          fmt.Sprintf("Documentation reference for %s (%s) in %s. See: %s", title, docType, doc, url),
		ShortAnswer:     fmt.Sprintf("%s - %s", title, docType),
		Source:          source,
		SourceURL:       url,
		ConfidenceScore: 0.9,
		Keywords:        ExtractKeywords(title, docType),
		IsActive:        true,
	}

	if err := c.db.UpsertKnowledge(entry); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"action":   "knowledge_created",
		"category": category,
		"topic":    title,
	}, nil
}

func (c *Classifier) classifyTutorial(source string, content map[string]interface{}) (map[string]interface{}, error) {
	name := stringField(content, "name")
	curriculum := stringField(content, "curriculum")
	section := stringField(content, "section")
	url := stringField(content, "url")
	tutorialType := stringField(content, "type")

	topicPart := curriculum
	if topicPart == "" {
		topicPart = name
	}
	label := name
	if label == "" {
		label = section
	}
	short := label
	if short == "" {
		short = "Tutorial"
	}

	entry := &models.KnowledgeEntry{
		ID:              uuid.New().String(),
		Category:        "tutorials",
		Topic:           fmt.Sprintf("%s:%s:%s", source, topicPart, section),
		Question:        fmt.Sprintf("What is taught in %s?", label),
		Answer:          fmt.Sprintf("Tutorial from %s: %s. Type: %s. See: %s", source, label, tutorialType, url),
		ShortAnswer:     short,
		Source:          source,
		SourceURL:       url,
		ConfidenceScore: 0.85,
		Keywords:        ExtractKeywords(name, curriculum),
		IsActive:        true,
	}

	if err := c.db.UpsertKnowledge(entry); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"action":     "tutorial_indexed",
		"curriculum": curriculum,
	}, nil
}

func (c *Classifier) classifyNews(source string, content map[string]interface{}) (map[string]interface{}, error) {
	if err := c.db.UpsertExternalData(source, "news", content); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"action": "news_stored",
		"title":  stringField(content, "title"),
	}, nil
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
