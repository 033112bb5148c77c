package scraper

import (
	"context"
	"fmt"

	"github.com/javari-ai/brain/internal/queue"
	"github.com/javari-ai/brain/internal/storage/models"
)

const fccBase = "https://www.freecodecamp.org"

type fccCurriculum struct {
	Name string
	Slug string
}

type fccSection struct {
	Name string
	Slug string
	Type string
}

var fccCurriculums = []fccCurriculum{
	{"Responsive Web Design", "responsive-web-design"},
	{"JavaScript Algorithms", "javascript-algorithms-and-data-structures"},
	{"Front End Libraries", "front-end-development-libraries"},
	{"Data Visualization", "data-visualization"},
	{"APIs and Microservices", "back-end-development-and-apis"},
	{"Quality Assurance", "quality-assurance"},
	{"Scientific Computing Python", "scientific-computing-with-python"},
	{"Data Analysis Python", "data-analysis-with-python"},
	{"Machine Learning Python", "machine-learning-with-python"},
	{"Relational Database", "relational-database"},
	{"Information Security", "information-security"},
	{"Coding Interview Prep", "coding-interview-prep"},
}

// No public curriculum API exists, so section lists are pinned per
// certification and the rest fall back to a single overview entry.
var fccSections = map[string][]fccSection{
	"responsive-web-design": {
		{"Learn HTML by Building a Cat Photo App", "learn-html-by-building-a-cat-photo-app", "project"},
		{"Learn Basic CSS", "learn-basic-css-by-building-a-cafe-menu", "project"},
		{"CSS Colors", "learn-css-colors-by-building-a-set-of-colored-markers", "project"},
		{"HTML Forms", "learn-html-forms-by-building-a-registration-form", "project"},
		{"CSS Box Model", "learn-the-css-box-model-by-building-a-rothko-painting", "project"},
	},
	"javascript-algorithms-and-data-structures": {
		{"Basic JavaScript", "basic-javascript", "lessons"},
		{"ES6", "es6", "lessons"},
		{"Regular Expressions", "regular-expressions", "lessons"},
		{"Debugging", "debugging", "lessons"},
		{"Basic Data Structures", "basic-data-structures", "lessons"},
		{"Basic Algorithm Scripting", "basic-algorithm-scripting", "challenges"},
		{"OOP", "object-oriented-programming", "lessons"},
		{"Functional Programming", "functional-programming", "lessons"},
		{"Intermediate Algorithm Scripting", "intermediate-algorithm-scripting", "challenges"},
	},
	"front-end-development-libraries": {
		{"Bootstrap", "bootstrap", "lessons"},
		{"jQuery", "jquery", "lessons"},
		{"Sass", "sass", "lessons"},
		{"React", "react", "lessons"},
		{"Redux", "redux", "lessons"},
		{"React and Redux", "react-and-redux", "lessons"},
	},
	"data-visualization": {
		{"D3", "d3", "lessons"},
		{"JSON APIs and AJAX", "json-apis-and-ajax", "lessons"},
	},
	"back-end-development-and-apis": {
		{"Managing Packages with NPM", "managing-packages-with-npm", "lessons"},
		{"Basic Node and Express", "basic-node-and-express", "lessons"},
		{"MongoDB and Mongoose", "mongodb-and-mongoose", "lessons"},
	},
}

type FreeCodeCampConnector struct {
	queue *queue.Service
}

func NewFreeCodeCampConnector(q *queue.Service) *FreeCodeCampConnector {
	return &FreeCodeCampConnector{queue: q}
}

func (f *FreeCodeCampConnector) Source() models.DataSource {
	slugs := make([]string, len(fccCurriculums))
	for i, c := range fccCurriculums {
		slugs[i] = c.Slug
	}
	return models.DataSource{
		Name:           "freecodecamp",
		SourceType:     "scrape",
		URL:            fccBase,
		FetchFrequency: "12:00:00",
		IsActive:       true,
		Config:         map[string]interface{}{"curriculums": slugs},
	}
}

func (f *FreeCodeCampConnector) Fetch(ctx context.Context) (int, []string, error) {
	scraped := 0
	var errs []string

	for _, curriculum := range fccCurriculums {
		if ctx.Err() != nil {
			return scraped, errs, ctx.Err()
		}

		err := f.queue.EnqueueFromConnector("freecodecamp", "curriculum", map[string]interface{}{
			"name": curriculum.Name,
			"slug": curriculum.Slug,
			"url":  fmt.Sprintf("%s/learn/%s", fccBase, curriculum.Slug),
			"type": "certification_path",
		}, 7)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", curriculum.Name, err))
			continue
		}
		scraped++

		for _, section := range f.sections(curriculum.Slug) {
			err := f.queue.EnqueueFromConnector("freecodecamp", "tutorial", map[string]interface{}{
				"curriculum": curriculum.Name,
				"section":    section.Name,
				"url":        fmt.Sprintf("%s/learn/%s/%s", fccBase, curriculum.Slug, section.Slug),
				"type":       section.Type,
			}, 6)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", curriculum.Name, err))
				break
			}
			scraped++
		}
	}

	return scraped, errs, nil
}

func (f *FreeCodeCampConnector) sections(slug string) []fccSection {
	if sections, ok := fccSections[slug]; ok {
		return sections
	}
	return []fccSection{{"Overview", "", "overview"}}
}
