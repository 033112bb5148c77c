package classifier

// ContentType is the closed set of queue item kinds the classifier knows how
// to dispatch. Anything else parses to ContentTypeUnknown and is acknowledged
// without materializing knowledge.
type ContentType int

const (
	ContentTypeUnknown ContentType = iota
	ContentTypeDocumentation
	ContentTypeTutorial
	ContentTypeCurriculum
	ContentTypeNews
	ContentTypeDocSection
)

func ParseContentType(s string) ContentType {
	switch s {
	case "documentation":
		return ContentTypeDocumentation
	case "tutorial":
		return ContentTypeTutorial
	case "curriculum":
		return ContentTypeCurriculum
	case "news":
		return ContentTypeNews
	case "documentation_section":
		return ContentTypeDocSection
	default:
		return ContentTypeUnknown
	}
}

func (t ContentType) String() string {
	switch t {
	case ContentTypeDocumentation:
		return "documentation"
	case ContentTypeTutorial:
		return "tutorial"
	case ContentTypeCurriculum:
		return "curriculum"
	case ContentTypeNews:
		return "news"
	case ContentTypeDocSection:
		return "documentation_section"
	default:
		return "unknown"
	}
}
