package model

import "strings"

type Kind string

const (
	KindSection Kind = "section"
	KindChapter Kind = "chapter"
	KindArticle Kind = "article"
)

type Section struct {
	ID          string    `json:"id"`
	Order       int       `json:"order_number"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Chapters    []Chapter `json:"chapters"`
}

type Chapter struct {
	ID          string `json:"id"`
	Order       int    `json:"order_number"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	SectionID   string `json:"section_id"`

	// Articles is populated lazily. Nil means "not fetched"; an empty slice means "none".
	Articles []Article `json:"articles,omitempty"`
}

type Article struct {
	ID     string `json:"id"`
	Number string `json:"number"`
	Title  string `json:"title"`
}

// Node is a tagged union over the three levels of the hierarchy.
// Exactly one of Section/Chapter/Article is set, matching Kind.
type Node struct {
	Kind    Kind
	Section *Section
	Chapter *Chapter
	Article *Article
}

func SectionNode(s *Section) Node { return Node{Kind: KindSection, Section: s} }
func ChapterNode(c *Chapter) Node { return Node{Kind: KindChapter, Chapter: c} }
func ArticleNode(a *Article) Node { return Node{Kind: KindArticle, Article: a} }

func (n Node) ID() string {
	switch n.Kind {
	case KindSection:
		if n.Section != nil {
			return n.Section.ID
		}
	case KindChapter:
		if n.Chapter != nil {
			return n.Chapter.ID
		}
	case KindArticle:
		if n.Article != nil {
			return n.Article.ID
		}
	}
	return ""
}

// SectionInput is the create/update payload for sections.
type SectionInput struct {
	Order       int    `json:"order_number"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ChapterInput is the create payload for chapters.
type ChapterInput struct {
	SectionID   string `json:"section_id"`
	Order       int    `json:"order_number"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ChapterPatch is a partial chapter update. Nil fields are omitted from the wire payload.
type ChapterPatch struct {
	SectionID   *string `json:"section_id,omitempty"`
	Order       *int    `json:"order_number,omitempty"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (p ChapterPatch) Empty() bool {
	return p.SectionID == nil && p.Order == nil && p.Title == nil && p.Description == nil
}

// OrderOnly returns a patch that only carries an order value.
func OrderOnly(order int) ChapterPatch {
	return ChapterPatch{Order: &order}
}

// MoveTo returns a patch that reassigns a chapter to a section at the given order.
func MoveTo(sectionID string, order int) ChapterPatch {
	sid := strings.TrimSpace(sectionID)
	return ChapterPatch{SectionID: &sid, Order: &order}
}
