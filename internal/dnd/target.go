package dnd

import (
	"errors"
	"fmt"
	"strings"
)

const (
	chapterPrefix = "chapter:"
	sectionPrefix = "section:"
)

var ErrNoTarget = errors.New("no drop target")

type ResolutionKind string

const (
	KindReorder ResolutionKind = "reorder"
	KindAppend  ResolutionKind = "append"
)

// Resolution is the classified meaning of a drop.
type Resolution struct {
	Kind            ResolutionKind
	SectionID       string
	BeforeChapterID string // set for KindReorder
	// CrossSection is true when SectionID differs from the dragged chapter's current section.
	CrossSection bool
}

// ChapterSlotID is the droppable id of a chapter row. Section ids must not contain ':'.
func ChapterSlotID(sectionID, chapterID string) string {
	return chapterPrefix + strings.TrimSpace(sectionID) + ":" + strings.TrimSpace(chapterID)
}

// SectionContainerID is the droppable id of a section's chapter area.
func SectionContainerID(sectionID string) string {
	return sectionPrefix + strings.TrimSpace(sectionID)
}

// ParseTarget splits a droppable id into its section and (optional) chapter parts.
func ParseTarget(id string) (sectionID, chapterID string, err error) {
	id = strings.TrimSpace(id)
	switch {
	case strings.HasPrefix(id, chapterPrefix):
		rest := strings.TrimPrefix(id, chapterPrefix)
		sid, cid, ok := strings.Cut(rest, ":")
		if !ok || strings.TrimSpace(sid) == "" || strings.TrimSpace(cid) == "" {
			return "", "", fmt.Errorf("%w: malformed chapter slot %q", ErrNoTarget, id)
		}
		return sid, cid, nil
	case strings.HasPrefix(id, sectionPrefix):
		sid := strings.TrimSpace(strings.TrimPrefix(id, sectionPrefix))
		if sid == "" {
			return "", "", fmt.Errorf("%w: malformed section container %q", ErrNoTarget, id)
		}
		return sid, "", nil
	case id == "":
		return "", "", ErrNoTarget
	default:
		return "", "", fmt.Errorf("%w: unknown target %q", ErrNoTarget, id)
	}
}

// SectionOf reports the section a chapter currently belongs to.
type SectionOf func(chapterID string) (string, bool)

// Resolve classifies a drop of activeChapterID onto targetID.
func Resolve(sectionOf SectionOf, activeChapterID, targetID string) (Resolution, error) {
	activeChapterID = strings.TrimSpace(activeChapterID)
	cur, ok := sectionOf(activeChapterID)
	if !ok {
		return Resolution{}, fmt.Errorf("dragged chapter %q not in tree", activeChapterID)
	}
	sid, cid, err := ParseTarget(targetID)
	if err != nil {
		return Resolution{}, err
	}
	res := Resolution{SectionID: sid, CrossSection: sid != cur}
	if cid != "" {
		res.Kind = KindReorder
		res.BeforeChapterID = cid
	} else {
		res.Kind = KindAppend
	}
	return res, nil
}
