package index

import "sort"

// PostingEntry locates a paragraph of a stored text.
type PostingEntry struct {
	TextID    uint32 // Internal text ID from the TextStore
	Paragraph int    // Index of the paragraph inside the text
	Count     int    // Occurrences (or tag spans) carrying the key in this paragraph
}

// PostingList is kept sorted by (TextID, Paragraph).
type PostingList []PostingEntry

func (pl PostingList) less(i int, textID uint32, paragraph int) bool {
	if pl[i].TextID != textID {
		return pl[i].TextID < textID
	}
	return pl[i].Paragraph < paragraph
}

// add counts one more hit for the paragraph, inserting it in order.
func (pl PostingList) add(textID uint32, paragraph int) PostingList {
	i := sort.Search(len(pl), func(i int) bool { return !pl.less(i, textID, paragraph) })
	if i < len(pl) && pl[i].TextID == textID && pl[i].Paragraph == paragraph {
		pl[i].Count++
		return pl
	}
	pl = append(pl, PostingEntry{})
	copy(pl[i+1:], pl[i:])
	pl[i] = PostingEntry{TextID: textID, Paragraph: paragraph, Count: 1}
	return pl
}

// withoutText drops every entry of textID.
func (pl PostingList) withoutText(textID uint32) PostingList {
	out := pl[:0]
	for _, e := range pl {
		if e.TextID != textID {
			out = append(out, e)
		}
	}
	return out
}

// ParagraphRef names one paragraph of one text.
type ParagraphRef struct {
	TextID    uint32
	Paragraph int
}

// intersect returns the paragraphs present in every list.
func intersect(lists []PostingList) []ParagraphRef {
	if len(lists) == 0 {
		return nil
	}
	sort.Slice(lists, func(i, j int) bool { return len(lists[i]) < len(lists[j]) })
	var out []ParagraphRef
	for _, e := range lists[0] {
		inAll := true
		for _, other := range lists[1:] {
			i := sort.Search(len(other), func(i int) bool { return !other.less(i, e.TextID, e.Paragraph) })
			if i == len(other) || other[i].TextID != e.TextID || other[i].Paragraph != e.Paragraph {
				inAll = false
				break
			}
		}
		if inAll {
			out = append(out, ParagraphRef{TextID: e.TextID, Paragraph: e.Paragraph})
		}
	}
	return out
}
