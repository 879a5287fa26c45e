// Package testing provides fixtures and helpers shared by the package tests.
package testing

import (
	"github.com/gcbaptista/go-concordance-engine/config"
	"github.com/gcbaptista/go-concordance-engine/internal/features"
	"github.com/gcbaptista/go-concordance-engine/model"
)

// FixtureBaseline is the paragraph baseline of the interlinear fixture.
const FixtureBaseline = "nihimbilira pus, yalola ban."

// Character spans of the fixture words.
var (
	SpanNihimbilira = [2]int{0, 11}
	SpanPus         = [2]int{12, 15}
	SpanYalola      = [2]int{17, 23}
	SpanBan         = [2]int{24, 27}
)

// FixtureParagraph returns a fresh copy of the fixture paragraph:
//
//	nihimbilira  verb  ni- + himbilira          tense=past
//	pus          adj   pus                      tense=pres
//	yalola       noun  yalo (tense=pres) + -la POSS (nounAgr.num=sg)
//	ban          noun  ban                      tense=pres nounAgr.num=pl
//
// yalola carries no features of its own; they come from its morphs.
func FixtureParagraph() model.Paragraph {
	return model.Paragraph{
		ID:       "p1",
		Baseline: FixtureBaseline,
		Segments: []model.Segment{{
			Begin: 0,
			End:   len(FixtureBaseline),
			Occurrences: []model.Occurrence{
				{
					Begin: 0, End: 11, Form: "nihimbilira", Gloss: "I.sang", Category: "verb",
					Features: features.NewStructure(map[string]features.Value{"tense": features.Sym("past")}),
					Morphs: []model.Morph{
						{Begin: 0, End: 2, Form: "ni", Entry: "ni-", Gloss: "1SG", Category: "pfx"},
						{Begin: 2, End: 11, Form: "himbilira", Entry: "himbilira", Gloss: "sing.PST", Category: "verb"},
					},
				},
				{
					Begin: 12, End: 15, Form: "pus", Category: "adj",
					Features: features.NewStructure(map[string]features.Value{"tense": features.Sym("pres")}),
					Morphs: []model.Morph{
						{Form: "pus", Entry: "pus", Gloss: "white", Category: "adj"},
					},
				},
				{
					Begin: 17, End: 23, Form: "yalola", Category: "noun",
					Morphs: []model.Morph{
						{Begin: 17, End: 21, Form: "yalo", Entry: "yalo", Gloss: "house", Category: "noun",
							Features: features.NewStructure(map[string]features.Value{"tense": features.Sym("pres")})},
						{Begin: 21, End: 23, Form: "la", Entry: "-la", Gloss: "POSS", Category: "sfx",
							Features: features.NewStructure(map[string]features.Value{
								"nounAgr": features.Nest(map[string]features.Value{"num": features.Sym("sg")}),
							})},
					},
				},
				{
					Begin: 24, End: 27, Form: "ban", Category: "noun",
					Features: features.NewStructure(map[string]features.Value{
						"tense":   features.Sym("pres"),
						"nounAgr": features.Nest(map[string]features.Value{"num": features.Sym("pl")}),
					}),
					Morphs: []model.Morph{
						{Form: "ban", Entry: "ban", Gloss: "dog", Category: "noun"},
					},
				},
			},
		}},
	}
}

// FixtureText wraps the fixture paragraph in a text.
func FixtureText(id string) model.Text {
	return model.Text{ID: id, Title: "Fixture", Paragraphs: []model.Paragraph{FixtureParagraph()}}
}

// FixtureSettings returns corpus settings whose inventories cover the fixture.
func FixtureSettings(name string) config.CorpusSettings {
	settings := config.CorpusSettings{
		Name: name,
		Categories: []config.CategoryDefn{
			{ID: "noun"},
			{ID: "propn", Parent: "noun"},
			{ID: "verb"},
			{ID: "adj"},
			{ID: "pfx"},
			{ID: "sfx"},
		},
		Features: []features.Defn{
			{ID: "tense", Kind: features.DefnClosed, Symbols: []string{"pres", "past"}},
			{ID: "num", Kind: features.DefnClosed, Symbols: []string{"sg", "pl"}},
			{ID: "pers", Kind: features.DefnClosed, Symbols: []string{"1", "2", "3"}},
			{ID: "nounAgr", Kind: features.DefnComplex, Features: []string{"num", "pers"}},
		},
		TagPossibilities: []string{"topic", "focus"},
	}
	settings.ApplyDefaults()
	return settings
}
