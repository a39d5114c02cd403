// Package weakness ranks question types by how often they were answered
// wrongly.
package weakness

import (
	"sort"
	"strings"

	"github.com/studyup/studyup/internal/session"
)

// displayNames maps normalized backend tags to the name shown to the
// learner. Tags that map to the same name are grouped together.
var displayNames = map[string]string{
	"word":                    "단어",
	"vocabulary":              "단어",
	"sentence":                "문장 해석",
	"sentence-interpretation": "문장 해석",
	"conversation":            "대화",
	"dialogue":                "대화",
	"synonym":                 "유의어",
	"synonym-sentence":        "유의어 문장",
	"fill-in-blank":           "빈칸 채우기",
	"fill-in-the-blank":       "빈칸 채우기",
	"blank":                   "빈칸 채우기",
}

// Record is one row of the weakness ranking.
type Record struct {
	// QuestionType is the first raw tag seen for this group.
	QuestionType string

	// Tags lists every raw tag merged into this group, in first-seen order.
	Tags []string

	DisplayName string
	Count       int

	// AccuracyRate is 1 - Count/attempts when attempt totals are known,
	// otherwise 0.
	AccuracyRate float64

	// Share is Count divided by the total number of wrong answers.
	Share float64

	// PriorityRank starts at 1. Groups with equal counts share a rank.
	PriorityRank int
}

// TypeNameOf returns the display name for a raw type tag. Case and the
// choice of '-', '_' or ' ' as separator do not matter. Unknown tags are
// returned trimmed.
func TypeNameOf(tag string) string {
	if name, ok := displayNames[normalizeTag(tag)]; ok {
		return name
	}
	return strings.TrimSpace(tag)
}

func normalizeTag(tag string) string {
	t := strings.ToLower(strings.TrimSpace(tag))
	return strings.NewReplacer("_", "-", " ", "-").Replace(t)
}

// Analyze ranks the question types of wrong answers by frequency. Entries
// that are marked correct are ignored.
func Analyze(wrong []session.AnsweredQuestion) []Record {
	return AnalyzeWithTotals(wrong, nil)
}

// AnalyzeWithTotals is Analyze with attempt counts per display name, used
// to fill AccuracyRate.
func AnalyzeWithTotals(wrong []session.AnsweredQuestion, totals map[string]int) []Record {
	tags := make([]string, 0, len(wrong))
	for _, a := range wrong {
		if a.IsCorrect {
			continue
		}
		tags = append(tags, string(a.QuestionType))
	}
	return AnalyzeTags(tags, totals)
}

// AnalyzeTags ranks raw type tags, one per wrong answer.
func AnalyzeTags(tags []string, totals map[string]int) []Record {
	if len(tags) == 0 {
		return nil
	}

	index := make(map[string]int)
	var records []Record
	for _, tag := range tags {
		name := TypeNameOf(tag)
		i, ok := index[name]
		if !ok {
			i = len(records)
			index[name] = i
			records = append(records, Record{QuestionType: tag, DisplayName: name})
		}
		r := &records[i]
		r.Count++
		if !containsString(r.Tags, tag) {
			r.Tags = append(r.Tags, tag)
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Count > records[j].Count
	})

	next := 0
	for i := range records {
		r := &records[i]
		for j := 0; j < i; j++ {
			if records[j].Count == r.Count {
				r.PriorityRank = records[j].PriorityRank
				break
			}
		}
		if r.PriorityRank == 0 {
			next++
			r.PriorityRank = next
		}

		r.Share = float64(r.Count) / float64(len(tags))
		if total := totals[r.DisplayName]; total > 0 {
			r.AccuracyRate = accuracy(total, r.Count)
		}
	}
	return records
}

func accuracy(total, wrong int) float64 {
	if wrong >= total {
		return 0
	}
	return float64(total-wrong) / float64(total)
}

// MostWeakType returns the top-ranked record, or nil when there are none.
func MostWeakType(records []Record) *Record {
	if len(records) == 0 {
		return nil
	}
	r := records[0]
	return &r
}

// TotalsByDisplayName groups attempt counts keyed by raw tag under their
// display names.
func TotalsByDisplayName(byTag map[string]int) map[string]int {
	out := make(map[string]int, len(byTag))
	for tag, n := range byTag {
		out[TypeNameOf(tag)] += n
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
