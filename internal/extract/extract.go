// Package extract separates conversational text from embedded task
// directives in assistant replies.
package extract

import (
	"encoding/json"
	"log"
	"regexp"
	"strings"

	"github.com/psundaram/drillmaster/internal/model/task"
)

var (
	fencedBlock = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")
	taskPhrase  = regexp.MustCompile(`(?i)task.*?:\s*(.*?)(?:\.|\n|$)`)
)

// minPhraseLen filters out captures too short to be real task descriptions.
const minPhraseLen = 10

// Extraction is the outcome of scanning a reply for a structured directive.
type Extraction struct {
	Tasks []task.Descriptor
	// Text is the display text: the reply with the directive block removed
	// when it parsed as valid JSON, the original reply otherwise.
	Text string
}

// Directive scans raw assistant text for a fenced json block describing
// tasks. The second return value reports whether a block was present at
// all; callers fall back to the heuristic scanner only when it is false.
//
// Only the first fenced block is considered or stripped; any further
// blocks are left in the output text untouched.
func Directive(raw string) (Extraction, bool) {
	loc := fencedBlock.FindStringSubmatchIndex(raw)
	if loc == nil {
		return Extraction{Text: raw}, false
	}

	body := raw[loc[2]:loc[3]]

	var doc map[string]any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		// Bad JSON: report and hand the reply back untouched rather than
		// mangling text around a block we could not understand.
		log.Printf("[extract] directive block is not valid JSON: %v", err)
		return Extraction{Text: raw}, true
	}

	stripped := strings.TrimSpace(raw[:loc[0]] + raw[loc[1]:])

	list, ok := doc["tasks"].([]any)
	if !ok {
		return Extraction{Text: stripped}, true
	}

	var tasks []task.Descriptor
	for _, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		desc, ok := entry["description"].(string)
		if !ok || desc == "" {
			continue
		}

		days := task.DefaultDeadlineDays
		if v, ok := entry["deadline_days"].(float64); ok {
			days = int(v)
		}

		tasks = append(tasks, task.Descriptor{Description: desc, DeadlineDays: days})
	}

	return Extraction{Tasks: tasks, Text: stripped}, true
}

// Heuristic scans plain text for loosely patterned "task: ..." phrases.
// It is the fallback when no fenced block exists, produces descriptors with
// the default deadline, and never modifies the text it scans.
func Heuristic(text string) []task.Descriptor {
	var tasks []task.Descriptor
	for _, match := range taskPhrase.FindAllStringSubmatch(text, -1) {
		desc := strings.TrimSpace(match[1])
		if len(desc) <= minPhraseLen {
			continue
		}
		tasks = append(tasks, task.Descriptor{Description: desc, DeadlineDays: task.DefaultDeadlineDays})
	}
	return tasks
}
