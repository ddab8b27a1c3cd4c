package selector

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/jmorrell/daycoach/internal/core/catalog"
	"github.com/jmorrell/daycoach/internal/core/plan"
)

// ValidationError marks a generative reply that is not parseable or does
// not satisfy the reply contract. The retry loop treats it the same as a
// transport error.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return "invalid response: " + e.msg }

func invalidf(format string, args ...any) *ValidationError {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// parseReply extracts and validates the structured reply. Models sometimes
// wrap the object in code fences or prose, so the object is located before
// strict field probing. Task entries missing name or group are silently
// dropped; task_type defaults to todo; coding tasks fall back to todo_text
// for their problem text. Zero surviving tasks fails validation.
//
// Returns the cleaned tasks, the summary notes, and the raw JSON document
// that was accepted.
func parseReply(raw string) ([]plan.Task, string, string, error) {
	doc, err := extractObject(raw)
	if err != nil {
		return nil, "", "", err
	}

	tasksRes := doc.Get("tasks")
	if !tasksRes.IsArray() {
		return nil, "", "", invalidf("missing tasks array")
	}

	var tasks []plan.Task
	for _, entry := range tasksRes.Array() {
		if !entry.IsObject() {
			continue
		}

		name := entry.Get("name").String()
		group := entry.Get("group").String()
		if name == "" || group == "" {
			continue
		}

		taskType := catalog.TaskType(entry.Get("task_type").String())
		if taskType == "" {
			taskType = catalog.TaskTypeTodo
		}

		problemText := entry.Get("problem_text").String()
		todoText := entry.Get("todo_text").String()
		if taskType == catalog.TaskTypeCoding && problemText == "" {
			problemText = todoText
		}

		task := plan.Task{
			Name:         name,
			Group:        group,
			TaskType:     taskType,
			ProblemText:  problemText,
			CodeTemplate: entry.Get("code_template").String(),
			TodoText:     todoText,
			URL:          entry.Get("url").String(),
			Reason:       entry.Get("reason").String(),
		}

		if res := entry.Get("difficulty_estimate"); res.Exists() {
			est := int(res.Int())
			task.DifficultyEstimate = &est
		}
		if res := entry.Get("importance"); res.Exists() && res.Type == gjson.Number {
			imp := res.Float()
			task.Importance = &imp
		}
		if meta, ok := entry.Get("metadata").Value().(map[string]any); ok {
			task.Metadata = meta
		}

		tasks = append(tasks, task)
	}

	if len(tasks) == 0 {
		return nil, "", "", invalidf("reply had no valid tasks")
	}

	return tasks, doc.Get("summary_notes").String(), doc.Raw, nil
}

// extractObject locates the JSON object within a possibly fenced or
// prose-wrapped reply.
func extractObject(raw string) (gjson.Result, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return gjson.Result{}, invalidf("no JSON object in reply")
	}

	candidate := raw[start : end+1]
	if !gjson.Valid(candidate) {
		return gjson.Result{}, invalidf("reply is not valid JSON")
	}

	doc := gjson.Parse(candidate)
	if !doc.IsObject() {
		return gjson.Result{}, invalidf("reply must be a JSON object")
	}

	return doc, nil
}
