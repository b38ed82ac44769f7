package assist

import (
	"fmt"
	"strings"

	"github.com/rpggio/worklog/internal/domain/worklog"
	"github.com/tidwall/gjson"
)

// Proposal is one structured entry suggested for a raw input.
type Proposal struct {
	ProjectCode  *string
	LogType      worklog.LogType
	CategoryCode *string
	Content      string
	Keywords     []string
}

// Verdict is the classifier's answer for one log.
type Verdict struct {
	LogID  string
	IsTask bool
}

// Assignment links a day's log to an existing tag, or to none.
type Assignment struct {
	LogID   string
	TaskTag *string
}

// NewTask is a task the model wants created for some of the day's logs.
type NewTask struct {
	Description string
	ProjectCode string
	Priority    worklog.TaskState
	LogIDs      []string
}

// Plan is the model's tag proposal for one day.
type Plan struct {
	Assignments []Assignment
	NewTasks    []NewTask
}

func schemaError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedResponse, fmt.Sprintf(format, args...))
}

// optionalString accepts a string or null. Anything else is a schema error.
func optionalString(v gjson.Result, field string) (*string, error) {
	switch v.Type {
	case gjson.Null:
		return nil, nil
	case gjson.String:
		s := strings.TrimSpace(v.Str)
		if s == "" || strings.EqualFold(s, "null") {
			return nil, nil
		}
		return &s, nil
	}
	return nil, schemaError("%s must be a string or null", field)
}

func requiredString(v gjson.Result, field string) (string, error) {
	if v.Type != gjson.String || strings.TrimSpace(v.Str) == "" {
		return "", schemaError("%s must be a non-empty string", field)
	}
	return strings.TrimSpace(v.Str), nil
}

func stringArray(v gjson.Result, field string) ([]string, error) {
	if !v.Exists() || v.Type == gjson.Null {
		return nil, nil
	}
	if !v.IsArray() {
		return nil, schemaError("%s must be an array", field)
	}
	var out []string
	for i, item := range v.Array() {
		if item.Type != gjson.String {
			return nil, schemaError("%s[%d] must be a string", field, i)
		}
		if s := strings.TrimSpace(item.Str); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

// decodeProposals accepts a single object, an array of objects or
// {"entries": [...]}.
func decodeProposals(doc gjson.Result) ([]Proposal, error) {
	items := []gjson.Result{doc}
	switch {
	case doc.IsArray():
		items = doc.Array()
	case doc.IsObject() && doc.Get("entries").IsArray():
		items = doc.Get("entries").Array()
	case !doc.IsObject():
		return nil, schemaError("expected an object or array")
	}
	if len(items) == 0 {
		return nil, schemaError("no proposals")
	}

	proposals := make([]Proposal, 0, len(items))
	for i, item := range items {
		if !item.IsObject() {
			return nil, schemaError("proposal %d is not an object", i)
		}
		code, err := optionalString(item.Get("projectCode"), "projectCode")
		if err != nil {
			return nil, err
		}
		typ, err := requiredString(item.Get("logType"), "logType")
		if err != nil {
			return nil, err
		}
		logType := worklog.LogType(strings.ToUpper(typ))
		switch logType {
		case worklog.TypeReceived, worklog.TypeSent, worklog.TypeExecuted, worklog.TypeInfo:
		default:
			return nil, schemaError("logType %q is not one of F/T/W/I", typ)
		}
		category, err := optionalString(item.Get("categoryCode"), "categoryCode")
		if err != nil {
			return nil, err
		}
		content, err := requiredString(item.Get("content"), "content")
		if err != nil {
			return nil, err
		}
		keywords, err := stringArray(item.Get("extractedKeywords"), "extractedKeywords")
		if err != nil {
			return nil, err
		}
		proposals = append(proposals, Proposal{
			ProjectCode:  code,
			LogType:      logType,
			CategoryCode: category,
			Content:      content,
			Keywords:     keywords,
		})
	}
	return proposals, nil
}

func decodeVerdicts(doc gjson.Result) ([]Verdict, error) {
	results := doc.Get("results")
	if !results.IsArray() {
		return nil, schemaError("results must be an array")
	}
	verdicts := make([]Verdict, 0, len(results.Array()))
	for i, item := range results.Array() {
		id, err := requiredString(item.Get("logId"), fmt.Sprintf("results[%d].logId", i))
		if err != nil {
			return nil, err
		}
		isTask := item.Get("isTask")
		if isTask.Type != gjson.True && isTask.Type != gjson.False {
			return nil, schemaError("results[%d].isTask must be a boolean", i)
		}
		verdicts = append(verdicts, Verdict{LogID: id, IsTask: isTask.Bool()})
	}
	return verdicts, nil
}

func decodePlan(doc gjson.Result) (Plan, error) {
	if !doc.IsObject() {
		return Plan{}, schemaError("expected an object")
	}
	var plan Plan

	assignments := doc.Get("logAssignments")
	if assignments.Exists() && assignments.Type != gjson.Null {
		if !assignments.IsArray() {
			return Plan{}, schemaError("logAssignments must be an array")
		}
		for i, item := range assignments.Array() {
			id, err := requiredString(item.Get("logId"), fmt.Sprintf("logAssignments[%d].logId", i))
			if err != nil {
				return Plan{}, err
			}
			tag, err := optionalString(item.Get("taskIdTag"), fmt.Sprintf("logAssignments[%d].taskIdTag", i))
			if err != nil {
				return Plan{}, err
			}
			if tag != nil && !strings.HasPrefix(*tag, "#") {
				t := "#" + *tag
				tag = &t
			}
			plan.Assignments = append(plan.Assignments, Assignment{LogID: id, TaskTag: tag})
		}
	}

	newTasks := doc.Get("newTasks")
	if newTasks.Exists() && newTasks.Type != gjson.Null {
		if !newTasks.IsArray() {
			return Plan{}, schemaError("newTasks must be an array")
		}
		for i, item := range newTasks.Array() {
			desc, err := requiredString(item.Get("description"), fmt.Sprintf("newTasks[%d].description", i))
			if err != nil {
				return Plan{}, err
			}
			code, err := requiredString(item.Get("projectCode"), fmt.Sprintf("newTasks[%d].projectCode", i))
			if err != nil {
				return Plan{}, err
			}
			priority, err := optionalString(item.Get("priority"), fmt.Sprintf("newTasks[%d].priority", i))
			if err != nil {
				return Plan{}, err
			}
			nt := NewTask{Description: desc, ProjectCode: code}
			if priority != nil {
				nt.Priority = worklog.TaskState(strings.ToLower(*priority))
				if !nt.Priority.Valid() {
					return Plan{}, schemaError("newTasks[%d].priority %q is unknown", i, *priority)
				}
			}
			if nt.LogIDs, err = stringArray(item.Get("logIds"), fmt.Sprintf("newTasks[%d].logIds", i)); err != nil {
				return Plan{}, err
			}
			plan.NewTasks = append(plan.NewTasks, nt)
		}
	}
	return plan, nil
}
