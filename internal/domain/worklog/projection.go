package worklog

import "time"

// Task is the read model of an entry that belongs to a project.
type Task struct {
	ID            string      `json:"id"`
	UserID        string      `json:"user_id"`
	LogID         string      `json:"log_id"`
	ProjectID     string      `json:"project_id"`
	TaskTag       string      `json:"task_id_tag"`
	Description   string      `json:"description"`
	TaskState     TaskState   `json:"task_state"`
	Source        *string     `json:"source"`
	DueDate       *string     `json:"due_date"`
	CreatedAt     time.Time   `json:"created_at"`
	CompletedAt   *time.Time  `json:"completed_at"`
	AIRecommended bool        `json:"ai_recommended"`
	AIReason      *string     `json:"ai_reason"`
	SortOrder     int         `json:"sort_order"`
	Project       *ProjectRef `json:"project,omitempty"`
	RelatedLogs   []Entry     `json:"related_logs,omitempty"`
}

// ToTask projects an entry into a task, or returns nil when the entry has no project.
func ToTask(e Entry) *Task {
	if !e.HasProject() {
		return nil
	}
	t := &Task{
		ID:          e.ID,
		UserID:      e.UserID,
		LogID:       e.ID,
		ProjectID:   *e.ProjectID,
		TaskTag:     e.Tag(),
		Description: e.Content,
		TaskState:   e.TaskState,
		Source:      e.Source,
		CreatedAt:   e.CreatedAt,
	}
	if e.Project != nil {
		ref := *e.Project
		t.Project = &ref
	}
	return t
}

// ToTasks projects entries, dropping the ones without a project.
func ToTasks(entries []Entry) []Task {
	tasks := make([]Task, 0, len(entries))
	for _, e := range entries {
		if t := ToTask(e); t != nil {
			tasks = append(tasks, *t)
		}
	}
	return tasks
}

// AttachRelated fills RelatedLogs with the other entries sharing each task's tag.
func AttachRelated(tasks []Task, entries []Entry) {
	byTag := make(map[string][]Entry)
	for _, e := range entries {
		if tag := e.Tag(); tag != "" {
			byTag[tag] = append(byTag[tag], e)
		}
	}
	for i := range tasks {
		if tasks[i].TaskTag == "" {
			continue
		}
		for _, e := range byTag[tasks[i].TaskTag] {
			if e.ID != tasks[i].LogID {
				tasks[i].RelatedLogs = append(tasks[i].RelatedLogs, e)
			}
		}
	}
}
