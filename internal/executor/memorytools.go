package executor

import (
	"context"
	"fmt"
	"strings"

	errs "github.com/scribe-ai/scribe/internal/errors"
	"github.com/scribe-ai/scribe/internal/memory"
	"github.com/scribe-ai/scribe/internal/toolcall"
)

func (e *Executor) writeMemory(ctx context.Context, c toolcall.WriteMemory) (string, error) {
	if e.memory == nil {
		return "", errs.Permanent(errs.CodeMemoryStoreFailed, "memory store is not configured")
	}
	if err := e.memory.WriteMemory(ctx, c.Content); err != nil {
		return "", err
	}
	return "Assistant memory updated.", nil
}

func (e *Executor) fetchTasks(ctx context.Context, c toolcall.FetchTasks) (string, error) {
	if e.memory == nil {
		return "", errs.Permanent(errs.CodeMemoryRetrieveFailed, "task store is not configured")
	}

	filter := memory.TaskFilter{
		Source:      c.Source,
		CompletedOn: c.Completion,
		Due:         c.Due,
		Created:     c.Created,
		Start:       c.Start,
		Scheduled:   c.Scheduled,
	}
	switch c.Status {
	case toolcall.TaskStatusCompleted:
		filter.Status = "completed"
	case toolcall.TaskStatusIncomplete:
		filter.Status = "incomplete"
	}

	tasks, err := e.memory.FetchTasks(ctx, filter)
	if err != nil {
		return "", err
	}
	if len(tasks) == 0 {
		return "No matching tasks.", nil
	}

	var sb strings.Builder
	for _, t := range tasks {
		mark := " "
		if t.Completed {
			mark = "x"
		}
		fmt.Fprintf(&sb, "- [%s] %s", mark, t.Title)
		if t.Due != "" {
			sb.WriteString(" (due " + t.Due + ")")
		}
		if t.Source != "" {
			sb.WriteString(" (from " + t.Source + ")")
		}
		sb.WriteByte('\n')
	}
	return strings.TrimSuffix(sb.String(), "\n"), nil
}
