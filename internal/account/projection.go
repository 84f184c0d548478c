package account

import (
	"sort"

	"taskdeck/internal/service"
)

// appendMissing returns entries extended with a full-permission projection
// for each task not yet referenced, and the number added.
func appendMissing(entries []service.AccountTask, tasks []service.Task) ([]service.AccountTask, int) {
	result := append([]service.AccountTask{}, entries...)
	have := make(map[string]bool, len(entries))
	for _, e := range entries {
		have[e.TaskID] = true
	}

	added := 0
	for _, t := range tasks {
		if have[t.ID] {
			continue
		}
		result = append(result, service.AccountTask{
			TaskID:     t.ID,
			Permission: service.PermissionFull,
			Position:   len(result),
		})
		have[t.ID] = true
		added++
	}
	return result, added
}

// Project derives the projection list from the authoritative tasks.
// Entries keep their relative order and permission, entries for unknown
// tasks are dropped, positions become 0..n-1, and tasks without an entry
// are appended.
func Project(entries []service.AccountTask, tasks []service.Task) []service.AccountTask {
	known := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		known[t.ID] = true
	}

	ordered := append([]service.AccountTask{}, entries...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Position < ordered[j].Position
	})

	result := make([]service.AccountTask, 0, len(tasks))
	seen := make(map[string]bool, len(entries))
	for _, e := range ordered {
		if !known[e.TaskID] || seen[e.TaskID] {
			continue
		}
		seen[e.TaskID] = true
		e.Position = len(result)
		result = append(result, e)
	}

	result, _ = appendMissing(result, tasks)
	return result
}

func equalEntries(a, b []service.AccountTask) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
